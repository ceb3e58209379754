// Package models defines domain types for Moneta
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry as money in or money out.
type EntryKind string

const (
	KindIncome  EntryKind = "income"
	KindExpense EntryKind = "expense"
)

// Valid reports whether the kind is a known value.
func (k EntryKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// PaymentMethod is how the entry was paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "card"
)

// Valid reports whether the payment method is a known value.
// An empty method is allowed; the remote API treats it as optional.
func (m PaymentMethod) Valid() bool {
	return m == "" || m == PaymentCash || m == PaymentPix || m == PaymentCard
}

// LaunchType distinguishes one-off, recurring, and installment entries.
type LaunchType string

const (
	LaunchSingle      LaunchType = "single"
	LaunchRecurring   LaunchType = "recurring"
	LaunchInstallment LaunchType = "installment"
)

// Valid reports whether the launch type is a known value.
func (t LaunchType) Valid() bool {
	return t == LaunchSingle || t == LaunchRecurring || t == LaunchInstallment
}

// Cadence is the date advance unit for recurring series.
type Cadence string

const (
	CadenceAnnual  Cadence = "annual"
	CadenceMonthly Cadence = "monthly"
	CadenceWeekly  Cadence = "weekly"
)

// Valid reports whether the cadence is a known value.
func (c Cadence) Valid() bool {
	return c == CadenceAnnual || c == CadenceMonthly || c == CadenceWeekly
}

// PaymentSource identifies where money moves: exactly one of an account
// or a card. Construct via AccountSource/CardSource rather than by hand.
type PaymentSource struct {
	AccountID string `json:"account_id,omitempty"`
	CardID    string `json:"card_id,omitempty"`
}

// AccountSource builds a payment source backed by a bank account.
func AccountSource(accountID string) PaymentSource {
	return PaymentSource{AccountID: accountID}
}

// CardSource builds a payment source backed by a credit card.
func CardSource(cardID string) PaymentSource {
	return PaymentSource{CardID: cardID}
}

// IsCard reports whether the source is a card.
func (s PaymentSource) IsCard() bool {
	return s.CardID != ""
}

// IsZero reports whether neither account nor card is set.
func (s PaymentSource) IsZero() bool {
	return s.AccountID == "" && s.CardID == ""
}

// Valid reports whether exactly one of account/card is set.
func (s PaymentSource) Valid() bool {
	return (s.AccountID != "") != (s.CardID != "")
}

// LedgerEntry is one persisted transaction row. Entries belonging to a
// recurring or installment series share lineage through ParentID: the
// head row (SequenceIndex 1) has ParentID empty, every sibling points
// at the head.
type LedgerEntry struct {
	ID                  string          `badgerhold:"key" json:"id"`
	Kind                EntryKind       `badgerholdIndex:"Kind" json:"kind"`
	Amount              decimal.Decimal `json:"amount"`
	Title               string          `json:"title,omitempty"`
	Description         string          `json:"description"`
	Date                time.Time       `badgerholdIndex:"Date" json:"date"`
	CategoryID          string          `badgerholdIndex:"CategoryID" json:"category_id"`
	AccountID           string          `json:"account_id,omitempty"`
	CardID              string          `json:"card_id,omitempty"`
	PaymentMethod       PaymentMethod   `json:"payment_method,omitempty"`
	LaunchType          LaunchType      `badgerholdIndex:"LaunchType" json:"launch_type"`
	SeriesTotal         int             `json:"series_total,omitempty"`
	SequenceIndex       int             `json:"sequence_index"`
	RecurrenceCadence   Cadence         `json:"recurrence_cadence,omitempty"`
	ValuePerInstallment bool            `json:"value_per_installment,omitempty"`
	ParentID            string          `badgerholdIndex:"ParentID" json:"parent_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// IsHead reports whether the entry is the first row of its series
// (or a standalone single entry).
func (e *LedgerEntry) IsHead() bool {
	return e.ParentID == ""
}

// SeriesID returns the id of the series head: ParentID when set,
// otherwise the entry's own id.
func (e *LedgerEntry) SeriesID() string {
	if e.ParentID != "" {
		return e.ParentID
	}
	return e.ID
}

// Source returns the entry's payment source.
func (e *LedgerEntry) Source() PaymentSource {
	if e.CardID != "" {
		return CardSource(e.CardID)
	}
	return AccountSource(e.AccountID)
}

// Clone returns a deep copy of the entry.
func (e *LedgerEntry) Clone() *LedgerEntry {
	c := *e
	return &c
}

// TempIDPrefix marks client-assigned ids that have not been confirmed
// by the remote API.
const TempIDPrefix = "tmp_"

// NewTempID generates a client-side temporary entry id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether the id is a client-assigned temporary id.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}
