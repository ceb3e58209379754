package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/moneta/internal/common"
)

// Default series sizes when the caller leaves the count unset.
const (
	DefaultRecurringCount   = 12
	DefaultInstallmentCount = 1
)

// LaunchPlan describes how a ledger request expands into rows.
// Cadence is only meaningful for recurring plans; ValuePerInstallment
// only for installment plans.
type LaunchPlan struct {
	Type                LaunchType `json:"type"`
	Cadence             Cadence    `json:"cadence,omitempty"`
	Count               int        `json:"count,omitempty"`
	ValuePerInstallment bool       `json:"value_per_installment,omitempty"`
}

// SingleLaunch builds a plan for a one-off entry.
func SingleLaunch() LaunchPlan {
	return LaunchPlan{Type: LaunchSingle}
}

// RecurringLaunch builds a plan for a repeating entry.
func RecurringLaunch(cadence Cadence, count int) LaunchPlan {
	return LaunchPlan{Type: LaunchRecurring, Cadence: cadence, Count: count}
}

// InstallmentLaunch builds a plan for a purchase split across statements.
func InstallmentLaunch(count int, valuePerInstallment bool) LaunchPlan {
	return LaunchPlan{Type: LaunchInstallment, Count: count, ValuePerInstallment: valuePerInstallment}
}

// LedgerRequest is one user-submitted transaction, before expansion.
type LedgerRequest struct {
	Kind          EntryKind       `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
	CategoryID    string          `json:"category_id"`
	Source        PaymentSource   `json:"source"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	Launch        LaunchPlan      `json:"launch"`
}

// Validate checks the request before any expansion or persistence.
func (r *LedgerRequest) Validate() error {
	if !r.Kind.Valid() {
		return common.Validation("kind must be income or expense")
	}
	if !r.Amount.IsPositive() {
		return common.Validation("amount must be greater than zero")
	}
	if r.Description == "" {
		return common.Validation("description is required")
	}
	if r.Date.IsZero() {
		return common.Validation("date is required")
	}
	if r.CategoryID == "" {
		return common.Validation("category is required")
	}
	if !r.Source.Valid() {
		return common.Validation("exactly one of account or card must be set")
	}
	if !r.PaymentMethod.Valid() {
		return common.Validation("unknown payment method")
	}
	if !r.Launch.Type.Valid() {
		return common.Validation("unknown launch type")
	}
	if r.Launch.Type == LaunchRecurring && r.Launch.Cadence != "" && !r.Launch.Cadence.Valid() {
		return common.Validation("unknown recurrence cadence")
	}
	if r.Launch.Type != LaunchSingle && r.Launch.Count < 0 {
		return common.Validation("series count must be at least 1")
	}
	return nil
}

// EntryPatch is a partial update to a ledger entry. Nil fields are
// left untouched.
type EntryPatch struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	CategoryID    *string          `json:"category_id,omitempty"`
	PaymentMethod *PaymentMethod   `json:"payment_method,omitempty"`
}

// Apply copies the patch's set fields onto the entry.
func (p *EntryPatch) Apply(e *LedgerEntry) {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.PaymentMethod != nil {
		e.PaymentMethod = *p.PaymentMethod
	}
}

// IsEmpty reports whether the patch sets no fields.
func (p *EntryPatch) IsEmpty() bool {
	return p.Amount == nil && p.Title == nil && p.Description == nil &&
		p.Date == nil && p.CategoryID == nil && p.PaymentMethod == nil
}

// EntryFilter narrows ledger queries. Zero values mean "no constraint".
type EntryFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	CategoryID string
	AccountID  string
	CardID     string
	LaunchType LaunchType
	Kind       EntryKind
	Limit      int
}
