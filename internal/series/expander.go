// Package series expands a ledger request into its full row lineage
package series

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/models"
)

// Expander turns one transaction request into the ordered set of
// ledger entries it materializes. It performs no I/O: ids and parent
// links are assigned later, when the rows are persisted.
type Expander struct{}

// NewExpander creates a new series expander
func NewExpander() *Expander {
	return &Expander{}
}

// Expand returns the entries for the request, ordered by sequence
// index. Entry ids and ParentID are left empty; the head is always
// index 0 of the result.
func (x *Expander) Expand(req *models.LedgerRequest) ([]*models.LedgerEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.Launch.Type {
	case models.LaunchSingle:
		return []*models.LedgerEntry{newEntry(req, 1, req.Date, req.Amount)}, nil
	case models.LaunchRecurring:
		return expandRecurring(req)
	case models.LaunchInstallment:
		return expandInstallment(req)
	default:
		return nil, common.Validation("unknown launch type")
	}
}

func expandRecurring(req *models.LedgerRequest) ([]*models.LedgerEntry, error) {
	count := req.Launch.Count
	if count == 0 {
		count = models.DefaultRecurringCount
	}
	if count < 1 {
		return nil, common.Validation("series count must be at least 1")
	}

	cadence := req.Launch.Cadence
	if cadence == "" {
		cadence = models.CadenceMonthly
	}
	if !cadence.Valid() {
		return nil, common.Validation("unknown recurrence cadence")
	}

	entries := make([]*models.LedgerEntry, count)
	for i := 0; i < count; i++ {
		// Every recurring row carries the entered amount verbatim.
		e := newEntry(req, i+1, advance(req.Date, cadence, i), req.Amount)
		e.SeriesTotal = count
		e.RecurrenceCadence = cadence
		entries[i] = e
	}
	return entries, nil
}

func expandInstallment(req *models.LedgerRequest) ([]*models.LedgerEntry, error) {
	count := req.Launch.Count
	if count == 0 {
		count = models.DefaultInstallmentCount
	}
	if count < 1 {
		return nil, common.Validation("series count must be at least 1")
	}

	total := decimal.NewFromInt(int64(count))

	// The head row stores the series total, not its own share. Sibling
	// rows store the per-installment value.
	headAmount := req.Amount
	if req.Launch.ValuePerInstallment {
		headAmount = req.Amount.Mul(total)
	}
	perRow := req.Amount
	if !req.Launch.ValuePerInstallment {
		perRow = req.Amount.Div(total)
	}

	entries := make([]*models.LedgerEntry, count)
	for i := 0; i < count; i++ {
		amount := perRow
		if i == 0 {
			amount = headAmount
		}
		// Installments always follow monthly billing cycles.
		e := newEntry(req, i+1, req.Date.AddDate(0, i, 0), amount)
		e.SeriesTotal = count
		e.ValuePerInstallment = req.Launch.ValuePerInstallment
		entries[i] = e
	}
	return entries, nil
}

func newEntry(req *models.LedgerRequest, sequence int, date time.Time, amount decimal.Decimal) *models.LedgerEntry {
	return &models.LedgerEntry{
		Kind:          req.Kind,
		Amount:        amount,
		Title:         req.Title,
		Description:   req.Description,
		Date:          date,
		CategoryID:    req.CategoryID,
		AccountID:     req.Source.AccountID,
		CardID:        req.Source.CardID,
		PaymentMethod: req.PaymentMethod,
		LaunchType:    req.Launch.Type,
		SeriesTotal:   1,
		SequenceIndex: sequence,
	}
}

// advance moves a date forward by steps cadence units.
func advance(date time.Time, cadence models.Cadence, steps int) time.Time {
	if steps == 0 {
		return date
	}
	switch cadence {
	case models.CadenceAnnual:
		return date.AddDate(steps, 0, 0)
	case models.CadenceMonthly:
		return date.AddDate(0, steps, 0)
	case models.CadenceWeekly:
		return date.AddDate(0, 0, 7*steps)
	default:
		return date
	}
}
