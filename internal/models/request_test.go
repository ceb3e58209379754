package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/moneta/internal/common"
)

func validRequest() *LedgerRequest {
	return &LedgerRequest{
		Kind:        KindExpense,
		Amount:      decimal.NewFromInt(50),
		Description: "Groceries",
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		CategoryID:  "c1",
		Source:      AccountSource("a1"),
		Launch:      SingleLaunch(),
	}
}

func TestLedgerRequest_Validate(t *testing.T) {
	assert.NoError(t, validRequest().Validate())

	tests := []struct {
		name   string
		mutate func(r *LedgerRequest)
	}{
		{"unknown kind", func(r *LedgerRequest) { r.Kind = "transfer" }},
		{"zero amount", func(r *LedgerRequest) { r.Amount = decimal.Zero }},
		{"negative amount", func(r *LedgerRequest) { r.Amount = decimal.NewFromInt(-5) }},
		{"missing description", func(r *LedgerRequest) { r.Description = "" }},
		{"missing date", func(r *LedgerRequest) { r.Date = time.Time{} }},
		{"missing category", func(r *LedgerRequest) { r.CategoryID = "" }},
		{"no payment source", func(r *LedgerRequest) { r.Source = PaymentSource{} }},
		{"both payment sources", func(r *LedgerRequest) { r.Source = PaymentSource{AccountID: "a1", CardID: "k1"} }},
		{"unknown payment method", func(r *LedgerRequest) { r.PaymentMethod = "barter" }},
		{"unknown launch type", func(r *LedgerRequest) { r.Launch.Type = "sometimes" }},
		{"unknown cadence", func(r *LedgerRequest) { r.Launch = RecurringLaunch("fortnightly", 3) }},
		{"negative count", func(r *LedgerRequest) { r.Launch = RecurringLaunch(CadenceMonthly, -1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := req.Validate()
			assert.Error(t, err)
			assert.True(t, common.IsCode(err, common.ErrCodeValidation), "expected VALIDATION_ERROR, got %v", err)
		})
	}
}

func TestEntryPatch_Apply(t *testing.T) {
	entry := &LedgerEntry{
		Amount:      decimal.NewFromInt(10),
		Description: "Before",
		CategoryID:  "c1",
	}

	amount := decimal.NewFromInt(25)
	desc := "After"
	patch := &EntryPatch{Amount: &amount, Description: &desc}
	assert.False(t, patch.IsEmpty())

	patch.Apply(entry)
	assert.True(t, entry.Amount.Equal(amount))
	assert.Equal(t, "After", entry.Description)
	assert.Equal(t, "c1", entry.CategoryID, "unset fields stay untouched")

	assert.True(t, (&EntryPatch{}).IsEmpty())
}

func TestLedgerEntry_Series(t *testing.T) {
	head := &LedgerEntry{ID: "e1", SeriesTotal: 3, SequenceIndex: 1}
	child := &LedgerEntry{ID: "e2", ParentID: "e1", SeriesTotal: 3, SequenceIndex: 2}

	assert.True(t, head.IsHead())
	assert.False(t, child.IsHead())
	assert.Equal(t, "e1", head.SeriesID())
	assert.Equal(t, "e1", child.SeriesID())
}

func TestTempIDs(t *testing.T) {
	id := NewTempID()
	assert.True(t, IsTempID(id))
	assert.False(t, IsTempID("srv-123"))
	assert.NotEqual(t, NewTempID(), NewTempID())
}
