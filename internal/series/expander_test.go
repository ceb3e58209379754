package series

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/models"
)

func baseRequest(launch models.LaunchPlan) *models.LedgerRequest {
	return &models.LedgerRequest{
		Kind:        models.KindExpense,
		Amount:      decimal.NewFromFloat(50.00),
		Description: "Lunch",
		Date:        time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CategoryID:  "c1",
		Source:      models.AccountSource("a1"),
		Launch:      launch,
	}
}

func TestExpand_Single(t *testing.T) {
	x := NewExpander()
	entries, err := x.Expand(baseRequest(models.SingleLaunch()))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "", e.ParentID)
	assert.Equal(t, 1, e.SequenceIndex)
	assert.Equal(t, 1, e.SeriesTotal)
	assert.Equal(t, models.LaunchSingle, e.LaunchType)
	assert.True(t, e.Amount.Equal(decimal.NewFromFloat(50.00)))
}

func TestExpand_RecurringMonthly(t *testing.T) {
	x := NewExpander()
	req := baseRequest(models.RecurringLaunch(models.CadenceMonthly, 3))
	req.Kind = models.KindIncome
	req.Amount = decimal.NewFromInt(1000)
	req.Date = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	entries, err := x.Expand(req)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	wantDates := []time.Time{
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	for i, e := range entries {
		assert.Equal(t, i+1, e.SequenceIndex)
		assert.Equal(t, 3, e.SeriesTotal)
		assert.Equal(t, models.CadenceMonthly, e.RecurrenceCadence)
		assert.True(t, e.Date.Equal(wantDates[i]), "entry %d date %s", i, e.Date)
		// Every recurring row carries the entered amount verbatim
		assert.True(t, e.Amount.Equal(decimal.NewFromInt(1000)))
	}
}

func TestExpand_RecurringCadences(t *testing.T) {
	tests := []struct {
		name    string
		cadence models.Cadence
		want    time.Time // date of the third entry
	}{
		{"annual", models.CadenceAnnual, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"monthly", models.CadenceMonthly, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"weekly", models.CadenceWeekly, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)},
	}

	x := NewExpander()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest(models.RecurringLaunch(tt.cadence, 3))
			req.Date = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
			entries, err := x.Expand(req)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			assert.True(t, entries[2].Date.Equal(tt.want), "got %s", entries[2].Date)
		})
	}
}

func TestExpand_RecurringDefaultCount(t *testing.T) {
	x := NewExpander()
	entries, err := x.Expand(baseRequest(models.RecurringLaunch(models.CadenceMonthly, 0)))
	require.NoError(t, err)
	assert.Len(t, entries, models.DefaultRecurringCount)
}

func TestExpand_InstallmentTotalSplit(t *testing.T) {
	x := NewExpander()
	req := baseRequest(models.InstallmentLaunch(3, false))
	req.Amount = decimal.NewFromInt(300)
	req.Date = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	entries, err := x.Expand(req)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Head row keeps the total, not its own share
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(300)), "head amount %s", entries[0].Amount)
	assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, entries[2].Amount.Equal(decimal.NewFromInt(100)))

	// Installments advance by whole months regardless of any cadence
	assert.True(t, entries[1].Date.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, entries[2].Date.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func TestExpand_InstallmentPerRowValue(t *testing.T) {
	x := NewExpander()
	req := baseRequest(models.InstallmentLaunch(4, true))
	req.Amount = decimal.NewFromInt(25)

	entries, err := x.Expand(req)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Head stores the computed total, siblings the entered per-row value
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(100)), "head amount %s", entries[0].Amount)
	for _, e := range entries[1:] {
		assert.True(t, e.Amount.Equal(decimal.NewFromInt(25)))
	}
}

func TestExpand_InstallmentSingleRow(t *testing.T) {
	x := NewExpander()
	req := baseRequest(models.InstallmentLaunch(1, false))
	entries, err := x.Expand(req)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Degenerates to a single-shaped row but keeps its launch type
	assert.Equal(t, models.LaunchInstallment, entries[0].LaunchType)
	assert.Equal(t, 1, entries[0].SeriesTotal)
}

func TestExpand_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.LedgerRequest)
	}{
		{"unknown launch type", func(r *models.LedgerRequest) { r.Launch.Type = "sometimes" }},
		{"unknown cadence", func(r *models.LedgerRequest) {
			r.Launch = models.RecurringLaunch("fortnightly", 3)
		}},
		{"negative count", func(r *models.LedgerRequest) {
			r.Launch = models.RecurringLaunch(models.CadenceMonthly, -2)
		}},
		{"zero amount", func(r *models.LedgerRequest) { r.Amount = decimal.Zero }},
		{"missing description", func(r *models.LedgerRequest) { r.Description = "" }},
		{"no payment source", func(r *models.LedgerRequest) { r.Source = models.PaymentSource{} }},
		{"both payment sources", func(r *models.LedgerRequest) {
			r.Source = models.PaymentSource{AccountID: "a1", CardID: "k1"}
		}},
	}

	x := NewExpander()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest(models.SingleLaunch())
			tt.mutate(req)
			_, err := x.Expand(req)
			require.Error(t, err)
			assert.True(t, common.IsCode(err, common.ErrCodeValidation), "got %v", err)
		})
	}
}

func TestExpand_MonthEndRollsOver(t *testing.T) {
	x := NewExpander()
	req := baseRequest(models.InstallmentLaunch(2, false))
	req.Amount = decimal.NewFromInt(200)
	req.Date = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	entries, err := x.Expand(req)
	require.NoError(t, err)
	// AddDate normalizes Jan 31 + 1 month to Mar 3 (2025 is not a leap year)
	assert.True(t, entries[1].Date.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)), "got %s", entries[1].Date)
}
