package journal

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidateLines_Empty(t *testing.T) {
	errs := ValidateLines(nil)
	require.Len(t, errs, 1)
	assert.Equal(t, -1, errs[0].Line)
	assert.Contains(t, errs[0].Error(), "at least one line")
}

func TestValidateLines_ReportsEveryProblem(t *testing.T) {
	errs := ValidateLines([]LineDraft{
		{AccountID: "a", Debit: dec("10")},
		{Debit: dec("-1"), Credit: dec("-2")},
	})
	require.Len(t, errs, 3)
	for _, e := range errs {
		assert.Equal(t, 1, e.Line)
		assert.True(t, errors.Is(e, ledgererr.ErrValidation))
	}
	assert.Equal(t, "line 2: account is required", errs[0].Error())
}

func TestCheckBalance(t *testing.T) {
	tests := []struct {
		name   string
		debit  string
		credit string
		ok     bool
	}{
		{"equal", "100.00", "100.00", true},
		{"within tolerance", "100.00", "99.99", true},
		{"tolerance boundary", "100.01", "100.00", true},
		{"just over", "100.02", "100.00", false},
		{"clearly off", "100.00", "90.00", false},
		{"both zero", "0", "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBalance(dec(tt.debit), dec(tt.credit))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ledgererr.ErrUnbalanced)

			var ue *UnbalancedError
			require.ErrorAs(t, err, &ue)
			assert.True(t, ue.Debit.Equal(dec(tt.debit)))
			assert.Contains(t, err.Error(), "debits ("+dec(tt.debit).StringFixed(2)+")")
		})
	}
}

func TestCheckEntry(t *testing.T) {
	e := model.JournalEntry{Lines: []model.JournalLine{
		{Debit: dec("60"), Credit: decimal.Zero},
		{Debit: dec("40"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: dec("100")},
	}}
	assert.NoError(t, CheckEntry(e))

	e.Lines[2].Credit = dec("90")
	assert.ErrorIs(t, CheckEntry(e), ledgererr.ErrUnbalanced)
}
