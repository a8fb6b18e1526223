package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

// BalanceTolerance absorbs rounding from repeated currency arithmetic. It is
// not a business allowance for entries that are actually unequal.
var BalanceTolerance = decimal.New(1, -2)

// ValidationError describes a single input violation on a proposed line.
type ValidationError struct {
	Line        int // -1 = the entry as a whole
	Description string
}

func (e ValidationError) Error() string {
	if e.Line < 0 {
		return e.Description
	}
	return fmt.Sprintf("line %d: %s", e.Line+1, e.Description)
}

func (e ValidationError) Unwrap() error {
	return ledgererr.ErrValidation
}

// UnbalancedError reports an entry whose debits and credits differ by more
// than BalanceTolerance.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits (%s) != credits (%s)", formatAmount(e.Debit), formatAmount(e.Credit))
}

// formatAmount prints cents unless d carries sub-cent digits.
func formatAmount(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

func (e *UnbalancedError) Unwrap() error {
	return ledgererr.ErrUnbalanced
}

// ValidateLines checks the shape of proposed lines: at least one line, an
// account on every line, and no negative amounts.
func ValidateLines(lines []LineDraft) []ValidationError {
	var errs []ValidationError
	if len(lines) == 0 {
		return append(errs, ValidationError{Line: -1, Description: "entry must have at least one line"})
	}

	for i, l := range lines {
		if l.AccountID == "" {
			errs = append(errs, ValidationError{Line: i, Description: "account is required"})
		}
		if l.Debit.IsNegative() {
			errs = append(errs, ValidationError{Line: i, Description: fmt.Sprintf("debit %s is negative", l.Debit)})
		}
		if l.Credit.IsNegative() {
			errs = append(errs, ValidationError{Line: i, Description: fmt.Sprintf("credit %s is negative", l.Credit)})
		}
	}
	return errs
}

// CheckBalance returns an *UnbalancedError when |debit - credit| exceeds the
// tolerance.
func CheckBalance(debit, credit decimal.Decimal) error {
	if debit.Sub(credit).Abs().GreaterThan(BalanceTolerance) {
		return &UnbalancedError{Debit: debit, Credit: credit}
	}
	return nil
}

// CheckEntry applies CheckBalance to a persisted entry's lines.
func CheckEntry(e model.JournalEntry) error {
	debit, credit := e.Totals()
	return CheckBalance(debit, credit)
}
