// Package budget tracks budgets per analytic account and reconciles them
// against posted documents.
package budget

import (
	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Actuals sums the signed amounts of tuples that count toward b: posted
// documents only, tagged with b's analytic account, dated within b's range.
// Customer invoices and vendor refunds add; vendor bills and customer refunds
// subtract. Expense budgets report the negated net, so spending is positive.
func Actuals(b model.Budget, tuples []model.ActualTuple) decimal.Decimal {
	net := decimal.Zero
	for _, t := range tuples {
		if t.Status != model.DocStatusPosted {
			continue
		}
		if t.AnalyticAccountID != b.AnalyticAccountID || !b.Covers(t.Date) || !t.DocumentType.Valid() {
			continue
		}
		if t.DocumentType.Inflow() {
			net = net.Add(t.Amount)
		} else {
			net = net.Sub(t.Amount)
		}
	}
	if b.Type == model.BudgetTypeExpense {
		return net.Neg()
	}
	return net
}

// Metrics derives the display figures for a budget, rounded to cents.
// Achievement is 0% when nothing was budgeted.
func Metrics(budgeted, actual decimal.Decimal) model.BudgetActuals {
	budgeted = budgeted.Round(2)
	actual = actual.Round(2)

	pct := decimal.Zero
	if !budgeted.IsZero() {
		pct = actual.Div(budgeted).Mul(hundred).Round(2)
	}
	return model.BudgetActuals{
		ActualAmount:       actual,
		AchievedPercentage: pct,
		RemainingAmount:    budgeted.Sub(actual),
		IsOverBudget:       actual.GreaterThan(budgeted),
	}
}
