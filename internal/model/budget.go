package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetType gives the direction a budget measures.
type BudgetType string

const (
	BudgetTypeIncome  BudgetType = "INCOME"
	BudgetTypeExpense BudgetType = "EXPENSE"
)

// BudgetStatus represents the lifecycle state of a budget.
type BudgetStatus string

const (
	BudgetStatusDraft     BudgetStatus = "DRAFT"
	BudgetStatusConfirmed BudgetStatus = "CONFIRMED"
	BudgetStatusRevised   BudgetStatus = "REVISED"
	BudgetStatusArchived  BudgetStatus = "ARCHIVED"
)

// Budget targets an amount for one analytic account over an inclusive date range.
type Budget struct {
	ID                string
	Name              string
	StartDate         time.Time
	EndDate           time.Time
	AnalyticAccountID string
	Type              BudgetType
	BudgetedAmount    decimal.Decimal
	Status            BudgetStatus
	RevisionOfID      string // "" = original version
	CreatedAt         time.Time
}

// Covers reports whether date falls within [StartDate, EndDate], compared by
// calendar day.
func (b Budget) Covers(date time.Time) bool {
	d := Day(date)
	return !d.Before(Day(b.StartDate)) && !d.After(Day(b.EndDate))
}

// BudgetActuals is the derived view of a budget against posted facts.
type BudgetActuals struct {
	ActualAmount       decimal.Decimal
	AchievedPercentage decimal.Decimal
	RemainingAmount    decimal.Decimal
	IsOverBudget       bool
}

// BudgetWithActuals pairs a budget with freshly computed actuals. Actuals is
// nil for budgets that are not confirmed.
type BudgetWithActuals struct {
	Budget
	Actuals *BudgetActuals
}

// DateLayout is the calendar-date format used for persistence and I/O.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
