package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

const budgetColumns = `id, name, start_date, end_date, analytic_account_id, budget_type,
	budgeted_amount, status, COALESCE(revision_of_id, ''), created_at`

// InsertBudget adds a budget version.
func (q *Queries) InsertBudget(ctx context.Context, b model.Budget) error {
	_, err := q.db.ExecContext(ctx, `
	INSERT INTO budgets(id, name, start_date, end_date, analytic_account_id, budget_type, budgeted_amount, status, revision_of_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, formatDate(b.StartDate), formatDate(b.EndDate), b.AnalyticAccountID, string(b.Type),
		b.BudgetedAmount.StringFixed(2), string(b.Status), nullString(b.RevisionOfID))
	if err != nil {
		return fmt.Errorf("inserting budget %s: %w", b.Name, err)
	}
	return nil
}

// GetBudget returns a budget by id.
func (q *Queries) GetBudget(ctx context.Context, budgetID string) (model.Budget, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, budgetID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Budget{}, ledgererr.NotFoundf("budget %s", budgetID)
	}
	return b, err
}

// ListBudgets returns every budget version ordered by start date.
func (q *Queries) ListBudgets(ctx context.Context) ([]model.Budget, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY start_date, name, rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()
	var out []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBudgetFields rewrites the business fields of a budget.
func (q *Queries) UpdateBudgetFields(ctx context.Context, b model.Budget) error {
	res, err := q.db.ExecContext(ctx, `
	UPDATE budgets SET name = ?, start_date = ?, end_date = ?, analytic_account_id = ?, budget_type = ?, budgeted_amount = ?
	WHERE id = ?`,
		b.Name, formatDate(b.StartDate), formatDate(b.EndDate), b.AnalyticAccountID, string(b.Type),
		b.BudgetedAmount.StringFixed(2), b.ID)
	if err != nil {
		return fmt.Errorf("updating budget %s: %w", b.ID, err)
	}
	return requireOneRow(res, "budget "+b.ID)
}

// SetBudgetStatus moves a budget from one status to another. It fails with
// ErrInvalidState if the budget is no longer in from.
func (q *Queries) SetBudgetStatus(ctx context.Context, budgetID string, from, to model.BudgetStatus) error {
	res, err := q.db.ExecContext(ctx, `UPDATE budgets SET status = ? WHERE id = ? AND status = ?`,
		string(to), budgetID, string(from))
	if err != nil {
		return fmt.Errorf("updating budget %s status: %w", budgetID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledgererr.InvalidStatef("budget %s is not %s", budgetID, from)
	}
	return nil
}

func scanBudget(s scanner) (model.Budget, error) {
	var b model.Budget
	var start, end, typ, status, created string
	err := s.Scan(&b.ID, &b.Name, &start, &end, &b.AnalyticAccountID, &typ, &b.BudgetedAmount, &status,
		&b.RevisionOfID, &created)
	if err != nil {
		return model.Budget{}, err
	}
	b.Type = model.BudgetType(typ)
	b.Status = model.BudgetStatus(status)
	b.CreatedAt = parseTimestamp(created)
	if b.StartDate, err = parseDate(start); err != nil {
		return model.Budget{}, err
	}
	if b.EndDate, err = parseDate(end); err != nil {
		return model.Budget{}, err
	}
	return b, nil
}
