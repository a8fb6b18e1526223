package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

const accountColumns = `id, code, name, type, reconcilable`

// InsertAccount adds an account to the chart.
func (q *Queries) InsertAccount(ctx context.Context, a model.Account) error {
	_, err := q.db.ExecContext(ctx, `
	INSERT INTO accounts(id, code, name, type, reconcilable)
	VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Code, a.Name, string(a.Type), boolToInt(a.Reconcilable))
	if err != nil {
		return fmt.Errorf("inserting account %s: %w", a.Code, err)
	}
	return nil
}

// UpsertAccountByCode inserts a, or updates the name, type and reconcilable
// flag of the account that already holds a.Code.
func (q *Queries) UpsertAccountByCode(ctx context.Context, a model.Account) error {
	_, err := q.db.ExecContext(ctx, `
	INSERT INTO accounts(id, code, name, type, reconcilable)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(code) DO UPDATE SET
	 name=excluded.name,
	 type=excluded.type,
	 reconcilable=excluded.reconcilable`,
		a.ID, a.Code, a.Name, string(a.Type), boolToInt(a.Reconcilable))
	if err != nil {
		return fmt.Errorf("upserting account %s: %w", a.Code, err)
	}
	return nil
}

// GetAccount returns an account by id.
func (q *Queries) GetAccount(ctx context.Context, id string) (model.Account, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ledgererr.NotFoundf("account %s", id)
	}
	return a, err
}

// GetAccountByCode returns an account by its chart code.
func (q *Queries) GetAccountByCode(ctx context.Context, code string) (model.Account, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = ?`, code)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ledgererr.NotFoundf("account code %s", code)
	}
	return a, err
}

// ListAccounts returns the chart ordered by code.
func (q *Queries) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()
	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (model.Account, error) {
	var a model.Account
	var typ string
	var reconcilable int
	if err := s.Scan(&a.ID, &a.Code, &a.Name, &typ, &reconcilable); err != nil {
		return model.Account{}, err
	}
	a.Type = model.AccountType(typ)
	a.Reconcilable = reconcilable != 0
	return a, nil
}

// InsertAnalyticAccount adds a cost-center tag.
func (q *Queries) InsertAnalyticAccount(ctx context.Context, a model.AnalyticAccount) error {
	_, err := q.db.ExecContext(ctx, `
	INSERT INTO analytic_accounts(id, code, name, parent_id)
	VALUES (?, ?, ?, ?)`,
		a.ID, a.Code, a.Name, nullString(a.ParentID))
	if err != nil {
		return fmt.Errorf("inserting analytic account %s: %w", a.Code, err)
	}
	return nil
}

// GetAnalyticAccount returns an analytic account by id.
func (q *Queries) GetAnalyticAccount(ctx context.Context, id string) (model.AnalyticAccount, error) {
	row := q.db.QueryRowContext(ctx, `SELECT id, code, name, COALESCE(parent_id, '') FROM analytic_accounts WHERE id = ?`, id)
	var a model.AnalyticAccount
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.ParentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnalyticAccount{}, ledgererr.NotFoundf("analytic account %s", id)
	}
	return a, err
}

// GetAnalyticAccountByCode returns an analytic account by code.
func (q *Queries) GetAnalyticAccountByCode(ctx context.Context, code string) (model.AnalyticAccount, error) {
	row := q.db.QueryRowContext(ctx, `SELECT id, code, name, COALESCE(parent_id, '') FROM analytic_accounts WHERE code = ?`, code)
	var a model.AnalyticAccount
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.ParentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnalyticAccount{}, ledgererr.NotFoundf("analytic account code %s", code)
	}
	return a, err
}

// ListAnalyticAccounts returns all analytic accounts ordered by code.
func (q *Queries) ListAnalyticAccounts(ctx context.Context) ([]model.AnalyticAccount, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, code, name, COALESCE(parent_id, '') FROM analytic_accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing analytic accounts: %w", err)
	}
	defer rows.Close()
	var out []model.AnalyticAccount
	for rows.Next() {
		var a model.AnalyticAccount
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.ParentID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
