// Package storetest opens throwaway databases for package tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spendiq/spendiq/internal/id"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
)

// Open returns a migrated store in t.TempDir(), closed on cleanup.
func Open(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "spendiq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// Chart is the minimal chart of accounts used across package tests.
var Chart = []model.Account{
	{Code: "1010", Name: "Bank", Type: model.AccountTypeAsset, Reconcilable: true},
	{Code: "1200", Name: "Accounts Receivable", Type: model.AccountTypeAsset, Reconcilable: true},
	{Code: "2100", Name: "Accounts Payable", Type: model.AccountTypeLiability, Reconcilable: true},
	{Code: "4000", Name: "Sales", Type: model.AccountTypeIncome},
	{Code: "5000", Name: "Purchases", Type: model.AccountTypeExpense},
}

// SeedAccounts inserts accounts and returns their ids keyed by code.
func SeedAccounts(t *testing.T, st *store.Store, accounts ...model.Account) map[string]string {
	t.Helper()
	ids := make(map[string]string, len(accounts))
	for _, a := range accounts {
		a.ID = id.New()
		require.NoError(t, st.Queries().InsertAccount(context.Background(), a))
		ids[a.Code] = a.ID
	}
	return ids
}

// SeedAnalytic inserts an analytic account and returns its id.
func SeedAnalytic(t *testing.T, st *store.Store, code, name string) string {
	t.Helper()
	a := model.AnalyticAccount{ID: id.New(), Code: code, Name: name}
	require.NoError(t, st.Queries().InsertAnalyticAccount(context.Background(), a))
	return a.ID
}
