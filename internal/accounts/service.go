// Package accounts manages the chart of accounts and the system account table.
package accounts

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spendiq/spendiq/internal/id"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
)

// Service reads and maintains the chart of accounts in the store.
type Service struct {
	store store.Transactor
	log   *slog.Logger
}

// NewService creates an accounts Service.
func NewService(st store.Transactor, logger *slog.Logger) *Service {
	return &Service{store: st, log: logger}
}

// All returns the chart ordered by code.
func (s *Service) All(ctx context.Context) ([]model.Account, error) {
	return s.store.Queries().ListAccounts(ctx)
}

// ByCode returns the account holding code.
func (s *Service) ByCode(ctx context.Context, code string) (model.Account, error) {
	return s.store.Queries().GetAccountByCode(ctx, code)
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(ctx context.Context, accountType model.AccountType) ([]model.Account, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var result []model.Account
	for _, a := range all {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result, nil
}

// Seed upserts accounts by code in one transaction. Existing accounts keep
// their id so posted lines stay attached.
func (s *Service) Seed(ctx context.Context, accounts []model.Account) error {
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		for _, a := range accounts {
			if !a.Type.Valid() {
				return fmt.Errorf("account %s: unknown type %q", a.Code, a.Type)
			}
			if a.ID == "" {
				a.ID = id.New()
			}
			if err := q.UpsertAccountByCode(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("chart of accounts seeded", "accounts", len(accounts))
	return nil
}

// Import reads a chart-of-accounts CSV and seeds it.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	accts, err := ReadAccounts(r)
	if err != nil {
		return 0, err
	}
	if err := s.Seed(ctx, accts); err != nil {
		return 0, err
	}
	return len(accts), nil
}

// Export writes the chart as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	accts, err := s.All(ctx)
	if err != nil {
		return err
	}
	return WriteAccounts(w, accts)
}
