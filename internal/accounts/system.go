package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
)

// Role names a system account the posting engine needs.
type Role string

const (
	RoleReceivable Role = "receivable"
	RolePayable    Role = "payable"
	RoleSales      Role = "sales"
	RoleExpense    Role = "expense"
	RoleBank       Role = "bank"
)

// SystemAccounts maps each role to an account code in the chart.
type SystemAccounts map[Role]string

// DefaultSystemAccounts matches DefaultChart.
func DefaultSystemAccounts() SystemAccounts {
	return SystemAccounts{
		RoleReceivable: "1200",
		RolePayable:    "2100",
		RoleSales:      "4000",
		RoleExpense:    "5000",
		RoleBank:       "1010",
	}
}

// SystemAccountsFrom overlays configured role codes on the defaults. Unknown
// roles are ignored.
func SystemAccountsFrom(configured map[string]string) SystemAccounts {
	sa := DefaultSystemAccounts()
	for role, code := range configured {
		r := Role(strings.ToLower(role))
		if _, known := sa[r]; known && code != "" {
			sa[r] = code
		}
	}
	return sa
}

// MissingSystemAccountError lists the system account codes absent from the chart.
type MissingSystemAccountError struct {
	Codes []string
}

func (e *MissingSystemAccountError) Error() string {
	return fmt.Sprintf("system accounts not configured: %s", strings.Join(e.Codes, ", "))
}

func (e *MissingSystemAccountError) Unwrap() error {
	return ledgererr.ErrMissingSystemAccount
}

// Resolve looks up the accounts for roles. Every missing code is reported in
// a single *MissingSystemAccountError.
func (sa SystemAccounts) Resolve(ctx context.Context, q *store.Queries, roles ...Role) (map[Role]model.Account, error) {
	out := make(map[Role]model.Account, len(roles))
	var missing []string
	for _, r := range roles {
		code, ok := sa[r]
		if !ok || code == "" {
			missing = append(missing, string(r))
			continue
		}
		a, err := q.GetAccountByCode(ctx, code)
		if errors.Is(err, ledgererr.ErrNotFound) {
			missing = append(missing, code)
			continue
		}
		if err != nil {
			return nil, err
		}
		out[r] = a
	}
	if len(missing) > 0 {
		return nil, &MissingSystemAccountError{Codes: missing}
	}
	return out, nil
}
