package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// Account is a node in the chart of accounts. Code is the stable lookup key
// ("1200", "4000"); ID is the storage identity referenced by journal lines.
type Account struct {
	ID           string
	Code         string
	Name         string
	Type         AccountType
	Reconcilable bool
}

// AnalyticAccount is a cost-center tag. It carries no balance of its own.
type AnalyticAccount struct {
	ID       string
	Code     string
	Name     string
	ParentID string // "" = top-level
	Children []AnalyticAccount
}
