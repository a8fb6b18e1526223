package accounts

import "github.com/spendiq/spendiq/internal/model"

// DefaultChart returns the chart seeded by init. It holds every code the
// default system account table refers to.
func DefaultChart() []model.Account {
	return []model.Account{
		{Code: "1010", Name: "Bank", Type: model.AccountTypeAsset, Reconcilable: true},
		{Code: "1020", Name: "Savings", Type: model.AccountTypeAsset, Reconcilable: true},
		{Code: "1200", Name: "Accounts Receivable", Type: model.AccountTypeAsset, Reconcilable: true},
		{Code: "2100", Name: "Accounts Payable", Type: model.AccountTypeLiability, Reconcilable: true},
		{Code: "2200", Name: "Credit Card", Type: model.AccountTypeLiability},
		{Code: "3000", Name: "Owner's Equity", Type: model.AccountTypeEquity},
		{Code: "4000", Name: "Sales", Type: model.AccountTypeIncome},
		{Code: "4100", Name: "Service Revenue", Type: model.AccountTypeIncome},
		{Code: "5000", Name: "Purchases", Type: model.AccountTypeExpense},
		{Code: "5100", Name: "Advertising & Marketing", Type: model.AccountTypeExpense},
		{Code: "5200", Name: "Software & SaaS", Type: model.AccountTypeExpense},
		{Code: "5300", Name: "Professional Services", Type: model.AccountTypeExpense},
	}
}
