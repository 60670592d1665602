package accounts

import "github.com/tuvisminds-design/fin-easy/internal/model"

// DefaultChart returns the standard small-business chart of accounts.
func DefaultChart() []model.Account {
	return []model.Account{
		{Code: "1000", Name: "Cash", Class: model.ClassAsset},
		{Code: "1100", Name: "Accounts Receivable", Class: model.ClassAsset},
		{Code: "1200", Name: "Inventory", Class: model.ClassAsset},
		{Code: "1300", Name: "Prepaid Expenses", Class: model.ClassAsset},
		{Code: "1400", Name: "Property, Plant & Equipment", Class: model.ClassAsset},
		{Code: "2000", Name: "Accounts Payable", Class: model.ClassLiability},
		{Code: "2100", Name: "Accrued Expenses", Class: model.ClassLiability},
		{Code: "2200", Name: "Short-term Debt", Class: model.ClassLiability},
		{Code: "2300", Name: "Long-term Debt", Class: model.ClassLiability},
		{Code: "3000", Name: "Owner's Equity", Class: model.ClassEquity},
		{Code: "3100", Name: "Retained Earnings", Class: model.ClassEquity},
		{Code: "4000", Name: "Sales Revenue", Class: model.ClassRevenue},
		{Code: "4100", Name: "Service Revenue", Class: model.ClassRevenue},
		{Code: "4200", Name: "Other Income", Class: model.ClassRevenue},
		{Code: "5000", Name: "Cost of Goods Sold", Class: model.ClassExpense},
		{Code: "5100", Name: "Operating Expenses", Class: model.ClassExpense},
		{Code: "5200", Name: "Salaries & Wages", Class: model.ClassExpense},
		{Code: "5300", Name: "Rent Expense", Class: model.ClassExpense},
		{Code: "5400", Name: "Utilities Expense", Class: model.ClassExpense},
		{Code: "5500", Name: "Marketing Expense", Class: model.ClassExpense},
		{Code: "5600", Name: "Depreciation Expense", Class: model.ClassExpense},
	}
}
