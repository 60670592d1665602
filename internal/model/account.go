package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountClass classifies accounts in the chart of accounts.
type AccountClass string

const (
	ClassAsset     AccountClass = "Asset"
	ClassLiability AccountClass = "Liability"
	ClassEquity    AccountClass = "Equity"
	ClassRevenue   AccountClass = "Revenue"
	ClassExpense   AccountClass = "Expense"
)

// Classes lists every account class in chart order.
var Classes = []AccountClass{ClassAsset, ClassLiability, ClassEquity, ClassRevenue, ClassExpense}

// Valid reports whether c is one of the five account classes.
func (c AccountClass) Valid() bool {
	switch c {
	case ClassAsset, ClassLiability, ClassEquity, ClassRevenue, ClassExpense:
		return true
	}
	return false
}

// DebitNormal reports whether debits increase balances of this class.
func (c AccountClass) DebitNormal() bool {
	return c == ClassAsset || c == ClassExpense
}

// Delta returns the balance change a line with the given debit and credit
// causes on an account of this class. It is the only place the sign
// convention lives: posting and history recomputation both call it.
func (c AccountClass) Delta(debit, credit decimal.Decimal) decimal.Decimal {
	if c.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Account is one ledger account with its cached running balance.
type Account struct {
	Code       string
	Name       string
	Class      AccountClass
	ParentCode string // "" = top-level
	Balance    decimal.Decimal
	CreatedAt  time.Time
}
