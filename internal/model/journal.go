package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a committed, immutable double-entry posting.
type JournalEntry struct {
	ID          int64
	Number      string    // "JE-YYYYMMDD-NNN"
	Date        time.Time //nolint:revive // plain field name is clearest
	Description string
	Reference   string
	Lines       []TransactionLine
	CreatedAt   time.Time
}

// Totals sums the debit and credit sides of the entry's lines.
func (e JournalEntry) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// TransactionLine is one account movement inside a journal entry.
type TransactionLine struct {
	ID          int64
	EntryID     int64
	LineNo      int
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Net returns debit minus credit.
func (l TransactionLine) Net() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// Conventional reports whether exactly one of debit/credit is nonzero.
func (l TransactionLine) Conventional() bool {
	return l.Debit.IsZero() != l.Credit.IsZero()
}

// PostedLine is a general-ledger row: a line plus its entry header.
type PostedLine struct {
	TransactionLine
	EntryNumber      string
	EntryDate        time.Time
	EntryDescription string
	Reference        string
}
