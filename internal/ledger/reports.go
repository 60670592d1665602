package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

// TrialBalanceRow is one non-zero account in a trial balance.
type TrialBalanceRow struct {
	Code   string
	Name   string
	Class  model.AccountClass
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// TrialBalance lists cached balances in debit/credit columns.
type TrialBalance struct {
	Rows         []TrialBalanceRow
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// Balanced reports whether the debit and credit columns agree.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebits.Equal(tb.TotalCredits)
}

// TrialBalance builds a trial balance from the cached account balances.
// A positive balance sits in the class's normal column; a negative one
// moves to the opposite column.
func (s *Service) TrialBalance(ctx context.Context) (TrialBalance, error) {
	accts, err := s.accounts.All(ctx)
	if err != nil {
		return TrialBalance{}, err
	}

	tb := TrialBalance{TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}
	for _, a := range accts {
		if a.Balance.IsZero() {
			continue
		}
		row := TrialBalanceRow{Code: a.Code, Name: a.Name, Class: a.Class, Debit: decimal.Zero, Credit: decimal.Zero}
		normal := a.Balance.IsPositive()
		if a.Class.DebitNormal() == normal {
			row.Debit = a.Balance.Abs()
		} else {
			row.Credit = a.Balance.Abs()
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebits = tb.TotalDebits.Add(row.Debit)
		tb.TotalCredits = tb.TotalCredits.Add(row.Credit)
	}
	return tb, nil
}

// GeneralLedger returns posted lines matching filter, ordered by entry
// date, entry number and line number.
func (s *Service) GeneralLedger(ctx context.Context, filter storage.LineFilter) ([]model.PostedLine, error) {
	if filter.AccountCode != "" {
		if _, err := s.accounts.Lookup(ctx, filter.AccountCode); err != nil {
			return nil, err
		}
	}
	lines, err := s.store.ListLines(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("reading general ledger: %w", err)
	}
	return lines, nil
}
