package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tuvisminds-design/fin-easy/internal/id"
	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// AdjustingReference is stamped on entries created by Adjust.
const AdjustingReference = "Adjusting Entry"

// Side selects which column an adjustment hits on the target account.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// AdjustRequest holds parameters for an adjusting entry.
type AdjustRequest struct {
	Date        time.Time
	Description string
	AccountCode string
	Amount      decimal.Decimal
	Side        Side
}

// Adjust posts a two-line adjusting entry against an offset account:
// retained earnings for debit-normal classes, cash otherwise.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (model.JournalEntry, error) {
	if !req.Amount.IsPositive() {
		return model.JournalEntry{}, &model.MalformedEntryError{Reason: fmt.Sprintf("adjustment amount must be positive, got %s", req.Amount)}
	}
	if req.Side != SideDebit && req.Side != SideCredit {
		return model.JournalEntry{}, &model.MalformedEntryError{Reason: fmt.Sprintf("adjustment side must be debit or credit, got %q", req.Side)}
	}

	acct, err := s.accounts.Lookup(ctx, req.AccountCode)
	if err != nil {
		return model.JournalEntry{}, err
	}
	offset := s.cash
	if acct.Class.DebitNormal() {
		offset = s.retainedEarnings
	}

	target := LineInput{AccountCode: acct.Code, Description: req.Description}
	counter := LineInput{AccountCode: offset, Description: "Adjustment: " + req.Description}
	if req.Side == SideDebit {
		target.Debit, counter.Credit = req.Amount, req.Amount
	} else {
		target.Credit, counter.Debit = req.Amount, req.Amount
	}

	return s.Post(ctx, PostRequest{
		Date:        req.Date,
		Description: req.Description,
		Reference:   AdjustingReference,
		Lines:       []LineInput{target, counter},
	})
}

// Reverse posts the mirror image of a committed entry, swapping every
// line's debit and credit. An entry can be reversed only once; the check
// runs inside the posting transaction.
func (s *Service) Reverse(ctx context.Context, number string, date time.Time, description string) (model.JournalEntry, error) {
	unlock := s.reversalLocks.lock(number)
	defer unlock()

	orig, err := s.store.GetEntry(ctx, number)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("reading entry %s: %w", number, err)
	}

	if description == "" {
		description = "Reversal of " + number
	}
	lines := make([]LineInput, 0, len(orig.Lines))
	for _, l := range orig.Lines {
		lines = append(lines, LineInput{
			AccountCode: l.AccountCode,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
		})
	}

	return s.Post(ctx, PostRequest{
		Date:        date,
		Description: description,
		Reference:   id.ReversalReference(number),
		Lines:       lines,
		Reverses:    number,
	})
}
