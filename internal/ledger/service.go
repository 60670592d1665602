// Package ledger posts balanced journal entries and answers balance and
// journal queries.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tuvisminds-design/fin-easy/internal/accounts"
	"github.com/tuvisminds-design/fin-easy/internal/events"
	"github.com/tuvisminds-design/fin-easy/internal/id"
	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

// LineInput is one requested line of a posting.
type LineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// PostRequest holds parameters for posting a journal entry.
type PostRequest struct {
	Date        time.Time // zero = today
	Description string
	Reference   string
	Lines       []LineInput

	// RawTransactionID, when set, marks that raw transaction processed and
	// links it to the new entry in the same transaction.
	RawTransactionID int64
	RawAccountCode   string

	// Reverses names the entry this one reverses. The commit fails if
	// that entry already has a reversal.
	Reverses string
}

// Service provides business logic for journal entries.
type Service struct {
	store     storage.Store
	accounts  *accounts.Directory
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time

	retainedEarnings string
	cash             string

	dayLocks      *keyedLocks
	accountLocks  *keyedLocks
	reversalLocks *keyedLocks
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where EntryPosted events go after commit.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAdjustmentAccounts sets the offset accounts used by Adjust.
func WithAdjustmentAccounts(retainedEarnings, cash string) Option {
	return func(s *Service) {
		s.retainedEarnings = retainedEarnings
		s.cash = cash
	}
}

// NewService creates a ledger Service.
func NewService(store storage.Store, dir *accounts.Directory, opts ...Option) *Service {
	s := &Service{
		store:            store,
		accounts:         dir,
		publisher:        events.Nop{},
		logger:           zap.NewNop(),
		now:              time.Now,
		retainedEarnings: "3100",
		cash:             "1000",
		dayLocks:         newKeyedLocks(),
		accountLocks:     newKeyedLocks(),
		reversalLocks:    newKeyedLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("ledger")
	return s
}

// Post validates and commits a journal entry, updating every touched
// account balance in the same transaction.
func (s *Service) Post(ctx context.Context, req PostRequest) (model.JournalEntry, error) {
	lines, err := ValidateLines(req.Lines)
	if err != nil {
		return model.JournalEntry{}, err
	}
	if odd := unconventionalLines(lines); len(odd) > 0 {
		s.logger.Warn("unconventional lines: expected exactly one of debit or credit",
			zap.Ints("lines", odd),
			zap.String("description", req.Description))
	}

	day := model.Day(req.Date)
	if req.Date.IsZero() {
		day = model.Day(s.now())
	}

	entry, err := s.commit(ctx, day, req, lines)
	if err != nil {
		return model.JournalEntry{}, err
	}

	debits, _ := entry.Totals()
	s.logger.Info("entry posted",
		zap.String("number", entry.Number),
		zap.String("date", entry.Date.Format(model.DateFormat)),
		zap.Int("lines", len(entry.Lines)),
		zap.String("total", debits.StringFixed(2)))

	if err := s.publisher.PublishEntryPosted(ctx, events.NewEntryPosted(entry, s.now())); err != nil {
		s.logger.Warn("publishing entry posted event failed",
			zap.String("number", entry.Number),
			zap.Error(err))
	}
	return entry, nil
}

func (s *Service) commit(ctx context.Context, day time.Time, req PostRequest, lines []model.TransactionLine) (model.JournalEntry, error) {
	codes := accountCodes(lines)

	unlockDay := s.dayLocks.lock(day.Format(model.DateFormat))
	defer unlockDay()
	unlockAccounts := s.accountLocks.lock(codes...)
	defer unlockAccounts()

	var entry model.JournalEntry
	err := s.store.InTx(ctx, func(tx storage.PostingTx) error {
		accts := make(map[string]model.Account, len(codes))
		var missing []string
		for _, code := range codes {
			acct, err := tx.GetAccount(ctx, code)
			if errors.Is(err, model.ErrNotFound) {
				missing = append(missing, code)
				continue
			}
			if err != nil {
				return err
			}
			accts[code] = acct
		}
		if len(missing) > 0 {
			return &model.UnknownAccountError{Codes: missing}
		}

		if req.Reverses != "" {
			by, err := tx.ReversedBy(ctx, req.Reverses)
			if err != nil {
				return err
			}
			if by != "" {
				return &model.MalformedEntryError{
					Reason: fmt.Sprintf("entry %s already reversed by %s", req.Reverses, by),
				}
			}
		}

		seq, err := tx.NextEntrySeq(ctx, day)
		if err != nil {
			return err
		}

		entry = model.JournalEntry{
			Number:      id.FormatEntryNumber(day, seq),
			Date:        day,
			Description: req.Description,
			Reference:   req.Reference,
			Lines:       append([]model.TransactionLine(nil), lines...),
			CreatedAt:   s.now(),
		}
		if err := tx.InsertEntry(ctx, &entry); err != nil {
			return err
		}

		for _, l := range entry.Lines {
			if err := s.accounts.ApplyDelta(ctx, tx, accts[l.AccountCode], l.Debit, l.Credit); err != nil {
				return err
			}
		}

		if req.RawTransactionID != 0 {
			if err := tx.MarkRawTransactionPosted(ctx, req.RawTransactionID, entry.ID, req.RawAccountCode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if model.IsValidation(err) {
			return model.JournalEntry{}, err
		}
		return model.JournalEntry{}, fmt.Errorf("posting entry: %w", err)
	}
	return entry, nil
}

// Entry returns one committed entry by number.
func (s *Service) Entry(ctx context.Context, number string) (model.JournalEntry, error) {
	entry, err := s.store.GetEntry(ctx, number)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("reading entry %s: %w", number, err)
	}
	return entry, nil
}

// Lookup returns an account snapshot.
func (s *Service) Lookup(ctx context.Context, code string) (model.Account, error) {
	return s.accounts.Lookup(ctx, code)
}

// Balance returns the cached running balance of an account.
func (s *Service) Balance(ctx context.Context, code string) (decimal.Decimal, error) {
	acct, err := s.accounts.Lookup(ctx, code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return acct.Balance, nil
}

// BalanceFromHistory recomputes an account's balance from every line ever
// posted to it, independent of the cached value.
func (s *Service) BalanceFromHistory(ctx context.Context, code string) (decimal.Decimal, error) {
	acct, err := s.accounts.Lookup(ctx, code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	lines, err := s.store.ListLines(ctx, storage.LineFilter{AccountCode: code})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("reading history of %s: %w", code, err)
	}
	return FoldBalance(acct.Class, lines), nil
}

// FoldBalance sums the class-signed effect of lines.
func FoldBalance(class model.AccountClass, lines []model.PostedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(class.Delta(l.Debit, l.Credit))
	}
	return total
}
