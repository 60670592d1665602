// Package intake turns raw transactions from bank feeds and statement
// exports into journal entries. A Classifier picks the account; the
// ledger posts the entry and marks the raw transaction processed in the
// same storage transaction.
package intake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tuvisminds-design/fin-easy/internal/ledger"
	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

const (
	// DefaultAccount receives classifications naming unknown accounts.
	DefaultAccount = "5100"
	// DefaultCashAccount is the bank side of every generated entry.
	DefaultCashAccount = "1000"
	// DefaultSource tags raw transactions enqueued without one.
	DefaultSource = "manual"
)

// Poster is the slice of the ledger intake needs.
type Poster interface {
	Lookup(ctx context.Context, code string) (model.Account, error)
	Post(ctx context.Context, req ledger.PostRequest) (model.JournalEntry, error)
}

// Result reports the outcome for one raw transaction.
type Result struct {
	Raw            model.RawTransaction
	Classification Classification

	// AccountCode is the account actually posted to, after fallback.
	AccountCode string
	Entry       model.JournalEntry
	Err         error
}

// OK reports whether the item was posted.
func (r Result) OK() bool { return r.Err == nil }

// Service processes the raw-transaction queue.
type Service struct {
	store          storage.RawTransactionStore
	poster         Poster
	classifier     Classifier
	logger         *zap.Logger
	cashAccount    string
	defaultAccount string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAccounts overrides the cash and fallback accounts. Empty values keep
// the defaults.
func WithAccounts(cash, fallback string) Option {
	return func(s *Service) {
		if cash != "" {
			s.cashAccount = cash
		}
		if fallback != "" {
			s.defaultAccount = fallback
		}
	}
}

// NewService creates an intake Service. A nil classifier means KeywordClassifier.
func NewService(store storage.RawTransactionStore, poster Poster, classifier Classifier, opts ...Option) *Service {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	s := &Service{
		store:          store,
		poster:         poster,
		classifier:     classifier,
		logger:         zap.NewNop(),
		cashAccount:    DefaultCashAccount,
		defaultAccount: DefaultAccount,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("intake")
	return s
}

// Enqueue validates and stores one raw transaction for later processing.
func (s *Service) Enqueue(ctx context.Context, raw model.RawTransaction) (model.RawTransaction, error) {
	if raw.Date.IsZero() {
		return model.RawTransaction{}, &model.MalformedEntryError{Reason: "raw transaction has no date"}
	}
	if raw.Amount.IsZero() {
		return model.RawTransaction{}, &model.MalformedEntryError{Reason: "raw transaction amount is zero"}
	}
	if !model.HasCentPrecision(raw.Amount) {
		return model.RawTransaction{}, &model.MalformedEntryError{
			Reason: fmt.Sprintf("amount %s has more than 2 decimal places", raw.Amount),
		}
	}
	raw.Source = strings.TrimSpace(raw.Source)
	if raw.Source == "" {
		raw.Source = DefaultSource
	}

	stored, err := s.store.AddRawTransaction(ctx, raw)
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("enqueueing raw transaction: %w", err)
	}
	s.logger.Debug("raw transaction enqueued",
		zap.Int64("id", stored.ID),
		zap.String("source", stored.Source),
		zap.String("amount", stored.Amount.StringFixed(2)))
	return stored, nil
}

// ImportFile parses path with p and enqueues every transaction. It stops
// at the first enqueue failure and returns how many were stored.
func (s *Service) ImportFile(ctx context.Context, p Parser, path, source string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if source == "" {
		source = p.Format()
	}
	txns, err := p.Parse(f, source)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	n := 0
	for _, t := range txns {
		if t.Amount.IsZero() {
			continue
		}
		if _, err := s.Enqueue(ctx, t); err != nil {
			return n, err
		}
		n++
	}
	s.logger.Info("file imported", zap.String("path", path), zap.Int("transactions", n))
	return n, nil
}

// ProcessPending classifies and posts up to limit pending raw
// transactions (all when limit <= 0). One item's failure is reported in
// its Result and does not stop the batch; failed items stay pending.
func (s *Service) ProcessPending(ctx context.Context, limit int) ([]Result, error) {
	pending, err := s.store.ListPendingRawTransactions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending raw transactions: %w", err)
	}

	results := make([]Result, 0, len(pending))
	posted := 0
	for _, raw := range pending {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.process(ctx, raw)
		if res.OK() {
			posted++
		} else {
			s.logger.Warn("raw transaction not posted",
				zap.Int64("id", raw.ID),
				zap.Error(res.Err))
		}
		results = append(results, res)
	}

	s.logger.Info("pending raw transactions processed",
		zap.Int("seen", len(pending)),
		zap.Int("posted", posted))
	return results, nil
}

func (s *Service) process(ctx context.Context, raw model.RawTransaction) Result {
	res := Result{Raw: raw}

	cls, err := s.classifier.Classify(ctx, raw)
	if err != nil {
		res.Err = fmt.Errorf("classifying raw transaction %d: %w", raw.ID, err)
		return res
	}
	res.Classification = cls

	acct, err := s.poster.Lookup(ctx, cls.AccountCode)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("classified account not found, using default",
			zap.String("account", cls.AccountCode),
			zap.String("default", s.defaultAccount))
		acct, err = s.poster.Lookup(ctx, s.defaultAccount)
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.AccountCode = acct.Code

	category := cls.Category
	if category == "" {
		category = "Transaction"
	}
	entry, err := s.poster.Post(ctx, ledger.PostRequest{
		Date:             raw.Date,
		Description:      fmt.Sprintf("%s: %s", category, raw.Description),
		Reference:        "Auto-generated from " + raw.Source,
		Lines:            s.proposal(raw, acct),
		RawTransactionID: raw.ID,
		RawAccountCode:   acct.Code,
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Entry = entry
	return res
}

// proposal builds the two-line entry. Money in to a revenue account
// debits cash; everything else debits the classified account and
// credits cash.
func (s *Service) proposal(raw model.RawTransaction, acct model.Account) []ledger.LineInput {
	amount := raw.Amount.Abs()
	if raw.Amount.IsPositive() && acct.Class == model.ClassRevenue {
		return []ledger.LineInput{
			{AccountCode: s.cashAccount, Debit: amount, Credit: decimal.Zero, Description: "Payment received: " + raw.Description},
			{AccountCode: acct.Code, Debit: decimal.Zero, Credit: amount, Description: raw.Description},
		}
	}
	return []ledger.LineInput{
		{AccountCode: acct.Code, Debit: amount, Credit: decimal.Zero, Description: raw.Description},
		{AccountCode: s.cashAccount, Debit: decimal.Zero, Credit: amount, Description: "Payment: " + raw.Description},
	}
}
