// Package monitor audits the ledger: it recomputes balances from history,
// looks for statistical outliers and duplicates, and verifies that every
// journal entry balances. Every audit appends one AccountCheck.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

// Source answers account and derived-balance queries; ledger.Service
// implements it.
type Source interface {
	Lookup(ctx context.Context, code string) (model.Account, error)
	BalanceFromHistory(ctx context.Context, code string) (decimal.Decimal, error)
}

// Store is the read side of the journal plus the audit log.
type Store interface {
	ListLines(ctx context.Context, filter storage.LineFilter) ([]model.PostedLine, error)
	ListEntries(ctx context.Context, filter storage.EntryFilter) ([]model.JournalEntry, error)
	RecordCheck(ctx context.Context, check model.AccountCheck) (model.AccountCheck, error)
	ListChecks(ctx context.Context, accountCode string, limit int) ([]model.AccountCheck, error)
}

// Config tunes the audits.
type Config struct {
	KeyAccounts       []string
	Tolerance         decimal.Decimal
	AnomalyWindowDays int
	ZScoreThreshold   float64
	Concurrency       int
}

// DefaultConfig mirrors the defaults of fineasy.yaml.
func DefaultConfig() Config {
	return Config{
		KeyAccounts:       []string{"1000", "1100", "2000", "1200", "4000", "5100"},
		Tolerance:         decimal.New(1, -2),
		AnomalyWindowDays: 30,
		ZScoreThreshold:   2,
		Concurrency:       4,
	}
}

// DefaultHistoryLimit is used by History when limit <= 0.
const DefaultHistoryLimit = 10

// Service runs integrity audits.
type Service struct {
	source Source
	store  Store
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
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

// WithClock overrides time.Now; "today" for windows and check dates
// comes from it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a monitor Service. Zero config fields take defaults.
func NewService(source Source, store Store, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if len(cfg.KeyAccounts) == 0 {
		cfg.KeyAccounts = def.KeyAccounts
	}
	if !cfg.Tolerance.IsPositive() {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.AnomalyWindowDays <= 0 {
		cfg.AnomalyWindowDays = def.AnomalyWindowDays
	}
	if cfg.ZScoreThreshold <= 0 {
		cfg.ZScoreThreshold = def.ZScoreThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}

	s := &Service{source: source, store: store, cfg: cfg, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("monitor")
	return s
}

func (s *Service) today() time.Time {
	return model.Day(s.now())
}

// record persists one audit outcome.
func (s *Service) record(ctx context.Context, code string, kind model.CheckKind, status model.CheckStatus, details any) (model.AccountCheck, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return model.AccountCheck{}, fmt.Errorf("encoding %s check details: %w", kind, err)
	}
	check, err := s.store.RecordCheck(ctx, model.AccountCheck{
		AccountCode: code,
		CheckDate:   s.today(),
		Kind:        kind,
		Status:      status,
		Details:     raw,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return model.AccountCheck{}, fmt.Errorf("recording %s check: %w", kind, err)
	}

	s.logger.Info("check recorded",
		zap.String("kind", string(kind)),
		zap.String("account", code),
		zap.String("status", string(status)))
	return check, nil
}

// History returns the most recent checks for an account, newest first.
func (s *Service) History(ctx context.Context, code string, limit int) ([]model.AccountCheck, error) {
	if _, err := s.source.Lookup(ctx, code); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	checks, err := s.store.ListChecks(ctx, code, limit)
	if err != nil {
		return nil, fmt.Errorf("reading check history of %s: %w", code, err)
	}
	return checks, nil
}
