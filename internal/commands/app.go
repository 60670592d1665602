package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tuvisminds-design/fin-easy/internal/accounts"
	"github.com/tuvisminds-design/fin-easy/internal/config"
	"github.com/tuvisminds-design/fin-easy/internal/events"
	"github.com/tuvisminds-design/fin-easy/internal/events/kafka"
	"github.com/tuvisminds-design/fin-easy/internal/intake"
	"github.com/tuvisminds-design/fin-easy/internal/ledger"
	"github.com/tuvisminds-design/fin-easy/internal/logging"
	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/monitor"
	"github.com/tuvisminds-design/fin-easy/internal/storage/sqlstore"
)

type rootOptions struct {
	dir        string
	configPath string
	envFile    string
}

func (o *rootOptions) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return filepath.Join(o.dir, config.FileName)
}

// app is the wired service graph for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *sqlstore.Store
	publisher events.Publisher
	accounts  *accounts.Directory
	ledger    *ledger.Service
	monitor   *monitor.Service
	intake    *intake.Service
}

func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.resolveConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no %s in %s: run `fineasy init` first", config.FileName, opts.dir)
		}
		return nil, err
	}
	if err := cfg.ApplyEnv(opts.envFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return wire(ctx, cfg, opts.dir)
}

func wire(ctx context.Context, cfg *config.Config, dir string) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	store, err := sqlstore.Open(ctx, databaseURL(cfg.Database.URL, dir))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Events.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic)
	}

	tolerance, err := cfg.Monitor.ToleranceDecimal()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	dirSvc := accounts.NewDirectory(store, logger)
	led := ledger.NewService(store, dirSvc,
		ledger.WithLogger(logger),
		ledger.WithPublisher(publisher),
		ledger.WithAdjustmentAccounts(cfg.Adjustments.RetainedEarnings, cfg.Adjustments.Cash),
	)
	mon := monitor.NewService(led, store, monitor.Config{
		KeyAccounts:       cfg.Monitor.KeyAccounts,
		Tolerance:         tolerance,
		AnomalyWindowDays: cfg.Monitor.AnomalyWindowDays,
		ZScoreThreshold:   cfg.Monitor.ZScoreThreshold,
		Concurrency:       cfg.Monitor.Concurrency,
	}, monitor.WithLogger(logger))
	in := intake.NewService(store, led, nil,
		intake.WithLogger(logger),
		intake.WithAccounts(cfg.Intake.CashAccount, cfg.Intake.DefaultAccount),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		publisher: publisher,
		accounts:  dirSvc,
		ledger:    led,
		monitor:   mon,
		intake:    in,
	}, nil
}

func (a *app) Close() error {
	_ = a.logger.Sync()
	return errors.Join(a.publisher.Close(), a.store.Close())
}

// databaseURL resolves relative SQLite paths against the project dir.
func databaseURL(raw, dir string) string {
	if strings.Contains(raw, "://") || raw == ":memory:" || filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(dir, raw)
}

// parseDate accepts YYYY-MM-DD; empty means the zero time (today downstream).
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}
