package monitor

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// SweepResult collects one sweep's outcomes.
type SweepResult struct {
	Balances    []BalanceResult
	Anomalies   []AnomalyResult
	DoubleEntry DoubleEntryResult

	// Missing lists requested accounts absent from the directory.
	Missing []string
}

// Status is the worst status across all checks: fail, then warning, then pass.
func (r SweepResult) Status() model.CheckStatus {
	worst := r.DoubleEntry.Status
	rank := map[model.CheckStatus]int{model.StatusPass: 0, model.StatusWarning: 1, model.StatusFail: 2}
	for _, b := range r.Balances {
		if rank[b.Status] > rank[worst] {
			worst = b.Status
		}
	}
	for _, a := range r.Anomalies {
		if rank[a.Status] > rank[worst] {
			worst = a.Status
		}
	}
	return worst
}

// Sweep runs a balance check and an anomaly check for each code (the
// configured key accounts when codes is empty), then one double-entry
// check. Per-account audits run concurrently.
func (s *Service) Sweep(ctx context.Context, codes []string) (SweepResult, error) {
	if len(codes) == 0 {
		codes = s.cfg.KeyAccounts
	}

	balances := make([]*BalanceResult, len(codes))
	anomalies := make([]*AnomalyResult, len(codes))
	var (
		mu      sync.Mutex
		missing []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			b, err := s.CheckBalance(gctx, code)
			if errors.Is(err, model.ErrNotFound) {
				s.logger.Warn("key account missing", zap.String("account", code))
				mu.Lock()
				missing = append(missing, code)
				mu.Unlock()
				return nil
			}
			if err != nil {
				return err
			}
			a, err := s.DetectAnomalies(gctx, code, 0)
			if err != nil {
				return err
			}
			balances[i], anomalies[i] = &b, &a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SweepResult{}, err
	}

	var res SweepResult
	for i := range codes {
		if balances[i] != nil {
			res.Balances = append(res.Balances, *balances[i])
			res.Anomalies = append(res.Anomalies, *anomalies[i])
		}
	}
	res.Missing = missing

	de, err := s.VerifyDoubleEntry(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	res.DoubleEntry = de

	s.logger.Info("sweep finished",
		zap.Int("accounts", len(res.Balances)),
		zap.Strings("missing", res.Missing),
		zap.String("status", string(res.Status())))
	return res, nil
}
