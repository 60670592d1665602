package accounts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

// Directory is the authoritative set of accounts and their running balances.
type Directory struct {
	store  storage.AccountStore
	logger *zap.Logger
}

// NewDirectory creates a Directory backed by store.
func NewDirectory(store storage.AccountStore, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{store: store, logger: logger.Named("accounts")}
}

// Lookup returns the account with an exact code match.
func (d *Directory) Lookup(ctx context.Context, code string) (model.Account, error) {
	acct, err := d.store.GetAccount(ctx, code)
	if err != nil {
		return model.Account{}, fmt.Errorf("looking up account %s: %w", code, err)
	}
	return acct, nil
}

// All returns every account ordered by code.
func (d *Directory) All(ctx context.Context) ([]model.Account, error) {
	accts, err := d.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accts, nil
}

// ListByClass returns all accounts of the given class.
func (d *Directory) ListByClass(ctx context.Context, class model.AccountClass) ([]model.Account, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("invalid account class %q", class)
	}
	accts, err := d.store.ListAccountsByClass(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("listing %s accounts: %w", class, err)
	}
	return accts, nil
}

// ApplyDelta adds the class-signed effect of one line to acct's stored
// balance inside the posting transaction tx.
func (d *Directory) ApplyDelta(ctx context.Context, tx storage.PostingTx, acct model.Account, debit, credit decimal.Decimal) error {
	delta := acct.Class.Delta(debit, credit)
	if delta.IsZero() {
		return nil
	}
	if err := tx.AddToBalance(ctx, acct.Code, delta); err != nil {
		return fmt.Errorf("applying %s to account %s: %w", delta.StringFixed(2), acct.Code, err)
	}
	return nil
}

// Create adds a new account with a zero balance.
func (d *Directory) Create(ctx context.Context, acct model.Account) error {
	acct.Code = strings.TrimSpace(acct.Code)
	if acct.Code == "" {
		return fmt.Errorf("account code is required")
	}
	if !acct.Class.Valid() {
		return fmt.Errorf("account %s: invalid class %q", acct.Code, acct.Class)
	}
	if acct.ParentCode == acct.Code {
		return fmt.Errorf("account %s cannot be its own parent", acct.Code)
	}
	if acct.ParentCode != "" {
		if _, err := d.store.GetAccount(ctx, acct.ParentCode); err != nil {
			return fmt.Errorf("account %s: parent %s: %w", acct.Code, acct.ParentCode, err)
		}
	}
	acct.Balance = decimal.Zero

	if err := d.store.CreateAccount(ctx, acct); err != nil {
		return fmt.Errorf("creating account %s: %w", acct.Code, err)
	}
	d.logger.Info("account created",
		zap.String("code", acct.Code),
		zap.String("class", string(acct.Class)))
	return nil
}

// Seed creates every account in chart that does not exist yet and
// returns how many were created. Existing accounts are left untouched.
func (d *Directory) Seed(ctx context.Context, chart []model.Account) (int, error) {
	created := 0
	for _, acct := range chart {
		_, err := d.store.GetAccount(ctx, acct.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return created, fmt.Errorf("seeding account %s: %w", acct.Code, err)
		}
		if err := d.Create(ctx, acct); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// LoadChart reads a chart-of-accounts CSV seed file.
func LoadChart(path string) ([]model.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return accts, nil
}

// SaveChart writes accounts as a chart-of-accounts CSV seed file.
func SaveChart(path string, accts []model.Account) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating chart dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, accts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
