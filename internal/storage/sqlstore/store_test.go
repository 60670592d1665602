package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuvisminds-design/fin-easy/internal/id"
	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// openTestStore opens a fresh SQLite store in a temp dir.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "fineasy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedAccounts(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, acct := range []model.Account{
		{Code: "1000", Name: "Cash", Class: model.ClassAsset},
		{Code: "1010", Name: "Petty Cash", Class: model.ClassAsset, ParentCode: "1000"},
		{Code: "4000", Name: "Sales Revenue", Class: model.ClassRevenue},
		{Code: "5100", Name: "Operating Expenses", Class: model.ClassExpense},
	} {
		require.NoError(t, s.CreateAccount(ctx, acct))
	}
}

func postSale(t *testing.T, s *Store, d time.Time, amount string) model.JournalEntry {
	t.Helper()
	var entry model.JournalEntry
	err := s.InTx(context.Background(), func(tx storage.PostingTx) error {
		seq, err := tx.NextEntrySeq(context.Background(), d)
		if err != nil {
			return err
		}
		entry = model.JournalEntry{
			Number:      id.FormatEntryNumber(d, seq),
			Date:        d,
			Description: "sale",
			Lines: []model.TransactionLine{
				{AccountCode: "1000", Debit: dec(amount)},
				{AccountCode: "4000", Credit: dec(amount)},
			},
		}
		if err := tx.InsertEntry(context.Background(), &entry); err != nil {
			return err
		}
		if err := tx.AddToBalance(context.Background(), "1000", dec(amount)); err != nil {
			return err
		}
		return tx.AddToBalance(context.Background(), "4000", dec(amount))
	})
	require.NoError(t, err)
	return entry
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw     string
		dialect Dialect
		prefix  string
	}{
		{"postgres://u:p@localhost/fineasy?sslmode=disable", Postgres, "postgres://"},
		{"postgresql://localhost/fineasy", Postgres, "postgresql://"},
		{"sqlite:///var/lib/fineasy.db", SQLite, "/var/lib/fineasy.db?"},
		{"sqlite://fineasy.db", SQLite, "fineasy.db?"},
		{"fineasy.db", SQLite, "fineasy.db?"},
		{":memory:", SQLite, "file::memory:?"},
	}
	for _, tt := range tests {
		d, dsn, err := ParseURL(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.dialect, d, tt.raw)
		assert.Contains(t, dsn, tt.prefix, tt.raw)
		if d == SQLite {
			assert.Contains(t, dsn, "_txlock=immediate")
		}
	}

	for _, bad := range []string{"", "  ", "mysql://x", "sqlite://"} {
		_, _, err := ParseURL(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT 1 FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, "SELECT 1 FROM t WHERE a = $1 AND b = $2", Postgres.rebind(q))
}

func TestExtractUpMigration(t *testing.T) {
	got := extractUpMigration("-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n")
	assert.Contains(t, got, "CREATE TABLE a")
	assert.NotContains(t, got, "DROP TABLE")
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fineasy.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestAccounts(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()

	acct, err := s.GetAccount(ctx, "1010")
	require.NoError(t, err)
	assert.Equal(t, "Petty Cash", acct.Name)
	assert.Equal(t, model.ClassAsset, acct.Class)
	assert.Equal(t, "1000", acct.ParentCode)
	assert.True(t, acct.Balance.IsZero())

	_, err = s.GetAccount(ctx, "9999")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "1000", all[0].Code)

	assets, err := s.ListAccountsByClass(ctx, model.ClassAsset)
	require.NoError(t, err)
	assert.Len(t, assets, 2)

	err = s.CreateAccount(ctx, model.Account{Code: "1000", Name: "Dup", Class: model.ClassAsset})
	var se *model.StorageError
	assert.True(t, errors.As(err, &se))

	_, err = s.DB().Exec("UPDATE accounts SET class = 'Expense' WHERE code = '1000'")
	assert.Error(t, err, "class is immutable")
}

func TestPostingRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()

	first := postSale(t, s, day(2024, 1, 5), "100.00")
	second := postSale(t, s, day(2024, 1, 5), "25.50")
	other := postSale(t, s, day(2024, 1, 6), "1.00")

	assert.Equal(t, "JE-20240105-001", first.Number)
	assert.Equal(t, "JE-20240105-002", second.Number)
	assert.Equal(t, "JE-20240106-001", other.Number)
	assert.NotZero(t, first.ID)
	assert.Equal(t, 1, first.Lines[0].LineNo)
	assert.Equal(t, 2, first.Lines[1].LineNo)

	got, err := s.GetEntry(ctx, "JE-20240105-002")
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].Debit.Equal(dec("25.50")))
	assert.True(t, got.Date.Equal(day(2024, 1, 5)))

	_, err = s.GetEntry(ctx, "JE-20990101-001")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	cash, err := s.GetAccount(ctx, "1000")
	require.NoError(t, err)
	assert.True(t, cash.Balance.Equal(dec("126.50")), "got %s", cash.Balance)

	entries, err := s.ListEntries(ctx, storage.EntryFilter{From: day(2024, 1, 6)})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "JE-20240106-001", entries[0].Number)
	assert.Len(t, entries[0].Lines, 2)

	lines, err := s.ListLines(ctx, storage.LineFilter{AccountCode: "4000", To: day(2024, 1, 5)})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "JE-20240105-001", lines[0].EntryNumber)
	assert.Equal(t, "sale", lines[0].EntryDescription)
	assert.True(t, lines[1].Credit.Equal(dec("25.50")))
}

func TestInTx_RollbackOnError(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx storage.PostingTx) error {
		entry := model.JournalEntry{
			Number: id.FormatEntryNumber(day(2024, 1, 5), 1),
			Date:   day(2024, 1, 5),
			Lines: []model.TransactionLine{
				{AccountCode: "1000", Debit: dec("5")},
				{AccountCode: "4000", Credit: dec("5")},
			},
		}
		if err := tx.InsertEntry(ctx, &entry); err != nil {
			return err
		}
		if err := tx.AddToBalance(ctx, "1000", dec("5")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := s.ListEntries(ctx, storage.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	cash, err := s.GetAccount(ctx, "1000")
	require.NoError(t, err)
	assert.True(t, cash.Balance.IsZero())
}

func TestAddToBalance_UnknownAccount(t *testing.T) {
	s := openTestStore(t)
	err := s.InTx(context.Background(), func(tx storage.PostingTx) error {
		return tx.AddToBalance(context.Background(), "9999", dec("1"))
	})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestJournalIsAppendOnly(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	postSale(t, s, day(2024, 1, 5), "10")

	_, err := s.DB().Exec("UPDATE journal_entries SET description = 'edited'")
	assert.Error(t, err)
	_, err = s.DB().Exec("DELETE FROM transaction_lines")
	assert.Error(t, err)
}

func TestDuplicateSequenceRejected(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	postSale(t, s, day(2024, 1, 5), "10")

	err := s.InTx(context.Background(), func(tx storage.PostingTx) error {
		entry := model.JournalEntry{Number: "JE-20240105-001", Date: day(2024, 1, 5)}
		return tx.InsertEntry(context.Background(), &entry)
	})
	var se *model.StorageError
	assert.True(t, errors.As(err, &se))
}

func TestChecks(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()

	for i, status := range []model.CheckStatus{model.StatusPass, model.StatusFail, model.StatusWarning} {
		_, err := s.RecordCheck(ctx, model.AccountCheck{
			AccountCode: "1000",
			CheckDate:   day(2024, 1, 1+i),
			Kind:        model.CheckBalance,
			Status:      status,
			Details:     json.RawMessage(`{"n":1}`),
		})
		require.NoError(t, err)
	}
	global, err := s.RecordCheck(ctx, model.AccountCheck{Kind: model.CheckDoubleEntry, Status: model.StatusPass, CheckDate: day(2024, 1, 2)})
	require.NoError(t, err)
	assert.NotZero(t, global.ID)

	got, err := s.ListChecks(ctx, "1000", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.StatusWarning, got[0].Status)
	assert.Equal(t, model.StatusFail, got[1].Status)
	assert.JSONEq(t, `{"n":1}`, string(got[0].Details))

	ledgerWide, err := s.ListChecks(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, ledgerWide, 1)
	assert.Equal(t, model.CheckDoubleEntry, ledgerWide[0].Kind)
	assert.JSONEq(t, `{}`, string(ledgerWide[0].Details))

	_, err = s.DB().Exec("DELETE FROM account_checks")
	assert.Error(t, err)
}

func TestRawTransactions(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()

	raw, err := s.AddRawTransaction(ctx, model.RawTransaction{
		Source: "bank", Date: day(2024, 2, 1), Amount: dec("-42.10"), Description: "coffee",
	})
	require.NoError(t, err)
	_, err = s.AddRawTransaction(ctx, model.RawTransaction{Source: "bank", Date: day(2024, 2, 2), Amount: dec("10")})
	require.NoError(t, err)

	pending, err := s.ListPendingRawTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, raw.ID, pending[0].ID)
	assert.True(t, pending[0].Amount.Equal(dec("-42.10")))

	entry := postSale(t, s, day(2024, 2, 1), "1")
	require.NoError(t, s.InTx(ctx, func(tx storage.PostingTx) error {
		return tx.MarkRawTransactionPosted(ctx, raw.ID, entry.ID, "5100")
	}))

	got, err := s.GetRawTransaction(ctx, raw.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Equal(t, entry.ID, got.JournalEntryID)
	assert.Equal(t, "5100", got.AccountCode)

	pending, err = s.ListPendingRawTransactions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	err = s.InTx(ctx, func(tx storage.PostingTx) error {
		return tx.MarkRawTransactionPosted(ctx, raw.ID, entry.ID, "5100")
	})
	assert.True(t, errors.Is(err, model.ErrNotFound), "already processed")

	_, err = s.GetRawTransaction(ctx, 999)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestPostgresSmoke(t *testing.T) {
	dsn := os.Getenv("FINEASY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FINEASY_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, Postgres, s.Dialect())

	ctx := context.Background()
	d := time.Now().UTC()
	err = s.InTx(ctx, func(tx storage.PostingTx) error {
		seq, err := tx.NextEntrySeq(ctx, d)
		if err != nil {
			return err
		}
		assert.GreaterOrEqual(t, seq, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestAddToBalance_Overflow(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()
	huge := dec("90000000000000000")

	add := func(delta decimal.Decimal) error {
		return s.InTx(ctx, func(tx storage.PostingTx) error {
			return tx.AddToBalance(ctx, "1000", delta)
		})
	}

	require.NoError(t, add(huge))
	err := add(huge)
	var malformed *model.MalformedEntryError
	require.True(t, errors.As(err, &malformed), "got %v", err)
	assert.Contains(t, malformed.Reason, "overflow")

	acct, err := s.GetAccount(ctx, "1000")
	require.NoError(t, err, "balance must stay readable")
	assert.True(t, acct.Balance.Equal(huge), "got %s", acct.Balance)

	require.NoError(t, add(huge.Neg()))
	require.NoError(t, add(huge.Neg()))
	err = add(huge.Neg())
	require.True(t, errors.As(err, &malformed), "got %v", err)

	acct, err = s.GetAccount(ctx, "1000")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(huge.Neg()), "got %s", acct.Balance)

	err = s.InTx(ctx, func(tx storage.PostingTx) error {
		return tx.AddToBalance(ctx, "9999", dec("1"))
	})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestReversedBy(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()
	orig := postSale(t, s, day(2024, 1, 5), "10")

	insertReversal := func() (string, error) {
		var number string
		err := s.InTx(ctx, func(tx storage.PostingTx) error {
			seq, err := tx.NextEntrySeq(ctx, day(2024, 1, 31))
			if err != nil {
				return err
			}
			entry := model.JournalEntry{
				Number:    id.FormatEntryNumber(day(2024, 1, 31), seq),
				Date:      day(2024, 1, 31),
				Reference: id.ReversalReference(orig.Number),
				Lines: []model.TransactionLine{
					{AccountCode: "4000", Debit: dec("10")},
					{AccountCode: "1000", Credit: dec("10")},
				},
			}
			if err := tx.InsertEntry(ctx, &entry); err != nil {
				return err
			}
			number = entry.Number
			return nil
		})
		return number, err
	}

	var by string
	require.NoError(t, s.InTx(ctx, func(tx storage.PostingTx) error {
		var err error
		by, err = tx.ReversedBy(ctx, orig.Number)
		return err
	}))
	assert.Empty(t, by)

	rev, err := insertReversal()
	require.NoError(t, err)

	require.NoError(t, s.InTx(ctx, func(tx storage.PostingTx) error {
		var err error
		by, err = tx.ReversedBy(ctx, orig.Number)
		return err
	}))
	assert.Equal(t, rev, by)

	// The unique index rejects a second reversal written past the check.
	_, err = insertReversal()
	var se *model.StorageError
	require.True(t, errors.As(err, &se), "got %v", err)

	entries, err := s.ListEntries(ctx, storage.EntryFilter{Reference: id.ReversalReference(orig.Number)})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// openPostgresStore opens the database named by FINEASY_TEST_POSTGRES_DSN
// and creates a pair of accounts unique to this run.
func openPostgresStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	dsn := os.Getenv("FINEASY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FINEASY_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	suffix := time.Now().UnixNano()
	asset, revenue := fmt.Sprintf("T%d-A", suffix), fmt.Sprintf("T%d-R", suffix)
	require.NoError(t, s.CreateAccount(context.Background(), model.Account{Code: asset, Name: "test cash", Class: model.ClassAsset}))
	require.NoError(t, s.CreateAccount(context.Background(), model.Account{Code: revenue, Name: "test sales", Class: model.ClassRevenue}))
	return s, asset, revenue
}

func TestPostgresConcurrentPosting(t *testing.T) {
	s, asset, revenue := openPostgresStore(t)
	ctx := context.Background()
	d := time.Now().UTC()

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var entry model.JournalEntry
			err := s.InTx(ctx, func(tx storage.PostingTx) error {
				seq, err := tx.NextEntrySeq(ctx, d)
				if err != nil {
					return err
				}
				entry = model.JournalEntry{
					Number: id.FormatEntryNumber(d, seq),
					Date:   d,
					Lines: []model.TransactionLine{
						{AccountCode: asset, Debit: dec("1.00")},
						{AccountCode: revenue, Credit: dec("1.00")},
					},
				}
				if err := tx.InsertEntry(ctx, &entry); err != nil {
					return err
				}
				if err := tx.AddToBalance(ctx, asset, dec("1.00")); err != nil {
					return err
				}
				return tx.AddToBalance(ctx, revenue, dec("1.00"))
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, entry.Number)
		}()
	}
	wg.Wait()
	require.Empty(t, errs)

	seen := make(map[string]bool, n)
	for _, num := range numbers {
		assert.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)

	acct, err := s.GetAccount(ctx, asset)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("20")), "got %s", acct.Balance)
}

func TestPostgresConcurrentReversal(t *testing.T) {
	s, asset, revenue := openPostgresStore(t)
	ctx := context.Background()
	d := time.Now().UTC()

	var orig model.JournalEntry
	require.NoError(t, s.InTx(ctx, func(tx storage.PostingTx) error {
		seq, err := tx.NextEntrySeq(ctx, d)
		if err != nil {
			return err
		}
		orig = model.JournalEntry{
			Number: id.FormatEntryNumber(d, seq),
			Date:   d,
			Lines: []model.TransactionLine{
				{AccountCode: asset, Debit: dec("5")},
				{AccountCode: revenue, Credit: dec("5")},
			},
		}
		return tx.InsertEntry(ctx, &orig)
	}))

	const n = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reversed int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InTx(ctx, func(tx storage.PostingTx) error {
				by, err := tx.ReversedBy(ctx, orig.Number)
				if err != nil {
					return err
				}
				if by != "" {
					return &model.MalformedEntryError{Reason: "already reversed by " + by}
				}
				seq, err := tx.NextEntrySeq(ctx, d)
				if err != nil {
					return err
				}
				rev := model.JournalEntry{
					Number:    id.FormatEntryNumber(d, seq),
					Date:      d,
					Reference: id.ReversalReference(orig.Number),
					Lines: []model.TransactionLine{
						{AccountCode: revenue, Debit: dec("5")},
						{AccountCode: asset, Credit: dec("5")},
					},
				}
				return tx.InsertEntry(ctx, &rev)
			})
			if err == nil {
				mu.Lock()
				reversed++
				mu.Unlock()
				return
			}
			var malformed *model.MalformedEntryError
			assert.True(t, errors.As(err, &malformed), "got %v", err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reversed)
}
