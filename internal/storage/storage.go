// Package storage defines the persistence contracts of the ledger: account
// rows, the append-only journal, audit records and raw transactions.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// AccountStore reads and creates chart-of-accounts rows.
type AccountStore interface {
	GetAccount(ctx context.Context, code string) (model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListAccountsByClass(ctx context.Context, class model.AccountClass) ([]model.Account, error)
	CreateAccount(ctx context.Context, acct model.Account) error
}

// EntryFilter narrows journal entry listings. Zero values mean "any".
type EntryFilter struct {
	From      time.Time
	To        time.Time
	Reference string
}

// LineFilter narrows posted-line listings. Zero values mean "any".
type LineFilter struct {
	AccountCode string
	From        time.Time
	To          time.Time
}

// JournalReader reads committed journal entries and lines.
type JournalReader interface {
	GetEntry(ctx context.Context, number string) (model.JournalEntry, error)
	// ListEntries returns entries with their lines, ordered by date then number.
	ListEntries(ctx context.Context, filter EntryFilter) ([]model.JournalEntry, error)
	// ListLines returns posted lines ordered by date, entry number, line number.
	ListLines(ctx context.Context, filter LineFilter) ([]model.PostedLine, error)
}

// CheckStore appends and lists audit records.
type CheckStore interface {
	RecordCheck(ctx context.Context, check model.AccountCheck) (model.AccountCheck, error)
	// ListChecks returns the newest checks for an account, check date descending.
	ListChecks(ctx context.Context, accountCode string, limit int) ([]model.AccountCheck, error)
}

// RawTransactionStore queues and lists raw transactions.
type RawTransactionStore interface {
	AddRawTransaction(ctx context.Context, raw model.RawTransaction) (model.RawTransaction, error)
	ListPendingRawTransactions(ctx context.Context, limit int) ([]model.RawTransaction, error)
	GetRawTransaction(ctx context.Context, id int64) (model.RawTransaction, error)
}

// PostingTx is the write side of one atomic posting. Every call joins the
// same storage transaction; nothing is visible to readers until commit.
type PostingTx interface {
	GetAccount(ctx context.Context, code string) (model.Account, error)
	// NextEntrySeq serializes allocation for day and returns max(seq)+1.
	NextEntrySeq(ctx context.Context, day time.Time) (int, error)
	// InsertEntry appends the entry and its lines, filling in IDs.
	InsertEntry(ctx context.Context, entry *model.JournalEntry) error
	// AddToBalance atomically adds delta to the account's stored balance.
	// A sum that would not fit in int64 cents is a MalformedEntryError.
	AddToBalance(ctx context.Context, code string, delta decimal.Decimal) error
	// ReversedBy returns the number of the entry reversing number, or ""
	// when there is none. It holds a lock on the reversal until commit.
	ReversedBy(ctx context.Context, number string) (string, error)
	MarkRawTransactionPosted(ctx context.Context, rawID, entryID int64, accountCode string) error
}

// Store is the full persistence surface used by the services.
type Store interface {
	AccountStore
	JournalReader
	CheckStore
	RawTransactionStore
	// InTx runs fn inside one transaction, committing if fn returns nil
	// and rolling back otherwise. Errors returned by fn pass through.
	InTx(ctx context.Context, fn func(tx PostingTx) error) error
	Close() error
}
