package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tuvisminds-design/fin-easy/internal/id"
	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

var _ storage.PostingTx = (*postingTx)(nil)

type postingTx struct {
	tx      *sql.Tx
	dialect Dialect
	now     func() time.Time
}

func (p *postingTx) GetAccount(ctx context.Context, code string) (model.Account, error) {
	return getAccount(ctx, p.tx, p.dialect, code)
}

func (p *postingTx) NextEntrySeq(ctx context.Context, day time.Time) (int, error) {
	date := formatDay(day)
	if err := p.dialect.lockEntryDay(ctx, p.tx, date); err != nil {
		return 0, storageErr("lock entry day", err)
	}
	var maxSeq int
	err := p.tx.QueryRowContext(ctx,
		p.dialect.rebind("SELECT COALESCE(MAX(entry_seq), 0) FROM journal_entries WHERE entry_date = ?"), date,
	).Scan(&maxSeq)
	if err != nil {
		return 0, storageErr("next entry seq", err)
	}
	return maxSeq + 1, nil
}

func (p *postingTx) InsertEntry(ctx context.Context, entry *model.JournalEntry) error {
	_, seq, err := id.ParseEntryNumber(entry.Number)
	if err != nil {
		return &model.MalformedEntryError{Reason: err.Error()}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = p.now()
	}
	entry.Date = model.Day(entry.Date)

	err = p.tx.QueryRowContext(ctx,
		p.dialect.rebind(`INSERT INTO journal_entries (entry_number, entry_date, entry_seq, description, reference, created_at)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		entry.Number, formatDay(entry.Date), seq, entry.Description, nullString(entry.Reference), millis(entry.CreatedAt),
	).Scan(&entry.ID)
	if err != nil {
		return storageErr("insert entry", err)
	}
	entry.CreatedAt = fromMillis(millis(entry.CreatedAt))

	insertLine := p.dialect.rebind(`INSERT INTO transaction_lines (journal_entry_id, line_no, account_code, debit_cents, credit_cents, description)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	for i := range entry.Lines {
		l := &entry.Lines[i]
		debit, err := cents(l.Debit)
		if err != nil {
			return err
		}
		credit, err := cents(l.Credit)
		if err != nil {
			return err
		}
		l.EntryID = entry.ID
		l.LineNo = i + 1
		if err := p.tx.QueryRowContext(ctx, insertLine,
			entry.ID, l.LineNo, l.AccountCode, debit, credit, l.Description,
		).Scan(&l.ID); err != nil {
			return storageErr("insert line", err)
		}
	}
	return nil
}

func (p *postingTx) AddToBalance(ctx context.Context, code string, delta decimal.Decimal) error {
	c, err := cents(delta)
	if err != nil {
		return err
	}
	// The bound keeps balance_cents + c inside int64; SQLite would
	// otherwise silently store the sum as REAL.
	query, bound := "UPDATE accounts SET balance_cents = balance_cents + ? WHERE code = ? AND balance_cents <= ?", int64(math.MaxInt64)-c
	if c < 0 {
		query, bound = "UPDATE accounts SET balance_cents = balance_cents + ? WHERE code = ? AND balance_cents >= ?", int64(math.MinInt64)-c
	}
	res, err := p.tx.ExecContext(ctx, p.dialect.rebind(query), c, code, bound)
	if err != nil {
		return storageErr("update balance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update balance", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := p.GetAccount(ctx, code); err != nil {
		return err
	}
	return &model.MalformedEntryError{
		Reason: fmt.Sprintf("balance of account %s would overflow adding %s", code, delta.StringFixed(2)),
	}
}

func (p *postingTx) ReversedBy(ctx context.Context, number string) (string, error) {
	ref := id.ReversalReference(number)
	if err := p.dialect.advisoryLock(ctx, p.tx, ref); err != nil {
		return "", storageErr("lock reversal", err)
	}
	var by string
	err := p.tx.QueryRowContext(ctx,
		p.dialect.rebind("SELECT entry_number FROM journal_entries WHERE reference = ? ORDER BY id LIMIT 1"), ref,
	).Scan(&by)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", storageErr("find reversal", err)
	}
	return by, nil
}

func (p *postingTx) MarkRawTransactionPosted(ctx context.Context, rawID, entryID int64, accountCode string) error {
	res, err := p.tx.ExecContext(ctx,
		p.dialect.rebind("UPDATE raw_transactions SET processed = ?, journal_entry_id = ?, account_code = ? WHERE id = ? AND processed = ?"),
		true, entryID, nullString(accountCode), rawID, false)
	if err != nil {
		return storageErr("mark raw transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("mark raw transaction", err)
	}
	if n != 1 {
		return &model.NotFoundError{Kind: "pending raw transaction", Key: strconv.FormatInt(rawID, 10)}
	}
	return nil
}
