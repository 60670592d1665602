package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

const rawColumns = "id, source, transaction_date, amount_cents, description, category, account_code, processed, journal_entry_id, created_at"

func scanRaw(row scanner) (model.RawTransaction, error) {
	var (
		r         model.RawTransaction
		date      string
		amount    int64
		code      sql.NullString
		entryID   sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&r.ID, &r.Source, &date, &amount, &r.Description, &r.Category, &code, &r.Processed, &entryID, &createdAt); err != nil {
		return model.RawTransaction{}, err
	}
	day, err := parseDay(date)
	if err != nil {
		return model.RawTransaction{}, err
	}
	r.Date = day
	r.Amount = model.FromCents(amount)
	r.AccountCode = code.String
	r.JournalEntryID = entryID.Int64
	r.CreatedAt = fromMillis(createdAt)
	return r, nil
}

// AddRawTransaction queues an unprocessed raw transaction.
func (s *Store) AddRawTransaction(ctx context.Context, raw model.RawTransaction) (model.RawTransaction, error) {
	amount, err := cents(raw.Amount)
	if err != nil {
		return model.RawTransaction{}, err
	}
	if raw.CreatedAt.IsZero() {
		raw.CreatedAt = s.now()
	}
	raw.Date = model.Day(raw.Date)
	raw.Processed = false
	raw.JournalEntryID = 0

	err = s.db.QueryRowContext(ctx,
		s.dialect.rebind(`INSERT INTO raw_transactions (source, transaction_date, amount_cents, description, category, account_code, processed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		raw.Source, formatDay(raw.Date), amount, raw.Description, raw.Category,
		nullString(raw.AccountCode), false, millis(raw.CreatedAt),
	).Scan(&raw.ID)
	if err != nil {
		return model.RawTransaction{}, storageErr("add raw transaction", err)
	}
	raw.CreatedAt = fromMillis(millis(raw.CreatedAt))
	return raw, nil
}

// ListPendingRawTransactions returns unprocessed items in arrival order.
func (s *Store) ListPendingRawTransactions(ctx context.Context, limit int) ([]model.RawTransaction, error) {
	query := "SELECT " + rawColumns + " FROM raw_transactions WHERE processed = ? ORDER BY id"
	args := []any{false}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, storageErr("list raw transactions", err)
	}
	defer rows.Close()

	var out []model.RawTransaction
	for rows.Next() {
		r, err := scanRaw(rows)
		if err != nil {
			return nil, storageErr("scan raw transaction", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list raw transactions", err)
	}
	return out, nil
}

// GetRawTransaction returns one raw transaction by ID.
func (s *Store) GetRawTransaction(ctx context.Context, id int64) (model.RawTransaction, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT "+rawColumns+" FROM raw_transactions WHERE id = ?"), id)
	r, err := scanRaw(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RawTransaction{}, &model.NotFoundError{Kind: "raw transaction", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return model.RawTransaction{}, storageErr("get raw transaction", err)
	}
	return r, nil
}
