package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

const entryColumns = "id, entry_number, entry_date, description, reference, created_at"

const lineColumns = "l.id, l.journal_entry_id, l.line_no, l.account_code, l.debit_cents, l.credit_cents, l.description"

func scanEntry(row scanner) (model.JournalEntry, error) {
	var (
		e         model.JournalEntry
		date      string
		ref       sql.NullString
		createdAt int64
	)
	if err := row.Scan(&e.ID, &e.Number, &date, &e.Description, &ref, &createdAt); err != nil {
		return model.JournalEntry{}, err
	}
	day, err := parseDay(date)
	if err != nil {
		return model.JournalEntry{}, err
	}
	e.Date = day
	e.Reference = ref.String
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}

func scanLine(row scanner, extra ...any) (model.TransactionLine, error) {
	var (
		l             model.TransactionLine
		debit, credit int64
	)
	dest := append([]any{&l.ID, &l.EntryID, &l.LineNo, &l.AccountCode, &debit, &credit, &l.Description}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.TransactionLine{}, err
	}
	l.Debit = model.FromCents(debit)
	l.Credit = model.FromCents(credit)
	return l, nil
}

func (s *Store) entryLines(ctx context.Context, entryID int64) ([]model.TransactionLine, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind("SELECT "+lineColumns+" FROM transaction_lines l WHERE l.journal_entry_id = ? ORDER BY l.line_no"),
		entryID)
	if err != nil {
		return nil, storageErr("list entry lines", err)
	}
	defer rows.Close()

	var lines []model.TransactionLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, storageErr("scan line", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list entry lines", err)
	}
	return lines, nil
}

// GetEntry returns the entry with its lines.
func (s *Store) GetEntry(ctx context.Context, number string) (model.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind("SELECT "+entryColumns+" FROM journal_entries WHERE entry_number = ?"), number)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.JournalEntry{}, &model.NotFoundError{Kind: "entry", Key: number}
	}
	if err != nil {
		return model.JournalEntry{}, storageErr("get entry", err)
	}
	if e.Lines, err = s.entryLines(ctx, e.ID); err != nil {
		return model.JournalEntry{}, err
	}
	return e, nil
}

// ListEntries returns matching entries with their lines.
func (s *Store) ListEntries(ctx context.Context, filter storage.EntryFilter) ([]model.JournalEntry, error) {
	var (
		where []string
		args  []any
	)
	if !filter.From.IsZero() {
		where = append(where, "entry_date >= ?")
		args = append(args, formatDay(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "entry_date <= ?")
		args = append(args, formatDay(filter.To))
	}
	if filter.Reference != "" {
		where = append(where, "reference = ?")
		args = append(args, filter.Reference)
	}

	query := "SELECT " + entryColumns + " FROM journal_entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY entry_date, entry_seq"

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, storageErr("list entries", err)
	}
	var entries []model.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			_ = rows.Close()
			return nil, storageErr("scan entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, storageErr("list entries", err)
	}
	_ = rows.Close()

	// Lines are loaded after the header cursor is closed so a single
	// pooled connection is never asked for two open result sets.
	for i := range entries {
		if entries[i].Lines, err = s.entryLines(ctx, entries[i].ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// ListLines returns posted lines joined with their entry headers.
func (s *Store) ListLines(ctx context.Context, filter storage.LineFilter) ([]model.PostedLine, error) {
	var (
		where []string
		args  []any
	)
	if filter.AccountCode != "" {
		where = append(where, "l.account_code = ?")
		args = append(args, filter.AccountCode)
	}
	if !filter.From.IsZero() {
		where = append(where, "e.entry_date >= ?")
		args = append(args, formatDay(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "e.entry_date <= ?")
		args = append(args, formatDay(filter.To))
	}

	query := "SELECT " + lineColumns + ", e.entry_number, e.entry_date, e.description, e.reference" +
		" FROM transaction_lines l JOIN journal_entries e ON e.id = l.journal_entry_id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.entry_date, e.entry_seq, l.line_no"

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, storageErr("list lines", err)
	}
	defer rows.Close()

	var out []model.PostedLine
	for rows.Next() {
		var (
			p    model.PostedLine
			date string
			ref  sql.NullString
		)
		l, err := scanLine(rows, &p.EntryNumber, &date, &p.EntryDescription, &ref)
		if err != nil {
			return nil, storageErr("scan line", err)
		}
		day, err := parseDay(date)
		if err != nil {
			return nil, err
		}
		p.TransactionLine = l
		p.EntryDate = day
		p.Reference = ref.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list lines", err)
	}
	return out, nil
}
