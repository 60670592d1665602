package sqlstore

import (
	"context"
	"database/sql"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// RecordCheck appends an audit record and returns it with ID and CreatedAt set.
func (s *Store) RecordCheck(ctx context.Context, check model.AccountCheck) (model.AccountCheck, error) {
	if check.CreatedAt.IsZero() {
		check.CreatedAt = s.now()
	}
	if check.CheckDate.IsZero() {
		check.CheckDate = check.CreatedAt
	}
	check.CheckDate = model.Day(check.CheckDate)
	details := string(check.Details)
	if details == "" {
		details = "{}"
	}

	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`INSERT INTO account_checks (account_code, check_date, check_type, status, details, created_at)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		nullString(check.AccountCode), formatDay(check.CheckDate), string(check.Kind), string(check.Status),
		details, millis(check.CreatedAt),
	).Scan(&check.ID)
	if err != nil {
		return model.AccountCheck{}, storageErr("record check", err)
	}
	check.CreatedAt = fromMillis(millis(check.CreatedAt))
	return check, nil
}

// ListChecks returns checks for accountCode, newest first. An empty code
// selects ledger-wide checks. limit <= 0 returns everything.
func (s *Store) ListChecks(ctx context.Context, accountCode string, limit int) ([]model.AccountCheck, error) {
	query := "SELECT id, account_code, check_date, check_type, status, details, created_at FROM account_checks"
	var args []any
	if accountCode == "" {
		query += " WHERE account_code IS NULL"
	} else {
		query += " WHERE account_code = ?"
		args = append(args, accountCode)
	}
	query += " ORDER BY check_date DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, storageErr("list checks", err)
	}
	defer rows.Close()

	var out []model.AccountCheck
	for rows.Next() {
		var (
			c                      model.AccountCheck
			code                   sql.NullString
			date, kind, status, dt string
			createdAt              int64
		)
		if err := rows.Scan(&c.ID, &code, &date, &kind, &status, &dt, &createdAt); err != nil {
			return nil, storageErr("scan check", err)
		}
		day, err := parseDay(date)
		if err != nil {
			return nil, err
		}
		c.AccountCode = code.String
		c.CheckDate = day
		c.Kind = model.CheckKind(kind)
		c.Status = model.CheckStatus(status)
		c.Details = []byte(dt)
		c.CreatedAt = fromMillis(createdAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list checks", err)
	}
	return out, nil
}
