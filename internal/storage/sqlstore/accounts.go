package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

const accountColumns = "code, name, class, parent_code, balance_cents, created_at"

func scanAccount(row scanner) (model.Account, error) {
	var (
		acct      model.Account
		class     string
		parent    sql.NullString
		balance   int64
		createdAt int64
	)
	if err := row.Scan(&acct.Code, &acct.Name, &class, &parent, &balance, &createdAt); err != nil {
		return model.Account{}, err
	}
	acct.Class = model.AccountClass(class)
	acct.ParentCode = parent.String
	acct.Balance = model.FromCents(balance)
	acct.CreatedAt = fromMillis(createdAt)
	return acct, nil
}

func getAccount(ctx context.Context, q querier, d Dialect, code string) (model.Account, error) {
	row := q.QueryRowContext(ctx, d.rebind("SELECT "+accountColumns+" FROM accounts WHERE code = ?"), code)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, &model.NotFoundError{Kind: "account", Key: code}
	}
	if err != nil {
		return model.Account{}, storageErr("get account", err)
	}
	return acct, nil
}

func listAccounts(ctx context.Context, q querier, query string, args ...any) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr("scan account", err)
		}
		out = append(out, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list accounts", err)
	}
	return out, nil
}

// GetAccount returns the account with code or a *model.NotFoundError.
func (s *Store) GetAccount(ctx context.Context, code string) (model.Account, error) {
	return getAccount(ctx, s.db, s.dialect, code)
}

// ListAccounts returns all accounts ordered by code.
func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return listAccounts(ctx, s.db, "SELECT "+accountColumns+" FROM accounts ORDER BY code")
}

// ListAccountsByClass returns the accounts of one class ordered by code.
func (s *Store) ListAccountsByClass(ctx context.Context, class model.AccountClass) ([]model.Account, error) {
	return listAccounts(ctx, s.db,
		s.dialect.rebind("SELECT "+accountColumns+" FROM accounts WHERE class = ? ORDER BY code"),
		string(class))
}

// CreateAccount inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, acct model.Account) error {
	balance, err := cents(acct.Balance)
	if err != nil {
		return err
	}
	createdAt := acct.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	_, err = s.db.ExecContext(ctx,
		s.dialect.rebind("INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?)"),
		acct.Code, acct.Name, string(acct.Class), nullString(acct.ParentCode), balance, millis(createdAt),
	)
	return storageErr("create account", err)
}
