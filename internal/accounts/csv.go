package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

const (
	numFields = 4
	colCode   = 0
	colName   = 1
	colClass  = 2
	colParent = 3
)

var csvHeader = []string{"code", "name", "class", "parent_code"}

// ReadAccounts reads a chart-of-accounts CSV seed file.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart-of-accounts CSV seed file.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row. Balances are not part
// of the seed format.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colClass] = string(acct.Class)
	row[colParent] = acct.ParentCode
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	code := strings.TrimSpace(record[colCode])
	if code == "" {
		return model.Account{}, fmt.Errorf("empty account code")
	}

	class := model.AccountClass(strings.TrimSpace(record[colClass]))
	if !class.Valid() {
		return model.Account{}, fmt.Errorf("account %s: invalid class %q", code, record[colClass])
	}

	return model.Account{
		Code:       code,
		Name:       strings.TrimSpace(record[colName]),
		Class:      class,
		ParentCode: strings.TrimSpace(record[colParent]),
	}, nil
}
