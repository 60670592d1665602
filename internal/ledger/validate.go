package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// minLines is the smallest valid double-entry posting.
const minLines = 2

// ValidateLines checks structure and balance without touching storage.
// Structural problems are reported before imbalance, so a one-line entry
// is malformed rather than unbalanced. On success it returns the lines as
// they will be stored.
func ValidateLines(inputs []LineInput) ([]model.TransactionLine, error) {
	if len(inputs) < minLines {
		return nil, &model.MalformedEntryError{
			Reason: fmt.Sprintf("entry needs at least %d lines, got %d", minLines, len(inputs)),
		}
	}

	lines := make([]model.TransactionLine, 0, len(inputs))
	for i, in := range inputs {
		lineNo := i + 1
		code := strings.TrimSpace(in.AccountCode)
		if code == "" {
			return nil, &model.MalformedEntryError{Line: lineNo, Reason: "account code is empty"}
		}
		if in.Debit.IsNegative() {
			return nil, &model.MalformedEntryError{Line: lineNo, Reason: fmt.Sprintf("negative debit %s", in.Debit)}
		}
		if in.Credit.IsNegative() {
			return nil, &model.MalformedEntryError{Line: lineNo, Reason: fmt.Sprintf("negative credit %s", in.Credit)}
		}
		if !model.HasCentPrecision(in.Debit) {
			return nil, &model.MalformedEntryError{Line: lineNo, Reason: fmt.Sprintf("debit %s has more than 2 decimal places", in.Debit)}
		}
		if !model.HasCentPrecision(in.Credit) {
			return nil, &model.MalformedEntryError{Line: lineNo, Reason: fmt.Sprintf("credit %s has more than 2 decimal places", in.Credit)}
		}
		lines = append(lines, model.TransactionLine{
			LineNo:      lineNo,
			AccountCode: code,
			Debit:       in.Debit,
			Credit:      in.Credit,
			Description: in.Description,
		})
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if !debits.Equal(credits) {
		return nil, &model.UnbalancedEntryError{Debits: debits, Credits: credits}
	}

	return lines, nil
}

// unconventionalLines returns the 1-based numbers of lines that carry both
// a debit and a credit, or neither.
func unconventionalLines(lines []model.TransactionLine) []int {
	var out []int
	for _, l := range lines {
		if !l.Conventional() {
			out = append(out, l.LineNo)
		}
	}
	return out
}

// accountCodes returns the distinct codes referenced by lines, sorted.
func accountCodes(lines []model.TransactionLine) []string {
	seen := make(map[string]bool, len(lines))
	var codes []string
	for _, l := range lines {
		if !seen[l.AccountCode] {
			seen[l.AccountCode] = true
			codes = append(codes, l.AccountCode)
		}
	}
	sort.Strings(codes)
	return codes
}
