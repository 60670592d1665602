package monitor

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

// BalanceDetails is the payload of a balance check.
type BalanceDetails struct {
	AccountCode       string          `json:"account_code"`
	AccountName       string          `json:"account_name"`
	StoredBalance     decimal.Decimal `json:"stored_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	Tolerance         decimal.Decimal `json:"tolerance"`
}

// BalanceResult is the outcome of CheckBalance.
type BalanceResult struct {
	Status  model.CheckStatus
	Details BalanceDetails
	Check   model.AccountCheck
}

// CheckBalance compares an account's cached balance with the balance
// recomputed from its full history. It passes when they differ by less
// than the configured tolerance.
func (s *Service) CheckBalance(ctx context.Context, code string) (BalanceResult, error) {
	acct, err := s.source.Lookup(ctx, code)
	if err != nil {
		return BalanceResult{}, err
	}
	derived, err := s.source.BalanceFromHistory(ctx, code)
	if err != nil {
		return BalanceResult{}, err
	}

	diff := acct.Balance.Sub(derived)
	status := model.StatusPass
	if diff.Abs().GreaterThanOrEqual(s.cfg.Tolerance) {
		status = model.StatusFail
	}

	details := BalanceDetails{
		AccountCode:       acct.Code,
		AccountName:       acct.Name,
		StoredBalance:     acct.Balance,
		CalculatedBalance: derived,
		Difference:        diff,
		Tolerance:         s.cfg.Tolerance,
	}
	check, err := s.record(ctx, acct.Code, model.CheckBalance, status, details)
	if err != nil {
		return BalanceResult{}, err
	}
	return BalanceResult{Status: status, Details: details, Check: check}, nil
}

// AnomalyType classifies a flagged line.
type AnomalyType string

const (
	AnomalyUnusualAmount AnomalyType = "unusual_amount"
	AnomalyDuplicate     AnomalyType = "duplicate"
)

// Anomaly is one flagged line.
type Anomaly struct {
	Type          AnomalyType     `json:"type"`
	Date          string          `json:"date"`
	EntryNumber   string          `json:"entry_number"`
	Amount        decimal.Decimal `json:"amount"`
	ZScore        float64         `json:"z_score,omitempty"`
	Description   string          `json:"description"`
	OriginalEntry string          `json:"original_entry,omitempty"`
}

// AnomalyDetails is the payload of an anomaly check.
type AnomalyDetails struct {
	AccountCode       string    `json:"account_code"`
	AccountName       string    `json:"account_name"`
	WindowDays        int       `json:"window_days"`
	Since             string    `json:"since"`
	TotalTransactions int       `json:"total_transactions"`
	Mean              *float64  `json:"mean_amount,omitempty"`
	StdDev            *float64  `json:"std_amount,omitempty"`
	Note              string    `json:"note,omitempty"`
	Anomalies         []Anomaly `json:"anomalies"`
}

// AnomalyResult is the outcome of DetectAnomalies.
type AnomalyResult struct {
	Status  model.CheckStatus
	Details AnomalyDetails
	Check   model.AccountCheck
}

// InsufficientData is the note on anomaly checks with fewer than two lines.
const InsufficientData = "insufficient data"

// DetectAnomalies scans an account's lines dated within the last
// windowDays (configured default when <= 0) for statistical outliers and
// likely duplicates.
func (s *Service) DetectAnomalies(ctx context.Context, code string, windowDays int) (AnomalyResult, error) {
	acct, err := s.source.Lookup(ctx, code)
	if err != nil {
		return AnomalyResult{}, err
	}
	if windowDays <= 0 {
		windowDays = s.cfg.AnomalyWindowDays
	}
	since := s.today().AddDate(0, 0, -windowDays)

	lines, err := s.store.ListLines(ctx, storage.LineFilter{AccountCode: acct.Code, From: since})
	if err != nil {
		return AnomalyResult{}, fmt.Errorf("reading recent lines of %s: %w", acct.Code, err)
	}

	details := AnomalyDetails{
		AccountCode:       acct.Code,
		AccountName:       acct.Name,
		WindowDays:        windowDays,
		Since:             since.Format(model.DateFormat),
		TotalTransactions: len(lines),
		Anomalies:         []Anomaly{},
	}

	if len(lines) < 2 {
		details.Note = InsufficientData
	} else {
		details.Anomalies = append(details.Anomalies, s.unusualAmounts(lines, &details)...)
		details.Anomalies = append(details.Anomalies, duplicates(lines)...)
	}

	status := model.StatusPass
	if len(details.Anomalies) > 0 {
		status = model.StatusWarning
	}
	check, err := s.record(ctx, acct.Code, model.CheckAnomaly, status, details)
	if err != nil {
		return AnomalyResult{}, err
	}
	return AnomalyResult{Status: status, Details: details, Check: check}, nil
}

func lineAmount(l model.PostedLine) decimal.Decimal {
	return l.Debit.Sub(l.Credit).Abs()
}

// unusualAmounts flags lines whose amount lies more than the configured
// number of sample standard deviations from the mean. It fills in the
// statistics on details.
func (s *Service) unusualAmounts(lines []model.PostedLine, details *AnomalyDetails) []Anomaly {
	amounts := make([]float64, len(lines))
	sum := 0.0
	for i, l := range lines {
		amounts[i] = lineAmount(l).InexactFloat64()
		sum += amounts[i]
	}
	mean := sum / float64(len(amounts))

	sq := 0.0
	for _, a := range amounts {
		sq += (a - mean) * (a - mean)
	}
	stddev := math.Sqrt(sq / float64(len(amounts)-1))
	details.Mean = &mean
	details.StdDev = &stddev

	if stddev == 0 {
		return nil
	}

	var out []Anomaly
	for i, l := range lines {
		z := (amounts[i] - mean) / stddev
		if math.Abs(z) <= s.cfg.ZScoreThreshold {
			continue
		}
		out = append(out, Anomaly{
			Type:        AnomalyUnusualAmount,
			Date:        l.EntryDate.Format(model.DateFormat),
			EntryNumber: l.EntryNumber,
			Amount:      lineAmount(l),
			ZScore:      z,
			Description: lineDescription(l),
		})
	}
	return out
}

type duplicateKey struct {
	debit, credit, date string
}

// duplicates flags every line after the first with the same debit,
// credit and entry date.
func duplicates(lines []model.PostedLine) []Anomaly {
	seen := make(map[duplicateKey]string, len(lines))
	var out []Anomaly
	for _, l := range lines {
		date := l.EntryDate.Format(model.DateFormat)
		key := duplicateKey{l.Debit.StringFixed(2), l.Credit.StringFixed(2), date}
		first, ok := seen[key]
		if !ok {
			seen[key] = l.EntryNumber
			continue
		}
		out = append(out, Anomaly{
			Type:          AnomalyDuplicate,
			Date:          date,
			EntryNumber:   l.EntryNumber,
			Amount:        lineAmount(l),
			Description:   "Possible duplicate transaction",
			OriginalEntry: first,
		})
	}
	return out
}

func lineDescription(l model.PostedLine) string {
	if l.Description != "" {
		return l.Description
	}
	return l.EntryDescription
}

// UnbalancedEntry reports one journal entry whose sides disagree.
type UnbalancedEntry struct {
	EntryNumber string          `json:"entry_number"`
	Date        string          `json:"date"`
	Debits      decimal.Decimal `json:"debits"`
	Credits     decimal.Decimal `json:"credits"`
	Difference  decimal.Decimal `json:"difference"`
}

// DoubleEntryDetails is the payload of a double-entry check.
type DoubleEntryDetails struct {
	TotalEntries      int               `json:"total_entries"`
	UnbalancedEntries []UnbalancedEntry `json:"unbalanced_entries"`
}

// DoubleEntryResult is the outcome of VerifyDoubleEntry.
type DoubleEntryResult struct {
	Status  model.CheckStatus
	Details DoubleEntryDetails
	Check   model.AccountCheck
}

// VerifyDoubleEntry recomputes both sides of every journal entry. The
// check is ledger-wide and recorded without an account code.
func (s *Service) VerifyDoubleEntry(ctx context.Context) (DoubleEntryResult, error) {
	entries, err := s.store.ListEntries(ctx, storage.EntryFilter{})
	if err != nil {
		return DoubleEntryResult{}, fmt.Errorf("reading journal: %w", err)
	}

	details := DoubleEntryDetails{
		TotalEntries:      len(entries),
		UnbalancedEntries: []UnbalancedEntry{},
	}
	for _, e := range entries {
		debits, credits := e.Totals()
		if debits.Equal(credits) {
			continue
		}
		details.UnbalancedEntries = append(details.UnbalancedEntries, UnbalancedEntry{
			EntryNumber: e.Number,
			Date:        e.Date.Format(model.DateFormat),
			Debits:      debits,
			Credits:     credits,
			Difference:  debits.Sub(credits),
		})
	}

	status := model.StatusPass
	if len(details.UnbalancedEntries) > 0 {
		status = model.StatusFail
	}
	check, err := s.record(ctx, "", model.CheckDoubleEntry, status, details)
	if err != nil {
		return DoubleEntryResult{}, err
	}
	return DoubleEntryResult{Status: status, Details: details, Check: check}, nil
}
