package model

import (
	"encoding/json"
	"time"
)

// CheckKind identifies which audit produced an AccountCheck.
type CheckKind string

const (
	CheckBalance     CheckKind = "balance"
	CheckAnomaly     CheckKind = "anomaly"
	CheckDoubleEntry CheckKind = "double_entry"
)

// CheckStatus is the outcome of an audit.
type CheckStatus string

const (
	StatusPass    CheckStatus = "pass"
	StatusFail    CheckStatus = "fail"
	StatusWarning CheckStatus = "warning"
)

// AccountCheck is an append-only audit record.
type AccountCheck struct {
	ID          int64
	AccountCode string // "" for ledger-wide checks
	CheckDate   time.Time
	Kind        CheckKind
	Status      CheckStatus
	Details     json.RawMessage
	CreatedAt   time.Time
}
