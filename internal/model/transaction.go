package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction is an unposted candidate transaction handed over by an
// ingestion source (bank feed, receipt, manual entry).
type RawTransaction struct {
	ID             int64
	Source         string
	Date           time.Time
	Amount         decimal.Decimal // negative = money out, positive = money in
	Description    string
	Category       string
	AccountCode    string
	Processed      bool
	JournalEntryID int64 // 0 until posted
	CreatedAt      time.Time
}
