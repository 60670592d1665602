package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MinorUnit is the smallest representable amount (one cent).
var MinorUnit = decimal.New(1, -2)

var oneHundred = decimal.NewFromInt(100)

// HasCentPrecision reports whether d has at most two decimal places.
func HasCentPrecision(d decimal.Decimal) bool {
	scaled := d.Mul(oneHundred)
	return scaled.Equal(scaled.Floor())
}

// ToCents converts an amount to integer minor units.
func ToCents(d decimal.Decimal) (int64, error) {
	if !HasCentPrecision(d) {
		return 0, fmt.Errorf("amount %s has more than 2 decimal places", d)
	}
	scaled := d.Shift(2).BigInt()
	if !scaled.IsInt64() {
		return 0, fmt.Errorf("amount %s out of range", d)
	}
	return scaled.Int64(), nil
}

// FromCents converts integer minor units back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateFormat is the wire and storage layout for calendar days.
const DateFormat = "2006-01-02"
