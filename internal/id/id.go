package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	entryPrefix = "JE"
	dayLayout   = "20060102"
)

// FormatEntryNumber returns an entry number like "JE-20240105-001".
func FormatEntryNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", entryPrefix, day.Format(dayLayout), seq)
}

// ParseEntryNumber parses "JE-20240105-001" into its day and sequence.
func ParseEntryNumber(number string) (day time.Time, seq int, err error) {
	parts := strings.SplitN(number, "-", 3)
	if len(parts) != 3 || parts[0] != entryPrefix {
		return time.Time{}, 0, fmt.Errorf("invalid entry number format: %q", number)
	}

	day, err = time.Parse(dayLayout, parts[1])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid date in entry number %q: %w", number, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid sequence in entry number %q: %w", number, err)
	}
	if seq < 1 {
		return time.Time{}, 0, fmt.Errorf("invalid sequence in entry number %q: must be positive", number)
	}

	return day, seq, nil
}

// ReversalReference returns the reference stamped on the entry that
// reverses number.
func ReversalReference(number string) string {
	return "reversal:" + number
}
