package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound is matched by every NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// UnbalancedEntryError reports a posting whose debits and credits differ.
type UnbalancedEntryError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits (%s) != credits (%s), difference %s",
		e.Debits.StringFixed(2), e.Credits.StringFixed(2), e.Difference().StringFixed(2))
}

// Difference returns debits minus credits.
func (e *UnbalancedEntryError) Difference() decimal.Decimal {
	return e.Debits.Sub(e.Credits)
}

// UnknownAccountError reports account codes missing from the directory.
type UnknownAccountError struct {
	Codes []string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account(s): %s", strings.Join(e.Codes, ", "))
}

// MalformedEntryError reports a structurally invalid posting.
type MalformedEntryError struct {
	Line   int // 1-based line number, 0 when the whole entry is at fault
	Reason string
}

func (e *MalformedEntryError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed entry: line %d: %s", e.Line, e.Reason)
	}
	return "malformed entry: " + e.Reason
}

// NotFoundError reports a lookup miss for an account or entry.
type NotFoundError struct {
	Kind string // "account", "entry", "raw transaction"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps a durability-layer failure. The operation it
// describes was rolled back and may be retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is one of the pure input-validation
// errors, which are never worth retrying.
func IsValidation(err error) bool {
	var (
		unbalanced *UnbalancedEntryError
		unknown    *UnknownAccountError
		malformed  *MalformedEntryError
	)
	return errors.As(err, &unbalanced) || errors.As(err, &unknown) || errors.As(err, &malformed)
}
