// Package events defines the notifications emitted after a posting commits.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// EntryPosted is published once per committed journal entry.
type EntryPosted struct {
	EventID     string       `json:"event_id"`
	OccurredAt  time.Time    `json:"occurred_at"`
	EntryNumber string       `json:"entry_number"`
	EntryDate   string       `json:"entry_date"`
	Description string       `json:"description"`
	Reference   string       `json:"reference,omitempty"`
	Total       string       `json:"total"`
	Lines       []PostedLine `json:"lines"`
}

// PostedLine is the wire form of one entry line.
type PostedLine struct {
	AccountCode string `json:"account_code"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// NewEntryPosted builds the event for a committed entry.
func NewEntryPosted(entry model.JournalEntry, now time.Time) EntryPosted {
	debits, _ := entry.Totals()
	lines := make([]PostedLine, 0, len(entry.Lines))
	for _, l := range entry.Lines {
		lines = append(lines, PostedLine{
			AccountCode: l.AccountCode,
			Debit:       l.Debit.StringFixed(2),
			Credit:      l.Credit.StringFixed(2),
		})
	}
	return EntryPosted{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		EntryNumber: entry.Number,
		EntryDate:   entry.Date.Format(model.DateFormat),
		Description: entry.Description,
		Reference:   entry.Reference,
		Total:       debits.StringFixed(2),
		Lines:       lines,
	}
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	PublishEntryPosted(ctx context.Context, event EntryPosted) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishEntryPosted(context.Context, EntryPosted) error { return nil }

func (Nop) Close() error { return nil }
