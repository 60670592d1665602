package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tuvisminds-design/fin-easy/internal/events"
)

// DefaultTopic receives EntryPosted events when no topic is configured.
const DefaultTopic = "ledger.entry_posted"

var _ events.Publisher = (*Publisher)(nil)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events as JSON messages keyed by entry number.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a Publisher for brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *Publisher) PublishEntryPosted(ctx context.Context, event events.EntryPosted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding entry posted event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EntryNumber),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte("entry_posted")},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing entry %s: %w", event.EntryNumber, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
