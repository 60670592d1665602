package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuvisminds-design/fin-easy/internal/events"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEntryPosted(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w}

	ev := events.EntryPosted{EventID: "abc", EntryNumber: "JE-20240105-001", Total: "10.00"}
	require.NoError(t, p.PublishEntryPosted(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "JE-20240105-001", string(msg.Key))
	var got events.EntryPosted
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.EventID, got.EventID)
	assert.Equal(t, "10.00", got.Total)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "abc", string(msg.Headers[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishEntryPosted_WriterError(t *testing.T) {
	p := &Publisher{writer: &recordingWriter{err: errors.New("broker down")}}
	err := p.PublishEntryPosted(context.Background(), events.EntryPosted{EntryNumber: "JE-20240105-001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JE-20240105-001")
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewPublisher_DefaultTopic(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, w.Topic)
}
