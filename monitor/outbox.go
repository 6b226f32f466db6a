package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-station-inbox/core"
	"github.com/google/uuid"
)

// Message is a persisted monitor notification.
type Message struct {
	ID             string
	Text           string
	AttachmentPath string
	Attempts       int
	NextAttemptAt  *time.Time
	LastError      string
	CreatedAt      time.Time
}

func (m Message) MonitorMessage() core.MonitorMessage {
	return core.MonitorMessage{Text: m.Text, AttachmentPath: m.AttachmentPath}
}

type OutboxStore interface {
	Enqueue(ctx context.Context, msg Message) error
	ClaimBatch(ctx context.Context, limit int) ([]Message, error)
	Ack(ctx context.Context, id string) error
	// Retry reschedules a claimed message. A zero nextAttemptAt marks it failed.
	Retry(ctx context.Context, id string, cause error, nextAttemptAt time.Time) error
}

// OutboxMonitor implements core.Monitor by persisting every message. Delivery
// happens later through Dispatcher.DispatchPending.
type OutboxMonitor struct {
	store OutboxStore
	now   func() time.Time
	newID func() string
}

func NewOutboxMonitor(store OutboxStore) (*OutboxMonitor, error) {
	if store == nil {
		return nil, fmt.Errorf("monitor: outbox store is required")
	}
	return &OutboxMonitor{
		store: store,
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}, nil
}

func (m *OutboxMonitor) Send(ctx context.Context, msg core.MonitorMessage) error {
	if m == nil || m.store == nil {
		return fmt.Errorf("monitor: outbox monitor is not configured")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return fmt.Errorf("monitor: message text is required")
	}
	return m.store.Enqueue(ctx, Message{
		ID:             m.newID(),
		Text:           msg.Text,
		AttachmentPath: strings.TrimSpace(msg.AttachmentPath),
		CreatedAt:      m.now(),
	})
}

// SinkMonitor delivers synchronously to every sink. It suits tests and small
// deployments that do not run a dispatcher.
type SinkMonitor struct {
	sinks []Sink
}

func NewSinkMonitor(sinks ...Sink) *SinkMonitor {
	return &SinkMonitor{sinks: compactSinks(sinks)}
}

func (m *SinkMonitor) Send(ctx context.Context, msg core.MonitorMessage) error {
	if m == nil {
		return nil
	}
	return deliverAll(ctx, m.sinks, msg)
}

var (
	_ core.Monitor = (*OutboxMonitor)(nil)
	_ core.Monitor = (*SinkMonitor)(nil)
)
