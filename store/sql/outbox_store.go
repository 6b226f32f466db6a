package sqlstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-station-inbox/monitor"
)

const (
	outboxStatusPending    = "pending"
	outboxStatusProcessing = "processing"
	outboxStatusDelivered  = "delivered"
	outboxStatusFailed     = "failed"

	// Claimed messages left in processing longer than this are claimable again.
	defaultOutboxClaimLease = 5 * time.Minute
)

// OutboxStore persists monitor messages for monitor.Dispatcher.
type OutboxStore struct {
	db    *bun.DB
	repo  repository.Repository[*monitorOutboxRecord]
	lease time.Duration
	now   func() time.Time
}

func NewOutboxStore(db *bun.DB) (*OutboxStore, error) {
	repo, err := newValidatedRepository(db, monitorOutboxHandlers(), "monitor outbox")
	if err != nil {
		return nil, err
	}
	return &OutboxStore{
		db:    db,
		repo:  repo,
		lease: defaultOutboxClaimLease,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *OutboxStore) Enqueue(ctx context.Context, msg monitor.Message) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: outbox store is not configured")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return fmt.Errorf("sqlstore: outbox message text is required")
	}
	id := strings.TrimSpace(msg.ID)
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	createdAt := msg.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err := s.repo.Create(ctx, &monitorOutboxRecord{
		ID:             id,
		Text:           msg.Text,
		AttachmentPath: strings.TrimSpace(msg.AttachmentPath),
		Status:         outboxStatusPending,
		CreatedAt:      createdAt,
		UpdatedAt:      now,
	})
	return err
}

// ClaimBatch moves up to limit due messages to processing and returns them in
// creation order.
func (s *OutboxStore) ClaimBatch(ctx context.Context, limit int) ([]monitor.Message, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: outbox store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now := s.now()
	staleBefore := now.Add(-s.lease)
	var records []monitorOutboxRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH claimed AS (
	SELECT id
	FROM monitor_outbox
	WHERE (status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?))
	   OR (status = ? AND updated_at <= ?)
	ORDER BY created_at ASC
	LIMIT ?
)
UPDATE monitor_outbox
SET status = ?, updated_at = ?
WHERE id IN (SELECT id FROM claimed)
RETURNING
	id,
	text,
	attachment_path,
	status,
	attempts,
	next_attempt_at,
	last_error,
	created_at,
	updated_at
`
		return tx.NewRaw(
			query,
			outboxStatusPending,
			now,
			outboxStatusProcessing,
			staleBefore,
			limit,
			outboxStatusProcessing,
			now,
		).Scan(ctx, &records)
	})
	if err != nil {
		return nil, err
	}

	messages := make([]monitor.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, outboxRecordToMessage(record))
	}
	sortMessagesByCreation(messages)
	return messages, nil
}

func (s *OutboxStore) Ack(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: outbox store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: outbox message id is required")
	}
	_, err := s.db.NewUpdate().
		Model((*monitorOutboxRecord)(nil)).
		Set("status = ?", outboxStatusDelivered).
		Set("last_error = ?", "").
		Set("next_attempt_at = NULL").
		Set("updated_at = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *OutboxStore) Retry(ctx context.Context, id string, cause error, nextAttemptAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: outbox store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: outbox message id is required")
	}
	status := outboxStatusPending
	var next *time.Time
	if !nextAttemptAt.IsZero() {
		nextValue := nextAttemptAt.UTC()
		next = &nextValue
	} else {
		status = outboxStatusFailed
	}

	lastError := ""
	if cause != nil {
		lastError = strings.TrimSpace(cause.Error())
	}
	_, err := s.db.NewUpdate().
		Model((*monitorOutboxRecord)(nil)).
		Set("status = ?", status).
		Set("attempts = attempts + 1").
		Set("next_attempt_at = ?", next).
		Set("last_error = ?", lastError).
		Set("updated_at = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// Status reports the delivery status of a message, mainly for operators and
// tests.
func (s *OutboxStore) Status(ctx context.Context, id string) (string, int, error) {
	if s == nil || s.repo == nil {
		return "", 0, fmt.Errorf("sqlstore: outbox store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return "", 0, err
	}
	return record.Status, record.Attempts, nil
}

func outboxRecordToMessage(record monitorOutboxRecord) monitor.Message {
	msg := monitor.Message{
		ID:             record.ID,
		Text:           record.Text,
		AttachmentPath: record.AttachmentPath,
		Attempts:       record.Attempts,
		LastError:      record.LastError,
		CreatedAt:      record.CreatedAt,
	}
	if record.NextAttemptAt != nil {
		next := record.NextAttemptAt.UTC()
		msg.NextAttemptAt = &next
	}
	return msg
}

// RETURNING does not guarantee row order.
func sortMessagesByCreation(messages []monitor.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
