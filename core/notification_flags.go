package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// MarkInboxEntriesNotified records that the photographers of ids were told
// about the outcome. It is one of the two updates allowed on done entries.
func (s *Service) MarkInboxEntriesNotified(ctx context.Context, ids []string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"entries": len(ids)}
	defer func() { s.observeOperation(ctx, startedAt, "mark_inbox_entries_notified", err, fields) }()

	if err = s.requireStores(); err != nil {
		return err
	}
	trimmed := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(trimmed, id) {
			trimmed = append(trimmed, id)
		}
	}
	if len(trimmed) == 0 {
		return newValidationError("No inbox entry ids provided")
	}
	if err = s.inbox.MarkNotified(ctx, trimmed); err != nil {
		return s.mapError(err)
	}
	return nil
}

// MarkInboxEntryPosted flags an imported entry as announced on social media.
func (s *Service) MarkInboxEntryPosted(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"entry_id": id}
	defer func() { s.observeOperation(ctx, startedAt, "mark_inbox_entry_posted", err, fields) }()

	if err = s.requireStores(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	entry, ok, err := s.inbox.FindByID(ctx, id)
	if err != nil {
		return s.mapError(err)
	}
	if !ok {
		return &InboxEntryNotFoundError{ID: id}
	}
	if entry.State() != InboxEntryAccepted {
		return newValidationError(fmt.Sprintf("Inbox entry %s has not been imported", id))
	}
	if err = s.inbox.MarkPosted(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}
