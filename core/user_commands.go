package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DeleteUserInboxEntry withdraws a pending submission on behalf of its owner.
// The entry is kept and rejected with RejectReasonWithdrawnByUser.
func (s *Service) DeleteUserInboxEntry(ctx context.Context, user User, id string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"entry_id": id,
		"user_id":  user.ID,
	}
	defer func() { s.observeOperation(ctx, startedAt, "delete_user_inbox_entry", err, fields) }()

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
	if entry.Done {
		return newValidationError(fmt.Sprintf("Inbox entry %s is already done", id))
	}
	if entry.PhotographerID != user.ID {
		return &InboxEntryNotOwnerError{ID: id, UserID: user.ID}
	}

	if err = s.inbox.Reject(ctx, entry.ID, RejectReasonWithdrawnByUser); err != nil {
		return s.mapError(err)
	}
	s.rejectStagedFile(ctx, entry)

	s.notify(ctx, MonitorMessage{
		Text: fmt.Sprintf("InboxEntry %s %s has been withdrawn by %s", entry.ID, entryLabel(entry), user.Name),
	})
	return nil
}

func entryLabel(entry InboxEntry) string {
	switch {
	case entry.StationID != "":
		return entry.CountryCode + ":" + entry.StationID
	case entry.Title != "":
		return entry.Title
	default:
		return entry.CountryCode
	}
}
