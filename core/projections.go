package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	stagingAreaProcessed = "processed"
	stagingAreaDone      = "done"
	stagingAreaRejected  = "rejected"
)

func (s *Service) ListAdminInbox(ctx context.Context, user User) (views []AdminInboxEntry, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"user_id": user.ID}
	defer func() {
		fields["count"] = len(views)
		s.observeOperation(ctx, startedAt, "list_admin_inbox", err, fields)
	}()

	if err = s.requireStores(); err != nil {
		return nil, err
	}
	entries, err := s.inbox.FindPendingInboxEntries(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	views = make([]AdminInboxEntry, 0, len(entries))
	for _, entry := range entries {
		conflict, conflictErr := s.adminConflict(ctx, entry)
		if conflictErr != nil {
			return nil, s.mapError(conflictErr)
		}
		processed := s.isProcessed(entry)
		views = append(views, AdminInboxEntry{
			Entry:         entry,
			IsPhotoUpload: entry.IsPhotoUpload(),
			Processed:     processed,
			InboxURL:      s.entryInboxURL(entry, processed),
			Conflict:      conflict,
		})
	}
	return views, nil
}

func (s *Service) adminConflict(ctx context.Context, entry InboxEntry) (bool, error) {
	if entry.IsMissingStation() {
		return s.conflicts.CoordinatesHaveConflict(ctx, entry.ID, entry.Coordinates)
	}
	return s.conflicts.PendingForStation(ctx, entry.ID, entry.StationKey())
}

// UserInbox maps the user's own entries to their redacted state view. Ids
// that are unknown or belong to someone else come back as UNKNOWN.
func (s *Service) UserInbox(ctx context.Context, req UserInboxRequest) (views []InboxStateQuery, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_id":      req.User.ID,
		"requested":    len(req.IDs),
		"include_done": req.IncludeDone,
	}
	defer func() {
		fields["count"] = len(views)
		s.observeOperation(ctx, startedAt, "user_inbox", err, fields)
	}()

	if err = s.requireStores(); err != nil {
		return nil, err
	}
	if len(req.IDs) == 0 {
		entries, findErr := s.inbox.FindByUser(ctx, req.User.ID, req.IncludeDone)
		if findErr != nil {
			return nil, s.mapError(findErr)
		}
		views = make([]InboxStateQuery, 0, len(entries))
		for _, entry := range entries {
			views = append(views, s.inboxStateQuery(entry))
		}
		return views, nil
	}

	views = make([]InboxStateQuery, 0, len(req.IDs))
	for _, id := range req.IDs {
		id = strings.TrimSpace(id)
		entry, ok, findErr := s.inbox.FindByID(ctx, id)
		if findErr != nil {
			return nil, s.mapError(findErr)
		}
		if !ok || entry.PhotographerID != req.User.ID {
			views = append(views, InboxStateQuery{ID: id, State: InboxStateUnknown})
			continue
		}
		views = append(views, s.inboxStateQuery(entry))
	}
	return views, nil
}

func (s *Service) inboxStateQuery(entry InboxEntry) InboxStateQuery {
	processed := s.isProcessed(entry)
	view := InboxStateQuery{
		ID:                entry.ID,
		CountryCode:       entry.CountryCode,
		StationID:         entry.StationID,
		Title:             firstNonBlank(entry.Title, entry.StationTitle),
		NewTitle:          entry.NewTitle,
		Coordinates:       entry.Coordinates,
		NewCoordinates:    entry.NewCoordinates,
		State:             inboxStateOf(entry),
		Comment:           entry.Comment,
		ProblemReportType: entry.ProblemReportType,
		Filename:          entry.Filename(),
		InboxURL:          s.entryInboxURL(entry, processed),
		CRC32:             entry.CRC32,
		CreatedAt:         entry.CreatedAt,
		Processed:         processed,
	}
	if view.Coordinates == nil {
		view.Coordinates = entry.StationCoordinates
	}
	if entry.RejectReason != nil {
		view.RejectedReason = *entry.RejectReason
	}
	return view
}

func inboxStateOf(entry InboxEntry) InboxStateQueryState {
	switch entry.State() {
	case InboxEntryAccepted:
		return InboxStateAccepted
	case InboxEntryRejected:
		return InboxStateRejected
	default:
		return InboxStateReview
	}
}

// PublicInbox lists pending uploads without photographer identity.
func (s *Service) PublicInbox(ctx context.Context) (views []PublicInboxEntry, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "public_inbox", err, map[string]any{"count": len(views)})
	}()

	if err = s.requireStores(); err != nil {
		return nil, err
	}
	rows, err := s.inbox.FindPublicInboxEntries(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	views = make([]PublicInboxEntry, 0, len(rows))
	for _, row := range rows {
		views = append(views, publicInboxEntry(row))
	}
	return views, nil
}

func publicInboxEntry(row PublicInboxRow) PublicInboxEntry {
	view := PublicInboxEntry{
		CountryCode: row.CountryCode,
		StationID:   row.StationID,
		Title:       firstNonBlank(row.StationTitle, row.Title),
		Coordinates: row.Coordinates,
	}
	if row.StationCoordinates != nil {
		view.Coordinates = row.StationCoordinates
	}
	return view
}

func (s *Service) CountPendingInboxEntries(ctx context.Context) (int, error) {
	if err := s.requireStores(); err != nil {
		return 0, err
	}
	count, err := s.inbox.CountPendingInboxEntries(ctx)
	if err != nil {
		return 0, s.mapError(err)
	}
	return count, nil
}

// NextZ returns the id the next community station would receive.
func (s *Service) NextZ(ctx context.Context) (string, error) {
	if err := s.requireStores(); err != nil {
		return "", err
	}
	maxZ, err := s.stations.MaxZ(ctx)
	if err != nil {
		return "", s.mapError(err)
	}
	return fmt.Sprintf("%s%d", communityStationPrefix, maxZ+1), nil
}

func (s *Service) ListRecentImports(ctx context.Context) ([]Station, error) {
	if err := s.requireStores(); err != nil {
		return nil, err
	}
	since := s.now().Add(-s.config.recentImportsWindow())
	stations, err := s.stations.FindRecentImports(ctx, since)
	if err != nil {
		return nil, s.mapError(err)
	}
	return stations, nil
}

func (s *Service) ListPhotographerStations(ctx context.Context, photographerID string) ([]Station, error) {
	if err := s.requireStores(); err != nil {
		return nil, err
	}
	photographerID = strings.TrimSpace(photographerID)
	if photographerID == "" {
		return nil, newValidationError("Photographer id is required")
	}
	stations, err := s.stations.FindByPhotographer(ctx, photographerID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return stations, nil
}

// PickRecentImport draws one recently imported station using the seeded
// random source from Config.RandomSeed.
func (s *Service) PickRecentImport(ctx context.Context) (Station, bool, error) {
	stations, err := s.ListRecentImports(ctx)
	if err != nil {
		return Station{}, false, err
	}
	if len(stations) == 0 {
		return Station{}, false, nil
	}
	s.randMu.Lock()
	idx := s.rand.Intn(len(stations))
	s.randMu.Unlock()
	return stations[idx], true, nil
}

func (s *Service) isProcessed(entry InboxEntry) bool {
	if s.storage == nil || entry.Done || !entry.HasPhoto() {
		return false
	}
	return s.storage.IsProcessed(entry.Filename())
}

// entryInboxURL points at the staging area the upload currently lives in, or
// at the permanent photo when the entry has no upload of its own.
func (s *Service) entryInboxURL(entry InboxEntry, processed bool) string {
	if filename := entry.Filename(); filename != "" {
		switch entry.State() {
		case InboxEntryAccepted:
			return s.inboxURLIn(stagingAreaDone, filename)
		case InboxEntryRejected:
			return s.inboxURLIn(stagingAreaRejected, filename)
		}
		if processed {
			return s.inboxURLIn(stagingAreaProcessed, filename)
		}
		return s.inboxURL(filename)
	}
	if entry.ExistingPhotoURLPath != "" {
		return strings.TrimRight(s.config.PhotoBaseURL, "/") + "/" + strings.TrimLeft(entry.ExistingPhotoURLPath, "/")
	}
	return ""
}
