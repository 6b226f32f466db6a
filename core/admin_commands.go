package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProcessAdminCommand runs one administrator decision against its inbox
// entry.
func (s *Service) ProcessAdminCommand(ctx context.Context, cmd AdminCommand) error {
	if cmd == nil {
		return newValidationError("Command is required")
	}
	return cmd.accept(adminCommandRunner{ctx: ctx, service: s})
}

type adminCommandRunner struct {
	ctx     context.Context
	service *Service
}

func (r adminCommandRunner) VisitImportPhoto(cmd ImportPhotoCommand) error {
	return r.service.ImportPhoto(r.ctx, cmd.InboxCommand)
}

func (r adminCommandRunner) VisitImportMissingStation(cmd ImportMissingStationCommand) error {
	return r.service.ImportMissingStation(r.ctx, cmd.InboxCommand)
}

func (r adminCommandRunner) VisitActivateStation(cmd ActivateStationCommand) error {
	return r.service.UpdateStationActiveState(r.ctx, cmd.InboxCommand, true)
}

func (r adminCommandRunner) VisitDeactivateStation(cmd DeactivateStationCommand) error {
	return r.service.UpdateStationActiveState(r.ctx, cmd.InboxCommand, false)
}

func (r adminCommandRunner) VisitDeleteStation(cmd DeleteStationCommand) error {
	return r.service.DeleteStation(r.ctx, cmd.InboxCommand)
}

func (r adminCommandRunner) VisitDeletePhoto(cmd DeletePhotoCommand) error {
	return r.service.DeletePhoto(r.ctx, cmd.InboxCommand)
}

func (r adminCommandRunner) VisitMarkSolved(cmd MarkSolvedCommand) error {
	return r.service.MarkProblemReportSolved(r.ctx, cmd.InboxCommand)
}

func (r adminCommandRunner) VisitReject(cmd RejectCommand) error {
	return r.service.RejectInboxEntry(r.ctx, cmd.InboxCommand)
}

func (r adminCommandRunner) VisitChangeName(cmd ChangeNameCommand) error {
	return r.service.ChangeStationTitle(r.ctx, cmd.InboxCommand)
}

func (r adminCommandRunner) VisitUpdateLocation(cmd UpdateLocationCommand) error {
	return r.service.UpdateLocation(r.ctx, cmd.InboxCommand)
}

func (r adminCommandRunner) VisitPhotoOutdated(cmd PhotoOutdatedCommand) error {
	return r.service.MarkPhotoOutdated(r.ctx, cmd.InboxCommand)
}

func (s *Service) RejectInboxEntry(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandReject)
	defer func() { s.observeOperation(ctx, startedAt, "reject_inbox_entry", err, fields) }()

	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	reason := strings.TrimSpace(cmd.RejectReason)
	if reason == "" {
		return newValidationError("Reject reason is required")
	}
	if err = s.inbox.Reject(ctx, entry.ID, reason); err != nil {
		return s.mapError(err)
	}
	s.rejectStagedFile(ctx, entry)
	return nil
}

func (s *Service) ImportPhoto(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandImportPhoto)
	defer func() { s.observeOperation(ctx, startedAt, "import_photo", err, fields) }()

	if err = s.requireImportPorts(); err != nil {
		return err
	}
	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	if !entry.IsPhotoUpload() {
		return newValidationError("No photo to import")
	}
	station, err := s.requireStation(ctx, cmd, entry)
	if err != nil {
		return err
	}
	photoID, err := s.importPhoto(ctx, cmd, entry, station)
	if err != nil {
		return err
	}
	fields["photo_id"] = photoID
	if err = s.inbox.Done(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) ImportMissingStation(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandImportMissingStation)
	defer func() { s.observeOperation(ctx, startedAt, "import_missing_station", err, fields) }()

	if err = s.requireImportPorts(); err != nil {
		return err
	}
	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	if entry.IsProblemReport() {
		return newValidationError("Can't import a problem report as missing station")
	}
	station, err := s.findOrCreateStation(ctx, cmd, entry)
	if err != nil {
		return err
	}
	fields["station_key"] = station.Key.String()

	if entry.HasPhoto() {
		photoID, importErr := s.importPhoto(ctx, cmd, entry, station)
		if importErr != nil {
			return importErr
		}
		fields["photo_id"] = photoID
	}
	if err = s.inbox.UpdateMissingStationImported(ctx, entry.ID, station.Key, station.Title); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) findOrCreateStation(ctx context.Context, cmd InboxCommand, entry InboxEntry) (Station, error) {
	countryCode := firstNonBlank(cmd.CountryCode, entry.CountryCode)
	stationID := strings.TrimSpace(cmd.StationID)
	if countryCode == "" || stationID == "" {
		return Station{}, newValidationError("Country code and station id are required")
	}
	existing, err := s.findStation(ctx, countryCode, stationID)
	if err != nil {
		return Station{}, s.mapError(err)
	}
	if existing != nil {
		return *existing, nil
	}

	if _, ok, findErr := s.countries.FindByID(ctx, countryCode); findErr != nil {
		return Station{}, s.mapError(findErr)
	} else if !ok {
		return Station{}, newValidationError(fmt.Sprintf("Country %s not found", countryCode))
	}
	if !strings.HasPrefix(stationID, communityStationPrefix) {
		return Station{}, newValidationError("Station ID can only be created with prefix " + communityStationPrefix)
	}
	coordinates := cmd.Coordinates
	if coordinates == nil {
		coordinates = entry.Coordinates
	}
	if !coordinatesPresent(coordinates) || !coordinates.IsValid() {
		return Station{}, newValidationError("No valid coordinates provided")
	}
	nearby, err := s.conflicts.CoordinatesHaveConflict(ctx, entry.ID, coordinates)
	if err != nil {
		return Station{}, s.mapError(err)
	}
	if nearby && !cmd.ConflictResolution.SolvesStationConflict() {
		return Station{}, newValidationError("There is a conflict with a nearby station")
	}
	title := firstNonBlank(cmd.Title, entry.Title)
	if title == "" {
		return Station{}, newValidationError("Station title can't be empty")
	}
	active := cmd.Active
	if active == nil {
		active = entry.Active
	}
	if active == nil {
		return Station{}, newValidationError("No Active flag provided")
	}

	maxZ, err := s.stations.MaxZ(ctx)
	if err != nil {
		return Station{}, s.mapError(err)
	}
	station := Station{
		Key:         StationKey{Country: countryCode, ID: fmt.Sprintf("%s%d", communityStationPrefix, maxZ+1)},
		Title:       title,
		Coordinates: *coordinates,
		DS100:       strings.TrimSpace(cmd.DS100),
		Active:      *active,
	}
	if err = s.stations.Insert(ctx, station); err != nil {
		return Station{}, s.mapError(err)
	}
	return station, nil
}

func (s *Service) DeleteStation(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandDeleteStation)
	defer func() { s.observeOperation(ctx, startedAt, "delete_station", err, fields) }()

	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	station, err := s.requireStation(ctx, cmd, entry)
	if err != nil {
		return err
	}
	if err = s.stations.Delete(ctx, station.Key); err != nil {
		return s.mapError(err)
	}
	if err = s.inbox.Done(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}

	others, err := s.inbox.FindPendingByStation(ctx, station.Key)
	if err != nil {
		return s.mapError(err)
	}
	rejected := 0
	for _, other := range others {
		if other.ID == entry.ID {
			continue
		}
		if err = s.inbox.Reject(ctx, other.ID, RejectReasonStationDeleted); err != nil {
			return s.mapError(err)
		}
		s.rejectStagedFile(ctx, other)
		rejected++
	}
	fields["cascade_rejected"] = rejected
	return nil
}

func (s *Service) DeletePhoto(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandDeletePhoto)
	defer func() { s.observeOperation(ctx, startedAt, "delete_photo", err, fields) }()

	if s.photos == nil {
		return newNotConfiguredError("photo store")
	}
	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	station, err := s.requireStation(ctx, cmd, entry)
	if err != nil {
		return err
	}
	photo, err := targetPhoto(station, entry)
	if err != nil {
		return err
	}
	fields["photo_id"] = photo.ID
	if err = s.photos.Delete(ctx, photo.ID); err != nil {
		return s.mapError(err)
	}
	if photo.Primary {
		for _, remaining := range station.Photos {
			if remaining.ID == photo.ID {
				continue
			}
			if err = s.photos.SetPrimary(ctx, remaining.ID); err != nil {
				return s.mapError(err)
			}
			fields["promoted_photo_id"] = remaining.ID
			break
		}
	}
	if err = s.inbox.Done(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) MarkPhotoOutdated(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandPhotoOutdated)
	defer func() { s.observeOperation(ctx, startedAt, "mark_photo_outdated", err, fields) }()

	if s.photos == nil {
		return newNotConfiguredError("photo store")
	}
	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	station, err := s.requireStation(ctx, cmd, entry)
	if err != nil {
		return err
	}
	photo, err := targetPhoto(station, entry)
	if err != nil {
		return err
	}
	fields["photo_id"] = photo.ID
	if err = s.photos.UpdatePhotoOutdated(ctx, photo.ID); err != nil {
		return s.mapError(err)
	}
	if err = s.inbox.Done(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) MarkProblemReportSolved(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandMarkSolved)
	defer func() { s.observeOperation(ctx, startedAt, "mark_problem_report_solved", err, fields) }()

	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	if err = s.inbox.Done(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) ChangeStationTitle(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandChangeName)
	defer func() { s.observeOperation(ctx, startedAt, "change_station_title", err, fields) }()

	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	title := firstNonBlank(cmd.Title, entry.NewTitle)
	if title == "" {
		return newValidationError("Empty new title: " + cmd.Title)
	}
	station, err := s.requireStation(ctx, cmd, entry)
	if err != nil {
		return err
	}
	if err = s.stations.ChangeTitle(ctx, station.Key, title); err != nil {
		return s.mapError(err)
	}
	if err = s.inbox.Done(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) UpdateLocation(ctx context.Context, cmd InboxCommand) (err error) {
	startedAt := time.Now().UTC()
	fields := commandFields(cmd, AdminCommandUpdateLocation)
	defer func() { s.observeOperation(ctx, startedAt, "update_location", err, fields) }()

	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	coordinates := cmd.Coordinates
	if coordinates == nil {
		coordinates = entry.NewCoordinates
	}
	if !coordinatesPresent(coordinates) || !coordinates.IsValid() {
		shown := Coordinates{}
		if coordinates != nil {
			shown = *coordinates
		}
		return newValidationError("Can't update location, coordinates: " + shown.String())
	}
	station, err := s.requireStation(ctx, cmd, entry)
	if err != nil {
		return err
	}
	if err = s.stations.UpdateLocation(ctx, station.Key, *coordinates); err != nil {
		return s.mapError(err)
	}
	if err = s.inbox.Done(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) UpdateStationActiveState(ctx context.Context, cmd InboxCommand, active bool) (err error) {
	startedAt := time.Now().UTC()
	kind := AdminCommandDeactivateStation
	if active {
		kind = AdminCommandActivateStation
	}
	fields := commandFields(cmd, kind)
	defer func() { s.observeOperation(ctx, startedAt, "update_station_active_state", err, fields) }()

	entry, err := s.loadPendingEntry(ctx, cmd.ID)
	if err != nil {
		return err
	}
	station, err := s.requireStation(ctx, cmd, entry)
	if err != nil {
		return err
	}
	if err = s.stations.UpdateActive(ctx, station.Key, active); err != nil {
		return s.mapError(err)
	}
	if err = s.inbox.Done(ctx, entry.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) loadPendingEntry(ctx context.Context, id string) (InboxEntry, error) {
	if err := s.requireStores(); err != nil {
		return InboxEntry{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return InboxEntry{}, newValidationError("No pending inbox entry found")
	}
	entry, ok, err := s.inbox.FindByID(ctx, id)
	if err != nil {
		return InboxEntry{}, s.mapError(err)
	}
	if !ok || entry.Done {
		return InboxEntry{}, newValidationError("No pending inbox entry found")
	}
	return entry, nil
}

// requireStation resolves the station addressed by the command, falling back
// to the station the entry was filed against.
func (s *Service) requireStation(ctx context.Context, cmd InboxCommand, entry InboxEntry) (Station, error) {
	key := entry.StationKey()
	if cmd.HasStationKey() {
		key = StationKey{Country: strings.TrimSpace(cmd.CountryCode), ID: strings.TrimSpace(cmd.StationID)}
	}
	station, err := s.findStation(ctx, key.Country, key.ID)
	if err != nil {
		return Station{}, s.mapError(err)
	}
	if station == nil {
		return Station{}, newValidationError("Station not found")
	}
	return *station, nil
}

// rejectStagedFile moves an upload to the rejected area. Failures are logged
// and never fail the rejection itself.
func (s *Service) rejectStagedFile(ctx context.Context, entry InboxEntry) {
	if s.storage == nil || !entry.IsPhotoUpload() {
		return
	}
	if err := s.storage.Reject(ctx, entry); err != nil {
		s.logWarn(ctx, "moving rejected upload failed", map[string]any{
			"entry_id": entry.ID,
			"filename": entry.Filename(),
			"error":    err.Error(),
		})
	}
}

func targetPhoto(station Station, entry InboxEntry) (Photo, error) {
	if !station.HasPhoto() {
		return Photo{}, newValidationError("Station has no photo")
	}
	if entry.PhotoID != "" {
		photo, ok := station.PhotoByID(entry.PhotoID)
		if !ok {
			return Photo{}, newValidationError("Photo with this id not found at station")
		}
		return photo, nil
	}
	if photo, ok := station.PrimaryPhoto(); ok {
		return photo, nil
	}
	return Photo{}, newValidationError("Station has no primary photo")
}

func commandFields(cmd InboxCommand, kind AdminCommandKind) map[string]any {
	fields := map[string]any{
		"entry_id": cmd.ID,
		"command":  string(kind),
	}
	if cmd.CountryCode != "" {
		fields["country_code"] = cmd.CountryCode
	}
	if cmd.StationID != "" {
		fields["station_id"] = cmd.StationID
	}
	if cmd.ConflictResolution != "" {
		fields["conflict_resolution"] = string(cmd.ConflictResolution)
	}
	return fields
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
