package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	duplicateMarker = " (possible duplicate!)"
	mapURLFormat    = "https://map.railway-stations.org/index.php?mlat=%v&mlon=%v&zoom=18&layers=M"
)

func (s *Service) UploadPhoto(ctx context.Context, req UploadPhotoRequest) (response InboxResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"country_code":    req.CountryCode,
		"station_id":      req.StationID,
		"photographer_id": req.User.ID,
		"client_info":     req.ClientInfo,
	}
	defer func() {
		fields["state"] = string(response.State)
		if response.ID != "" {
			fields["entry_id"] = response.ID
		}
		s.observeOperation(ctx, startedAt, "upload_photo", err, fields)
	}()

	if err = s.requireStores(); err != nil {
		return InboxResponse{}, err
	}
	if !req.User.EligibleToUploadPhoto() {
		return rejectUpload(InboxResponseUnauthorized, "Profile incomplete, not allowed to upload photos"), nil
	}

	station, err := s.findStation(ctx, req.CountryCode, req.StationID)
	if err != nil {
		return InboxResponse{}, s.mapError(err)
	}

	var coordinates *Coordinates
	if station == nil {
		if strings.TrimSpace(req.StationTitle) == "" || req.Lat == nil || req.Lon == nil {
			return rejectUpload(InboxResponseNotEnoughData, "Station not found and not enough data for missing station upload"), nil
		}
		coordinates = &Coordinates{Lat: *req.Lat, Lon: *req.Lon}
		if !coordinates.IsValid() {
			return rejectUpload(InboxResponseLatLonOutOfRange, "'lat' and/or 'lon' is out of range"), nil
		}
	}

	extension := ExtensionForContentType(req.ContentType)
	if station != nil && extension == "" {
		return rejectUpload(InboxResponseUnsupportedContentType, "unsupported content type (only jpg and png are supported)"), nil
	}
	if extension != "" && s.storage == nil {
		return InboxResponse{}, newNotConfiguredError("photo storage")
	}

	stationConflict, err := s.conflicts.StationHasConflict(ctx, "", station)
	if err != nil {
		return InboxResponse{}, s.mapError(err)
	}
	nearbyConflict, err := s.conflicts.CoordinatesHaveConflict(ctx, "", coordinates)
	if err != nil {
		return InboxResponse{}, s.mapError(err)
	}
	conflict := stationConflict || nearbyConflict

	entry := InboxEntry{
		CountryCode:      strings.TrimSpace(req.CountryCode),
		Title:            strings.TrimSpace(req.StationTitle),
		Coordinates:      coordinates,
		PhotographerID:   req.User.ID,
		PhotographerName: req.User.Name,
		Extension:        extension,
		Comment:          req.Comment,
		Active:           req.Active,
		CreatedAt:        s.now(),
	}
	if station != nil {
		entry.StationID = station.Key.ID
		entry.Title = ""
	}
	id, err := s.inbox.Insert(ctx, entry)
	if err != nil {
		return InboxResponse{}, s.mapError(err)
	}
	entry.ID = id

	response = InboxResponse{ID: id}
	if extension != "" {
		filename := entry.Filename()
		crc, storeErr := s.storage.StoreUpload(ctx, req.Body, filename)
		if storeErr != nil {
			var tooLarge *PhotoTooLargeError
			if errors.As(storeErr, &tooLarge) {
				return InboxResponse{ID: id, State: InboxResponsePhotoTooLarge, Message: tooLarge.Error()}, nil
			}
			s.logError(ctx, "storing upload failed", map[string]any{"entry_id": id, "error": storeErr.Error()})
			return InboxResponse{ID: id, State: InboxResponseError, Message: "Failed to store upload"}, nil
		}
		if err = s.inbox.UpdateCRC32(ctx, id, crc); err != nil {
			return InboxResponse{}, s.mapError(err)
		}
		response.Filename = filename
		response.InboxURL = s.inboxURL(filename)
		response.CRC32 = &crc
	}

	s.notify(ctx, s.uploadMessage(req, station, coordinates, response, conflict))

	response.State = InboxResponseReview
	if conflict {
		response.State = InboxResponseConflict
	}
	return response, nil
}

func (s *Service) uploadMessage(
	req UploadPhotoRequest,
	station *Station,
	coordinates *Coordinates,
	response InboxResponse,
	conflict bool,
) MonitorMessage {
	duplicate := ""
	if conflict {
		duplicate = duplicateMarker
	}
	var attachment string
	if response.Filename != "" && s.storage != nil {
		attachment = s.storage.UploadFile(response.Filename)
	}
	switch {
	case station != nil:
		return MonitorMessage{
			Text: fmt.Sprintf("New photo upload for %s - %s:%s\n%s\n%s%s\nby %s\nvia %s",
				station.Title, station.Key.Country, station.Key.ID, req.Comment,
				response.InboxURL, duplicate, req.User.Name, req.ClientInfo),
			AttachmentPath: attachment,
		}
	case response.Filename != "":
		return MonitorMessage{
			Text: fmt.Sprintf("Photo upload for missing station %s at "+mapURLFormat+"\n%s\n%s%s\nby %s\nvia %s",
				req.StationTitle, coordinates.Lat, coordinates.Lon, req.Comment,
				response.InboxURL, duplicate, req.User.Name, req.ClientInfo),
			AttachmentPath: attachment,
		}
	default:
		return MonitorMessage{
			Text: fmt.Sprintf("Report missing station %s at "+mapURLFormat+"\n%s%s\nby %s\nvia %s",
				req.StationTitle, coordinates.Lat, coordinates.Lon, req.Comment,
				duplicate, req.User.Name, req.ClientInfo),
		}
	}
}

func (s *Service) ReportProblem(ctx context.Context, req ReportProblemRequest) (response InboxResponse, err error) {
	startedAt := time.Now().UTC()
	report := req.Report
	fields := map[string]any{
		"country_code":    report.CountryCode,
		"station_id":      report.StationID,
		"problem_type":    string(report.Type),
		"photographer_id": req.User.ID,
	}
	defer func() {
		fields["state"] = string(response.State)
		if response.ID != "" {
			fields["entry_id"] = response.ID
		}
		s.observeOperation(ctx, startedAt, "report_problem", err, fields)
	}()

	if err = s.requireStores(); err != nil {
		return InboxResponse{}, err
	}
	if !req.User.EligibleToReportProblem() {
		return rejectUpload(InboxResponseUnauthorized, "Not authorized to report a problem"), nil
	}
	if !report.Type.IsValid() {
		return rejectUpload(InboxResponseNotEnoughData, fmt.Sprintf("Unknown problem type: %s", report.Type)), nil
	}

	station, err := s.findStation(ctx, report.CountryCode, report.StationID)
	if err != nil {
		return InboxResponse{}, s.mapError(err)
	}
	if station == nil {
		return rejectUpload(InboxResponseNotEnoughData, "Station not found"), nil
	}
	if strings.TrimSpace(report.Comment) == "" {
		return rejectUpload(InboxResponseNotEnoughData, "Comment is mandatory"), nil
	}

	photoID := strings.TrimSpace(report.PhotoID)
	if report.Type.NeedsPhoto() && !station.HasPhoto() {
		return rejectUpload(InboxResponseNotEnoughData, "Problem type is only applicable to station with photo"), nil
	}
	if photoID != "" {
		if _, ok := station.PhotoByID(photoID); !ok {
			return rejectUpload(InboxResponseNotEnoughData, "Photo with this id not found at station"), nil
		}
	} else if report.Type.NeedsPhoto() {
		if primary, ok := station.PrimaryPhoto(); ok {
			photoID = primary.ID
		}
	}

	problemType := report.Type
	entry := InboxEntry{
		CountryCode:       station.Key.Country,
		StationID:         station.Key.ID,
		PhotoID:           photoID,
		NewTitle:          strings.TrimSpace(report.Title),
		NewCoordinates:    report.Coordinates,
		PhotographerID:    req.User.ID,
		PhotographerName:  req.User.Name,
		Comment:           report.Comment,
		ProblemReportType: &problemType,
		CreatedAt:         s.now(),
	}
	id, err := s.inbox.Insert(ctx, entry)
	if err != nil {
		return InboxResponse{}, s.mapError(err)
	}

	s.notify(ctx, MonitorMessage{
		Text: fmt.Sprintf("New problem report for %s - %s:%s\n%s: %s\nby %s\nvia %s",
			station.Title, station.Key.Country, station.Key.ID, problemType, report.Comment,
			req.User.Name, req.ClientInfo),
	})

	return InboxResponse{State: InboxResponseReview, ID: id}, nil
}

func rejectUpload(state InboxResponseState, message string) InboxResponse {
	return InboxResponse{State: state, Message: message}
}

// findStation resolves a station only when both key parts are present.
func (s *Service) findStation(ctx context.Context, countryCode string, stationID string) (*Station, error) {
	countryCode = strings.TrimSpace(countryCode)
	stationID = strings.TrimSpace(stationID)
	if countryCode == "" || stationID == "" {
		return nil, nil
	}
	station, ok, err := s.stations.FindByKey(ctx, StationKey{Country: countryCode, ID: stationID})
	if err != nil || !ok {
		return nil, err
	}
	return &station, nil
}

func (s *Service) inboxURL(filename string) string {
	return s.inboxURLIn("", filename)
}

func (s *Service) inboxURLIn(area string, filename string) string {
	base := strings.TrimRight(s.config.InboxBaseURL, "/")
	if area != "" {
		base += "/" + strings.Trim(area, "/")
	}
	return base + "/" + url.PathEscape(filename)
}
