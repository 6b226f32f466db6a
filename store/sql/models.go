package sqlstore

import (
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-station-inbox/core"
)

type countryRecord struct {
	bun.BaseModel `bun:"table:countries,alias:c"`

	Code            string  `bun:"code,pk"`
	Name            string  `bun:"name,notnull"`
	OverrideLicense *string `bun:"override_license"`
	Active          bool    `bun:"active,notnull"`
}

type userRecord struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            string `bun:"id,pk"`
	Name          string `bun:"name,notnull"`
	License       string `bun:"license,notnull"`
	EmailVerified bool   `bun:"email_verified,notnull"`
	OwnPhotos     bool   `bun:"own_photos,notnull"`
	Admin         bool   `bun:"admin,notnull"`
}

type stationRecord struct {
	bun.BaseModel `bun:"table:stations,alias:st"`

	CountryCode string  `bun:"country_code,pk"`
	ID          string  `bun:"id,pk"`
	Title       string  `bun:"title,notnull"`
	Lat         float64 `bun:"lat,notnull"`
	Lon         float64 `bun:"lon,notnull"`
	DS100       string  `bun:"ds100,notnull"`
	Active      bool    `bun:"active,notnull"`
}

type photoRecord struct {
	bun.BaseModel `bun:"table:photos,alias:ph"`

	ID             string    `bun:"id,pk"`
	CountryCode    string    `bun:"country_code,notnull"`
	StationID      string    `bun:"station_id,notnull"`
	IsPrimary      bool      `bun:"is_primary,notnull"`
	URLPath        string    `bun:"url_path,notnull"`
	PhotographerID string    `bun:"photographer_id,notnull"`
	License        string    `bun:"license,notnull"`
	Outdated       bool      `bun:"outdated,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// photoRow is a photo joined with its photographer.
type photoRow struct {
	photoRecord `bun:",extend"`

	PhotographerName          string `bun:"photographer_name"`
	PhotographerLicense       string `bun:"photographer_license"`
	PhotographerEmailVerified bool   `bun:"photographer_email_verified"`
	PhotographerOwnPhotos     bool   `bun:"photographer_own_photos"`
	PhotographerAdmin         bool   `bun:"photographer_admin"`
}

type inboxEntryRecord struct {
	bun.BaseModel `bun:"table:inbox_entries,alias:ie"`

	ID                string    `bun:"id,pk"`
	CountryCode       string    `bun:"country_code,notnull"`
	StationID         string    `bun:"station_id,notnull"`
	PhotoID           string    `bun:"photo_id,notnull"`
	Title             string    `bun:"title,notnull"`
	NewTitle          string    `bun:"new_title,notnull"`
	Lat               *float64  `bun:"lat"`
	Lon               *float64  `bun:"lon"`
	NewLat            *float64  `bun:"new_lat"`
	NewLon            *float64  `bun:"new_lon"`
	PhotographerID    string    `bun:"photographer_id,notnull"`
	Extension         string    `bun:"extension,notnull"`
	Comment           string    `bun:"comment,notnull"`
	RejectReason      *string   `bun:"reject_reason"`
	ProblemReportType *string   `bun:"problem_report_type"`
	Active            *bool     `bun:"active"`
	CRC32             *int64    `bun:"crc32"`
	Done              bool      `bun:"done,notnull"`
	Notified          bool      `bun:"notified,notnull"`
	Posted            bool      `bun:"posted,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

// inboxEntryRow carries the read-side columns joined from users, photos and
// stations.
type inboxEntryRow struct {
	inboxEntryRecord `bun:",extend"`

	PhotographerName     string   `bun:"photographer_name"`
	ExistingPhotoURLPath string   `bun:"existing_photo_url_path"`
	StationTitle         string   `bun:"station_title"`
	StationLat           *float64 `bun:"station_lat"`
	StationLon           *float64 `bun:"station_lon"`
}

type publicInboxRow struct {
	CountryCode  string   `bun:"country_code"`
	StationID    string   `bun:"station_id"`
	Title        string   `bun:"title"`
	Lat          *float64 `bun:"lat"`
	Lon          *float64 `bun:"lon"`
	StationTitle string   `bun:"station_title"`
	StationLat   *float64 `bun:"station_lat"`
	StationLon   *float64 `bun:"station_lon"`
}

type monitorOutboxRecord struct {
	bun.BaseModel `bun:"table:monitor_outbox,alias:mo"`

	ID             string     `bun:"id,pk"`
	Text           string     `bun:"text,notnull"`
	AttachmentPath string     `bun:"attachment_path,notnull"`
	Status         string     `bun:"status,notnull"`
	Attempts       int        `bun:"attempts,notnull"`
	NextAttemptAt  *time.Time `bun:"next_attempt_at,nullzero"`
	LastError      string     `bun:"last_error,notnull"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r countryRecord) toDomain() core.Country {
	country := core.Country{
		Code:   r.Code,
		Name:   r.Name,
		Active: r.Active,
	}
	if r.OverrideLicense != nil && strings.TrimSpace(*r.OverrideLicense) != "" {
		license := core.License(strings.TrimSpace(*r.OverrideLicense))
		country.OverrideLicense = &license
	}
	return country
}

func (r userRecord) toDomain() core.User {
	return core.User{
		ID:            r.ID,
		Name:          r.Name,
		License:       core.License(r.License),
		EmailVerified: r.EmailVerified,
		OwnPhotos:     r.OwnPhotos,
		Admin:         r.Admin,
	}
}

func newStationRecord(station core.Station) *stationRecord {
	return &stationRecord{
		CountryCode: strings.TrimSpace(station.Key.Country),
		ID:          strings.TrimSpace(station.Key.ID),
		Title:       strings.TrimSpace(station.Title),
		Lat:         station.Coordinates.Lat,
		Lon:         station.Coordinates.Lon,
		DS100:       strings.TrimSpace(station.DS100),
		Active:      station.Active,
	}
}

func (r stationRecord) toDomain(photos []core.Photo) core.Station {
	return core.Station{
		Key:         core.StationKey{Country: r.CountryCode, ID: r.ID},
		Title:       r.Title,
		Coordinates: core.Coordinates{Lat: r.Lat, Lon: r.Lon},
		DS100:       r.DS100,
		Active:      r.Active,
		Photos:      photos,
	}
}

func newPhotoRecord(photo core.Photo) *photoRecord {
	return &photoRecord{
		ID:             strings.TrimSpace(photo.ID),
		CountryCode:    strings.TrimSpace(photo.StationKey.Country),
		StationID:      strings.TrimSpace(photo.StationKey.ID),
		IsPrimary:      photo.Primary,
		URLPath:        strings.TrimSpace(photo.URLPath),
		PhotographerID: strings.TrimSpace(photo.Photographer.ID),
		License:        string(photo.License),
		Outdated:       photo.Outdated,
		CreatedAt:      photo.CreatedAt.UTC(),
	}
}

func (r photoRow) toDomain() core.Photo {
	return core.Photo{
		ID:         r.ID,
		StationKey: core.StationKey{Country: r.CountryCode, ID: r.StationID},
		Primary:    r.IsPrimary,
		URLPath:    r.URLPath,
		Photographer: core.User{
			ID:            r.PhotographerID,
			Name:          r.PhotographerName,
			License:       core.License(r.PhotographerLicense),
			EmailVerified: r.PhotographerEmailVerified,
			OwnPhotos:     r.PhotographerOwnPhotos,
			Admin:         r.PhotographerAdmin,
		},
		License:   core.License(r.License),
		CreatedAt: r.CreatedAt,
		Outdated:  r.Outdated,
	}
}

func newInboxEntryRecord(entry core.InboxEntry) *inboxEntryRecord {
	record := &inboxEntryRecord{
		ID:             strings.TrimSpace(entry.ID),
		CountryCode:    strings.TrimSpace(entry.CountryCode),
		StationID:      strings.TrimSpace(entry.StationID),
		PhotoID:        strings.TrimSpace(entry.PhotoID),
		Title:          strings.TrimSpace(entry.Title),
		NewTitle:       strings.TrimSpace(entry.NewTitle),
		PhotographerID: strings.TrimSpace(entry.PhotographerID),
		Extension:      strings.TrimSpace(entry.Extension),
		Comment:        entry.Comment,
		RejectReason:   entry.RejectReason,
		Active:         entry.Active,
		Done:           entry.Done,
		Notified:       entry.Notified,
		Posted:         entry.Posted,
		CreatedAt:      entry.CreatedAt.UTC(),
	}
	record.Lat, record.Lon = splitCoordinates(entry.Coordinates)
	record.NewLat, record.NewLon = splitCoordinates(entry.NewCoordinates)
	if entry.ProblemReportType != nil {
		value := string(*entry.ProblemReportType)
		record.ProblemReportType = &value
	}
	if entry.CRC32 != nil {
		value := int64(*entry.CRC32)
		record.CRC32 = &value
	}
	return record
}

func (r inboxEntryRow) toDomain() core.InboxEntry {
	entry := core.InboxEntry{
		ID:                   r.ID,
		CountryCode:          r.CountryCode,
		StationID:            r.StationID,
		PhotoID:              r.PhotoID,
		Title:                r.Title,
		NewTitle:             r.NewTitle,
		Coordinates:          joinCoordinates(r.Lat, r.Lon),
		NewCoordinates:       joinCoordinates(r.NewLat, r.NewLon),
		PhotographerID:       r.PhotographerID,
		PhotographerName:     r.PhotographerName,
		Extension:            r.Extension,
		Comment:              r.Comment,
		RejectReason:         r.RejectReason,
		CreatedAt:            r.CreatedAt,
		Done:                 r.Done,
		Active:               r.Active,
		Notified:             r.Notified,
		Posted:               r.Posted,
		ExistingPhotoURLPath: r.ExistingPhotoURLPath,
		StationTitle:         r.StationTitle,
		StationCoordinates:   joinCoordinates(r.StationLat, r.StationLon),
	}
	if r.ProblemReportType != nil && strings.TrimSpace(*r.ProblemReportType) != "" {
		reportType := core.ProblemReportType(*r.ProblemReportType)
		entry.ProblemReportType = &reportType
	}
	if r.CRC32 != nil {
		value := uint32(*r.CRC32)
		entry.CRC32 = &value
	}
	return entry
}

func (r publicInboxRow) toDomain() core.PublicInboxRow {
	return core.PublicInboxRow{
		CountryCode:        r.CountryCode,
		StationID:          r.StationID,
		Title:              r.Title,
		Coordinates:        joinCoordinates(r.Lat, r.Lon),
		StationTitle:       r.StationTitle,
		StationCoordinates: joinCoordinates(r.StationLat, r.StationLon),
	}
}

func splitCoordinates(coordinates *core.Coordinates) (*float64, *float64) {
	if coordinates == nil {
		return nil, nil
	}
	lat, lon := coordinates.Lat, coordinates.Lon
	return &lat, &lon
}

func joinCoordinates(lat *float64, lon *float64) *core.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &core.Coordinates{Lat: *lat, Lon: *lon}
}
