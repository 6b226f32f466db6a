package core

import (
	"io"
	"strings"
	"time"
)

type License string

const (
	LicenseCC0          License = "CC0_10"
	LicenseCCBY30       License = "CC_BY_30"
	LicenseCCBYSA40     License = "CC_BY_SA_40"
	LicenseCCBYNCSA30DE License = "CC_BY_NC_SA_30_DE"
	LicenseCCBYNC40Intl License = "CC_BY_NC_40_INT"
	LicenseUnknown      License = "UNKNOWN"
)

const (
	ExtensionJPG = "jpg"
	ExtensionPNG = "png"

	RejectReasonStationDeleted  = "Station has been deleted"
	RejectReasonWithdrawnByUser = "Withdrawn by user"

	communityStationPrefix = "Z"
)

type StationKey struct {
	Country string `json:"country"`
	ID      string `json:"id"`
}

func (k StationKey) String() string {
	return k.Country + ":" + k.ID
}

func (k StationKey) IsCommunityStation() bool {
	return strings.HasPrefix(k.ID, communityStationPrefix)
}

type User struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	License       License `json:"license"`
	EmailVerified bool    `json:"email_verified"`
	OwnPhotos     bool    `json:"own_photos"`
	Admin         bool    `json:"admin"`
}

func (u User) EligibleToUploadPhoto() bool {
	return u.EmailVerified && u.OwnPhotos
}

func (u User) EligibleToReportProblem() bool {
	return u.EmailVerified
}

type Country struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	OverrideLicense *License `json:"override_license,omitempty"`
	Active          bool     `json:"active"`
}

// ResolveLicense applies the freedom-of-panorama rule: a country override
// always wins over the photographer's personal license.
func ResolveLicense(photographer User, country Country) License {
	if country.OverrideLicense != nil && *country.OverrideLicense != "" {
		return *country.OverrideLicense
	}
	return photographer.License
}

type Photo struct {
	ID           string     `json:"id"`
	StationKey   StationKey `json:"station_key"`
	Primary      bool       `json:"primary"`
	URLPath      string     `json:"url_path"`
	Photographer User       `json:"photographer"`
	License      License    `json:"license"`
	CreatedAt    time.Time  `json:"created_at"`
	Outdated     bool       `json:"outdated"`
}

type Station struct {
	Key         StationKey  `json:"key"`
	Title       string      `json:"title"`
	Coordinates Coordinates `json:"coordinates"`
	DS100       string      `json:"ds100,omitempty"`
	Active      bool        `json:"active"`
	Photos      []Photo     `json:"photos,omitempty"`
}

func (s Station) HasPhoto() bool {
	return len(s.Photos) > 0
}

func (s Station) PrimaryPhoto() (Photo, bool) {
	for _, photo := range s.Photos {
		if photo.Primary {
			return photo, true
		}
	}
	return Photo{}, false
}

func (s Station) PhotoByID(id string) (Photo, bool) {
	for _, photo := range s.Photos {
		if photo.ID == id {
			return photo, true
		}
	}
	return Photo{}, false
}

type ProblemReportType string

const (
	ProblemReportWrongLocation      ProblemReportType = "WRONG_LOCATION"
	ProblemReportStationActive      ProblemReportType = "STATION_ACTIVE"
	ProblemReportStationInactive    ProblemReportType = "STATION_INACTIVE"
	ProblemReportStationNonexistent ProblemReportType = "STATION_NONEXISTENT"
	ProblemReportWrongPhoto         ProblemReportType = "WRONG_PHOTO"
	ProblemReportPhotoOutdated      ProblemReportType = "PHOTO_OUTDATED"
	ProblemReportOther              ProblemReportType = "OTHER"
	ProblemReportWrongName          ProblemReportType = "WRONG_NAME"
	ProblemReportDuplicate          ProblemReportType = "DUPLICATE"
)

func (t ProblemReportType) IsValid() bool {
	switch t {
	case ProblemReportWrongLocation, ProblemReportStationActive, ProblemReportStationInactive,
		ProblemReportStationNonexistent, ProblemReportWrongPhoto, ProblemReportPhotoOutdated,
		ProblemReportOther, ProblemReportWrongName, ProblemReportDuplicate:
		return true
	default:
		return false
	}
}

func (t ProblemReportType) NeedsPhoto() bool {
	return t == ProblemReportWrongPhoto || t == ProblemReportPhotoOutdated
}

type ProblemReport struct {
	CountryCode string            `json:"country_code"`
	StationID   string            `json:"station_id"`
	PhotoID     string            `json:"photo_id,omitempty"`
	Type        ProblemReportType `json:"type"`
	Comment     string            `json:"comment"`
	Coordinates *Coordinates      `json:"coordinates,omitempty"`
	Title       string            `json:"title,omitempty"`
}

type InboxEntryState string

const (
	InboxEntryPending  InboxEntryState = "PENDING"
	InboxEntryAccepted InboxEntryState = "ACCEPTED"
	InboxEntryRejected InboxEntryState = "REJECTED"
)

type InboxEntry struct {
	ID                string             `json:"id"`
	CountryCode       string             `json:"country_code,omitempty"`
	StationID         string             `json:"station_id,omitempty"`
	PhotoID           string             `json:"photo_id,omitempty"`
	Title             string             `json:"title,omitempty"`
	NewTitle          string             `json:"new_title,omitempty"`
	Coordinates       *Coordinates       `json:"coordinates,omitempty"`
	NewCoordinates    *Coordinates       `json:"new_coordinates,omitempty"`
	PhotographerID    string             `json:"photographer_id"`
	PhotographerName  string             `json:"photographer_name,omitempty"`
	Extension         string             `json:"extension,omitempty"`
	Comment           string             `json:"comment,omitempty"`
	RejectReason      *string            `json:"reject_reason,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	Done              bool               `json:"done"`
	ProblemReportType *ProblemReportType `json:"problem_report_type,omitempty"`
	Active            *bool              `json:"active,omitempty"`
	CRC32             *uint32            `json:"crc32,omitempty"`
	Notified          bool               `json:"notified"`
	Posted            bool               `json:"posted"`

	// Read-side fields joined in by the inbox store.
	ExistingPhotoURLPath string       `json:"existing_photo_url_path,omitempty"`
	StationTitle         string       `json:"station_title,omitempty"`
	StationCoordinates   *Coordinates `json:"station_coordinates,omitempty"`
}

func (e InboxEntry) IsProblemReport() bool {
	return e.ProblemReportType != nil
}

func (e InboxEntry) HasPhoto() bool {
	return e.Extension != ""
}

func (e InboxEntry) IsPhotoUpload() bool {
	return e.HasPhoto() && !e.IsProblemReport()
}

func (e InboxEntry) IsMissingStation() bool {
	return e.StationID == "" && !e.IsProblemReport()
}

func (e InboxEntry) StationKey() StationKey {
	return StationKey{Country: e.CountryCode, ID: e.StationID}
}

func (e InboxEntry) Filename() string {
	return UploadFilename(e.ID, e.Extension)
}

func (e InboxEntry) State() InboxEntryState {
	switch {
	case !e.Done:
		return InboxEntryPending
	case e.RejectReason == nil:
		return InboxEntryAccepted
	default:
		return InboxEntryRejected
	}
}

func UploadFilename(id string, extension string) string {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(extension) == "" {
		return ""
	}
	return id + "." + extension
}

func ExtensionForContentType(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ExtensionJPG
	case "image/png":
		return ExtensionPNG
	default:
		return ""
	}
}

type InboxResponseState string

const (
	InboxResponseReview                 InboxResponseState = "REVIEW"
	InboxResponseLatLonOutOfRange       InboxResponseState = "LAT_LON_OUT_OF_RANGE"
	InboxResponseNotEnoughData          InboxResponseState = "NOT_ENOUGH_DATA"
	InboxResponseUnsupportedContentType InboxResponseState = "UNSUPPORTED_CONTENT_TYPE"
	InboxResponsePhotoTooLarge          InboxResponseState = "PHOTO_TOO_LARGE"
	InboxResponseConflict               InboxResponseState = "CONFLICT"
	InboxResponseUnauthorized           InboxResponseState = "UNAUTHORIZED"
	InboxResponseError                  InboxResponseState = "ERROR"
)

type InboxResponse struct {
	State    InboxResponseState `json:"state"`
	Message  string             `json:"message,omitempty"`
	ID       string             `json:"id,omitempty"`
	Filename string             `json:"filename,omitempty"`
	InboxURL string             `json:"inbox_url,omitempty"`
	CRC32    *uint32            `json:"crc32,omitempty"`
}

type UploadPhotoRequest struct {
	ClientInfo   string
	Body         io.Reader
	StationID    string
	CountryCode  string
	ContentType  string
	StationTitle string
	Lat          *float64
	Lon          *float64
	Comment      string
	Active       *bool
	User         User
}

type ReportProblemRequest struct {
	Report     ProblemReport
	User       User
	ClientInfo string
}

// UserInboxRequest selects entries by id when IDs is set, otherwise every
// entry of the user (pending only unless IncludeDone).
type UserInboxRequest struct {
	User        User
	IDs         []string
	IncludeDone bool
}

type PublicInboxRow struct {
	CountryCode        string
	StationID          string
	Title              string
	Coordinates        *Coordinates
	StationTitle       string
	StationCoordinates *Coordinates
}

type PublicInboxEntry struct {
	CountryCode string       `json:"country_code"`
	StationID   string       `json:"station_id,omitempty"`
	Title       string       `json:"title"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type AdminInboxEntry struct {
	Entry         InboxEntry `json:"entry"`
	IsPhotoUpload bool       `json:"is_photo_upload"`
	Processed     bool       `json:"processed"`
	InboxURL      string     `json:"inbox_url,omitempty"`
	Conflict      bool       `json:"conflict"`
}

type InboxStateQueryState string

const (
	InboxStateReview   InboxStateQueryState = "REVIEW"
	InboxStateAccepted InboxStateQueryState = "ACCEPTED"
	InboxStateRejected InboxStateQueryState = "REJECTED"
	InboxStateUnknown  InboxStateQueryState = "UNKNOWN"
)

type InboxStateQuery struct {
	ID                string               `json:"id"`
	CountryCode       string               `json:"country_code,omitempty"`
	StationID         string               `json:"station_id,omitempty"`
	Title             string               `json:"title,omitempty"`
	NewTitle          string               `json:"new_title,omitempty"`
	Coordinates       *Coordinates         `json:"coordinates,omitempty"`
	NewCoordinates    *Coordinates         `json:"new_coordinates,omitempty"`
	State             InboxStateQueryState `json:"state"`
	Comment           string               `json:"comment,omitempty"`
	ProblemReportType *ProblemReportType   `json:"problem_report_type,omitempty"`
	RejectedReason    string               `json:"rejected_reason,omitempty"`
	Filename          string               `json:"filename,omitempty"`
	InboxURL          string               `json:"inbox_url,omitempty"`
	CRC32             *uint32              `json:"crc32,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	Processed         bool                 `json:"processed"`
}

type MonitorMessage struct {
	Text           string
	AttachmentPath string
}
