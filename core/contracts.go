package core

import (
	"context"
	"io"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// StationStore resolves and mutates stations. Lookups that may miss return
// ok=false instead of an error.
type StationStore interface {
	FindByKey(ctx context.Context, key StationKey) (station Station, ok bool, err error)
	FindRecentImports(ctx context.Context, since time.Time) ([]Station, error)
	FindByPhotographer(ctx context.Context, photographerID string) ([]Station, error)
	CountNearbyCoordinates(ctx context.Context, coordinates Coordinates, proximity Proximity) (int, error)
	Insert(ctx context.Context, station Station) error
	Delete(ctx context.Context, key StationKey) error
	UpdateActive(ctx context.Context, key StationKey, active bool) error
	UpdateLocation(ctx context.Context, key StationKey, coordinates Coordinates) error
	ChangeTitle(ctx context.Context, key StationKey, title string) error
	MaxZ(ctx context.Context) (int, error)
}

type PhotoStore interface {
	Insert(ctx context.Context, photo Photo) (string, error)
	Update(ctx context.Context, photo Photo) error
	Delete(ctx context.Context, id string) error
	SetAllPhotosForStationSecondary(ctx context.Context, key StationKey) error
	SetPrimary(ctx context.Context, id string) error
	UpdatePhotoOutdated(ctx context.Context, id string) error
}

type InboxStore interface {
	FindByID(ctx context.Context, id string) (entry InboxEntry, ok bool, err error)
	FindPendingInboxEntries(ctx context.Context) ([]InboxEntry, error)
	FindPublicInboxEntries(ctx context.Context) ([]PublicInboxRow, error)
	FindByUser(ctx context.Context, photographerID string, includeDone bool) ([]InboxEntry, error)
	FindPendingByStation(ctx context.Context, key StationKey) ([]InboxEntry, error)
	Insert(ctx context.Context, entry InboxEntry) (string, error)
	Reject(ctx context.Context, id string, reason string) error
	Done(ctx context.Context, id string) error
	UpdateCRC32(ctx context.Context, id string, crc32 uint32) error
	UpdatePhotoID(ctx context.Context, id string, photoID string) error
	UpdateMissingStationImported(ctx context.Context, id string, key StationKey, title string) error
	CountPendingInboxEntries(ctx context.Context) (int, error)
	CountPendingInboxEntriesForStation(ctx context.Context, excludeID string, key StationKey) (int, error)
	CountPendingInboxEntriesForNearbyCoordinates(
		ctx context.Context,
		excludeID string,
		coordinates Coordinates,
		proximity Proximity,
	) (int, error)
	MarkNotified(ctx context.Context, ids []string) error
	MarkPosted(ctx context.Context, id string) error
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (user User, ok bool, err error)
}

type CountryStore interface {
	FindByID(ctx context.Context, code string) (country Country, ok bool, err error)
}

// PhotoStorage owns the staged upload files and the permanent photo area.
type PhotoStorage interface {
	StoreUpload(ctx context.Context, body io.Reader, filename string) (crc32 uint32, err error)
	ImportPhoto(ctx context.Context, entry InboxEntry, station Station) (urlPath string, err error)
	Reject(ctx context.Context, entry InboxEntry) error
	IsProcessed(filename string) bool
	UploadFile(filename string) string
}

// Monitor receives operational notifications. Delivery failures never affect
// the outcome of the operation that produced the message.
type Monitor interface {
	Send(ctx context.Context, msg MonitorMessage) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type DispatchStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}

// MonitorDispatcher drains persisted monitor messages to their sinks.
type MonitorDispatcher interface {
	DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error)
}

// InboxService is the workflow surface consumed by the command and query
// packages and the root facade.
type InboxService interface {
	UploadPhoto(ctx context.Context, req UploadPhotoRequest) (InboxResponse, error)
	ReportProblem(ctx context.Context, req ReportProblemRequest) (InboxResponse, error)
	ProcessAdminCommand(ctx context.Context, cmd AdminCommand) error
	DeleteUserInboxEntry(ctx context.Context, user User, id string) error

	ListAdminInbox(ctx context.Context, user User) ([]AdminInboxEntry, error)
	UserInbox(ctx context.Context, req UserInboxRequest) ([]InboxStateQuery, error)
	PublicInbox(ctx context.Context) ([]PublicInboxEntry, error)
	CountPendingInboxEntries(ctx context.Context) (int, error)
	NextZ(ctx context.Context) (string, error)
	ListRecentImports(ctx context.Context) ([]Station, error)
	ListPhotographerStations(ctx context.Context, photographerID string) ([]Station, error)
	PickRecentImport(ctx context.Context) (Station, bool, error)
}
