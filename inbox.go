package inbox

import "github.com/goliatone/go-station-inbox/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type StationStore = core.StationStore
type PhotoStore = core.PhotoStore
type InboxStore = core.InboxStore
type UserStore = core.UserStore
type CountryStore = core.CountryStore
type PhotoStorage = core.PhotoStorage
type Monitor = core.Monitor

type UploadPhotoRequest = core.UploadPhotoRequest
type ReportProblemRequest = core.ReportProblemRequest
type UserInboxRequest = core.UserInboxRequest

type InboxResponse = core.InboxResponse

type AdminCommand = core.AdminCommand
type InboxCommand = core.InboxCommand

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithStationStore      = core.WithStationStore
	WithPhotoStore        = core.WithPhotoStore
	WithInboxStore        = core.WithInboxStore
	WithUserStore         = core.WithUserStore
	WithCountryStore      = core.WithCountryStore
	WithPhotoStorage      = core.WithPhotoStorage
	WithMonitor           = core.WithMonitor
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
