package core

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const serviceLoggerName = "inbox"

type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	stations          StationStore
	photos            PhotoStore
	inbox             InboxStore
	users             UserStore
	countries         CountryStore
	storage           PhotoStorage
	monitor           Monitor
	conflicts         *ConflictDetector
	clock             func() time.Time

	randMu sync.Mutex
	rand   *rand.Rand
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	StationStore      StationStore
	PhotoStore        PhotoStore
	InboxStore        InboxStore
	UserStore         UserStore
	CountryStore      CountryStore
	PhotoStorage      PhotoStorage
	Monitor           Monitor
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(serviceLoggerName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(serviceLoggerName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = defaultClock
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repositoryFactory != nil {
		var stores StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			built, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			stores = built
		} else if provided, ok := builder.repositoryFactory.(StoreProvider); ok {
			stores = provided
		}
		if stores != nil {
			if builder.stationStore == nil {
				builder.stationStore = stores.StationStore()
			}
			if builder.photoStore == nil {
				builder.photoStore = stores.PhotoStore()
			}
			if builder.inboxStore == nil {
				builder.inboxStore = stores.InboxStore()
			}
			if builder.userStore == nil {
				builder.userStore = stores.UserStore()
			}
			if builder.countryStore == nil {
				builder.countryStore = stores.CountryStore()
			}
		}
	}
	if builder.monitor == nil {
		builder.monitor = NopMonitor{}
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		stations:          builder.stationStore,
		photos:            builder.photoStore,
		inbox:             builder.inboxStore,
		users:             builder.userStore,
		countries:         builder.countryStore,
		storage:           builder.photoStorage,
		monitor:           builder.monitor,
		conflicts:         NewConflictDetector(builder.stationStore, builder.inboxStore, finalConfig.Proximity),
		clock:             builder.clock,
		rand:              rand.New(rand.NewSource(finalConfig.RandomSeed)),
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		StationStore:      s.stations,
		PhotoStore:        s.photos,
		InboxStore:        s.inbox,
		UserStore:         s.users,
		CountryStore:      s.countries,
		PhotoStorage:      s.storage,
		Monitor:           s.monitor,
	}
}

// serviceErrorCarrier is implemented by domain errors that already know their
// envelope and must keep their sentinel chain for errors.Is.
type serviceErrorCarrier interface {
	ToServiceError() *goerrors.Error
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	var carrier serviceErrorCarrier
	if errors.As(err, &carrier) {
		return err
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil && s.errorFactory != nil {
		// Custom mappers may decline an error; it still leaves as an envelope.
		if mapped = s.errorFactory(err.Error(), goerrors.CategoryInternal); mapped != nil {
			mapped.Source = err
		}
	}
	if mapped == nil {
		return err
	}
	return ensureInboxErrorEnvelope(mapped)
}

func (s *Service) requireStores() error {
	switch {
	case s == nil:
		return newNotConfiguredError("inbox service")
	case s.inbox == nil:
		return newNotConfiguredError("inbox store")
	case s.stations == nil:
		return newNotConfiguredError("station store")
	}
	return nil
}

func (s *Service) requireImportPorts() error {
	if err := s.requireStores(); err != nil {
		return err
	}
	switch {
	case s.photos == nil:
		return newNotConfiguredError("photo store")
	case s.users == nil:
		return newNotConfiguredError("user store")
	case s.countries == nil:
		return newNotConfiguredError("country store")
	case s.storage == nil:
		return newNotConfiguredError("photo storage")
	}
	return nil
}

func (s *Service) now() time.Time {
	if s == nil || s.clock == nil {
		return defaultClock()
	}
	return s.clock()
}

// notify hands a message to the monitor. Failures are logged only.
func (s *Service) notify(ctx context.Context, msg MonitorMessage) {
	if s == nil || s.monitor == nil {
		return
	}
	if err := s.monitor.Send(ctx, msg); err != nil {
		s.logWarn(ctx, "monitor send failed", map[string]any{"error": err.Error()})
	}
}

// NopMonitor drops every message.
type NopMonitor struct{}

func (NopMonitor) Send(context.Context, MonitorMessage) error { return nil }
