package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// StoreProvider is implemented by persistence adapters that can hand out all
// workflow ports at once.
type StoreProvider interface {
	StationStore() StationStore
	PhotoStore() PhotoStore
	InboxStore() InboxStore
	UserStore() UserStore
	CountryStore() CountryStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type serviceBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	stationStore      StationStore
	photoStore        PhotoStore
	inboxStore        InboxStore
	userStore         UserStore
	countryStore      CountryStore
	photoStorage      PhotoStorage
	monitor           Monitor
	clock             func() time.Time
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithStationStore(store StationStore) Option {
	return func(b *serviceBuilder) {
		b.stationStore = store
	}
}

func WithPhotoStore(store PhotoStore) Option {
	return func(b *serviceBuilder) {
		b.photoStore = store
	}
}

func WithInboxStore(store InboxStore) Option {
	return func(b *serviceBuilder) {
		b.inboxStore = store
	}
}

func WithUserStore(store UserStore) Option {
	return func(b *serviceBuilder) {
		b.userStore = store
	}
}

func WithCountryStore(store CountryStore) Option {
	return func(b *serviceBuilder) {
		b.countryStore = store
	}
}

func WithPhotoStorage(storage PhotoStorage) Option {
	return func(b *serviceBuilder) {
		b.photoStorage = storage
	}
}

func WithMonitor(monitor Monitor) Option {
	return func(b *serviceBuilder) {
		b.monitor = monitor
	}
}

// WithClock overrides the time source used for entry timestamps and the
// recent imports window.
func WithClock(clock func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.clock = clock
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve(serviceLoggerName, nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		clock:           defaultClock,
	}
}

func defaultClock() time.Time {
	return time.Now().UTC()
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return inboxErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader serves a fixed raw map, typically decoded from a
// config file by the host application.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// configToLayerMap emits only the keys a layer actually sets so that higher
// layers never reset lower ones to zero values.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = value
		}
	}
	setString(layer, "service_name", cfg.ServiceName)
	setString(layer, "inbox_base_url", cfg.InboxBaseURL)
	setString(layer, "photo_base_url", cfg.PhotoBaseURL)

	proximity := map[string]any{}
	if includeZero || cfg.Proximity.LonKm != 0 {
		proximity["lon_km"] = cfg.Proximity.LonKm
	}
	if includeZero || cfg.Proximity.LatKm != 0 {
		proximity["lat_km"] = cfg.Proximity.LatKm
	}
	if includeZero || cfg.Proximity.Threshold != 0 {
		proximity["threshold"] = cfg.Proximity.Threshold
	}
	if len(proximity) > 0 {
		layer["proximity"] = proximity
	}

	if includeZero || cfg.Storage.MaxUploadSize != 0 {
		layer["storage"] = map[string]any{
			"max_upload_size": cfg.Storage.MaxUploadSize,
		}
	}
	if includeZero || cfg.RecentImports.Hours != 0 {
		layer["recent_imports"] = map[string]any{
			"hours": cfg.RecentImports.Hours,
		}
	}
	if includeZero || cfg.RandomSeed != 0 {
		layer["random_seed"] = cfg.RandomSeed
	}

	monitor := map[string]any{}
	if includeZero || cfg.Monitor.BatchSize != 0 {
		monitor["batch_size"] = cfg.Monitor.BatchSize
	}
	if includeZero || cfg.Monitor.MaxAttempts != 0 {
		monitor["max_attempts"] = cfg.Monitor.MaxAttempts
	}
	if includeZero || cfg.Monitor.InitialBackoff != 0 {
		monitor["initial_backoff"] = cfg.Monitor.InitialBackoff
	}
	if includeZero || cfg.Monitor.MaxBackoff != 0 {
		monitor["max_backoff"] = cfg.Monitor.MaxBackoff
	}
	if len(monitor) > 0 {
		layer["monitor"] = monitor
	}
	return layer
}
