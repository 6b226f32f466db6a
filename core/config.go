package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultMaxUploadSize       int64 = 20 * 1024 * 1024
	defaultRecentImportsWindow       = 24 * time.Hour
)

type StorageConfig struct {
	MaxUploadSize int64 `koanf:"max_upload_size" mapstructure:"max_upload_size"`
}

type RecentImportsConfig struct {
	Hours int `koanf:"hours" mapstructure:"hours"`
}

type MonitorConfig struct {
	BatchSize      int           `koanf:"batch_size" mapstructure:"batch_size"`
	MaxAttempts    int           `koanf:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff" mapstructure:"max_backoff"`
}

type Config struct {
	ServiceName   string              `koanf:"service_name" mapstructure:"service_name"`
	InboxBaseURL  string              `koanf:"inbox_base_url" mapstructure:"inbox_base_url"`
	PhotoBaseURL  string              `koanf:"photo_base_url" mapstructure:"photo_base_url"`
	Proximity     Proximity           `koanf:"proximity" mapstructure:"proximity"`
	Storage       StorageConfig       `koanf:"storage" mapstructure:"storage"`
	RecentImports RecentImportsConfig `koanf:"recent_imports" mapstructure:"recent_imports"`
	RandomSeed    int64               `koanf:"random_seed" mapstructure:"random_seed"`
	Monitor       MonitorConfig       `koanf:"monitor" mapstructure:"monitor"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:  "inbox",
		InboxBaseURL: "http://inbox.railway-stations.org",
		PhotoBaseURL: "https://api.railway-stations.org/photos",
		Proximity:    DefaultProximity(),
		Storage: StorageConfig{
			MaxUploadSize: defaultMaxUploadSize,
		},
		RecentImports: RecentImportsConfig{
			Hours: int(defaultRecentImportsWindow / time.Hour),
		},
		Monitor: MonitorConfig{
			BatchSize:      50,
			MaxAttempts:    5,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     5 * time.Minute,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Proximity.Threshold <= 0 || c.Proximity.LonKm <= 0 || c.Proximity.LatKm <= 0 {
		return fmt.Errorf("core: proximity lon_km, lat_km and threshold must be positive")
	}
	if c.Storage.MaxUploadSize < 0 {
		return fmt.Errorf("core: storage.max_upload_size must not be negative")
	}
	if c.RecentImports.Hours < 0 {
		return fmt.Errorf("core: recent_imports.hours must not be negative")
	}
	if c.Monitor.BatchSize < 0 || c.Monitor.MaxAttempts < 0 {
		return fmt.Errorf("core: monitor batch_size and max_attempts must not be negative")
	}
	return nil
}

func (c Config) recentImportsWindow() time.Duration {
	if c.RecentImports.Hours <= 0 {
		return defaultRecentImportsWindow
	}
	return time.Duration(c.RecentImports.Hours) * time.Hour
}
