// Package config handles the loading and parsing of the application's configuration.
// It uses the Viper library to read from a YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pagewatch/internal/logger"
)

// EnvPrefix is prepended to every environment variable override,
// e.g. PAGEWATCH_STORAGE_STATE_FILE.
const EnvPrefix = "PAGEWATCH"

// Settings defines the overall configuration structure for pagewatch.
// It mirrors the structure of pagewatch.yaml and is populated by Viper.
type Settings struct {
	Monitor MonitorConfig `mapstructure:"monitor"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     logger.Config `mapstructure:"log"`
}

// MonitorConfig controls how pages are fetched and fingerprinted.
type MonitorConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgents   []string      `mapstructure:"user_agents"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	Algorithm    string        `mapstructure:"algorithm"`
	Mode         string        `mapstructure:"mode"`
	Selector     string        `mapstructure:"selector"`
}

// StorageConfig selects where website state and scan history live.
type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	StateFile   string `mapstructure:"state_file"`
	HistoryFile string `mapstructure:"history_file"`
}

// RedisConfig holds the configuration for the Redis state backend.
type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// WatchConfig holds the schedule used by the watch command.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// MetricsConfig controls the Prometheus endpoint exposed in watch mode.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Storage backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("monitor.timeout", 10*time.Second)
	v.SetDefault("monitor.user_agents", []string{"pagewatch/1.0"})
	v.SetDefault("monitor.max_body_bytes", int64(10<<20))
	v.SetDefault("monitor.algorithm", "md5")
	v.SetDefault("monitor.mode", "raw")
	v.SetDefault("monitor.selector", "")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.state_file", "website_state.json")
	v.SetDefault("storage.history_file", "pagewatch_history.csv")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.prefix", "pagewatch:")

	v.SetDefault("watch.schedule", "@every 15m")
	v.SetDefault("metrics.addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json_format", false)
}

// New returns a Viper instance wired for pagewatch: defaults, the PAGEWATCH_
// environment prefix and the config search path. An explicit path wins over
// the search path.
func New(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		return v
	}

	v.SetConfigName("pagewatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pagewatch"))
	}
	return v
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables are not overridden.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file (if any) into v and unmarshals it into Settings.
// A missing file is not an error when no explicit path was requested.
func Load(v *viper.Viper) (Settings, error) {
	var cfg Settings

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed as defaults.
func (s Settings) Validate() error {
	switch s.Storage.Backend {
	case BackendFile:
		if s.Storage.StateFile == "" {
			return errors.New("storage.state_file must be set")
		}
	case BackendRedis:
		if s.Redis.URL == "" {
			return errors.New("redis.url must be set when storage.backend is redis")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", s.Storage.Backend)
	}
	if s.Storage.HistoryFile == "" {
		return errors.New("storage.history_file must be set")
	}
	if s.Monitor.Timeout <= 0 {
		return errors.New("monitor.timeout must be positive")
	}
	return nil
}
