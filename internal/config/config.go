package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	BackendURL     string        `mapstructure:"backend_url"`
	DashboardPort  int           `mapstructure:"dashboard_port"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	AutoCloseDelay time.Duration `mapstructure:"auto_close_delay"`
	MaxDuration    time.Duration `mapstructure:"max_duration"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DBPath         string        `mapstructure:"db_path"`
	LogFile        string        `mapstructure:"log_file"`
}

var Default = Config{
	BackendURL:     "http://localhost:8000",
	DashboardPort:  9100,
	PollInterval:   2 * time.Second,
	AutoCloseDelay: 3 * time.Second,
	MaxDuration:    10 * time.Minute,
	RequestTimeout: 15 * time.Second,
	DBPath:         "eduseek.db",
	LogFile:        "eduseek.log",
}

// Dir returns ~/.eduseek, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	dir := filepath.Join(home, ".eduseek")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}

	return dir, nil
}

func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	return LoadFrom(dir)
}

// LoadFrom reads config.yaml from dir, falling back to defaults and
// EDUSEEK_* environment variables. Every call reads into a fresh viper
// instance, so a reload never touches state another goroutine is reading.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("backend_url", Default.BackendURL)
	v.SetDefault("dashboard_port", Default.DashboardPort)
	v.SetDefault("poll_interval", Default.PollInterval)
	v.SetDefault("auto_close_delay", Default.AutoCloseDelay)
	v.SetDefault("max_duration", Default.MaxDuration)
	v.SetDefault("request_timeout", Default.RequestTimeout)
	v.SetDefault("db_path", filepath.Join(dir, Default.DBPath))
	v.SetDefault("log_file", filepath.Join(dir, Default.LogFile))

	v.SetEnvPrefix("EDUSEEK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive, got %s", cfg.PollInterval)
	}

	return &cfg, nil
}
