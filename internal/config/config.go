// Package config loads process-level settings for the larik daemon: the
// data directory, log level/format, and the metrics address. It also
// reads auto_archive_days, retention_days and max_result_rows into
// Config, but nothing applies those three values: the AppSettings kept
// in the embedded store (internal/store) fall back to
// model.DefaultAppSettings when none have been saved.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved process configuration.
type Config struct {
	DataDir          string
	LogLevel         string
	LogJSON          bool
	AutoArchiveDays  int
	RetentionDays    int
	MaxResultRows    int
	MetricsAddr      string
}

// Load resolves configuration from (in increasing precedence) defaults,
// a config file, and LARIK_-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "larik"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".larik"))
	}

	v.SetEnvPrefix("LARIK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("auto_archive_days", 14)
	v.SetDefault("retention_days", 90)
	v.SetDefault("max_result_rows", 1000)
	v.SetDefault("metrics_addr", "127.0.0.1:9090")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Config{
		DataDir:         v.GetString("data_dir"),
		LogLevel:        v.GetString("log_level"),
		LogJSON:         v.GetBool("log_json"),
		AutoArchiveDays: v.GetInt("auto_archive_days"),
		RetentionDays:   v.GetInt("retention_days"),
		MaxResultRows:   v.GetInt("max_result_rows"),
		MetricsAddr:     v.GetString("metrics_addr"),
	}, nil
}

// defaultDataDir returns the application's reverse-DNS-named folder
// under the platform user config directory, or ~/.larik when that
// directory is unknown.
func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dev.larik.studio")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".larik")
}

// DBPath returns the path of the single-file embedded database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "larik.db")
}
