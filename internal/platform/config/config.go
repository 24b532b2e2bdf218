// Package config loads config.toml via viper, overridable by env vars,
// following the {host, port, db_url, cleanup.*} shape the service is
// configured with. Command-line flags are not read.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Cleanup struct {
	// Delay* are expressed in the config file as milliseconds.
	DelayShellResultsMs    int64  `mapstructure:"delay_shell_results"`
	DelayWithDataResultsMs int64  `mapstructure:"delay_with_data_results"`
	DelayReportsMs         int64  `mapstructure:"delay_reports"`
	Schedule               string `mapstructure:"schedule"`
}

type Config struct {
	Host    string  `mapstructure:"host"`
	Port    int     `mapstructure:"port"`
	DBURL   string  `mapstructure:"db_url"`
	NatsURL string  `mapstructure:"nats_url"`
	RedisURL string `mapstructure:"redis_url"`
	Cleanup Cleanup `mapstructure:"cleanup"`
}

func (c Cleanup) WithDataAge() time.Duration {
	return time.Duration(c.DelayWithDataResultsMs) * time.Millisecond
}

func (c Cleanup) ShellAge() time.Duration {
	return time.Duration(c.DelayShellResultsMs) * time.Millisecond
}

func (c Cleanup) ReportAge() time.Duration {
	return time.Duration(c.DelayReportsMs) * time.Millisecond
}

// Load reads config.toml from configPath (directory or file), applying
// TRACE_INSIGHTS_-prefixed env var overrides (e.g.
// TRACE_INSIGHTS_CLEANUP_SCHEDULE overrides cleanup.schedule) on top.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("cleanup.delay_shell_results", int64(3*24*time.Hour/time.Millisecond))
	v.SetDefault("cleanup.delay_with_data_results", int64(7*24*time.Hour/time.Millisecond))
	v.SetDefault("cleanup.delay_reports", int64(30*24*time.Hour/time.Millisecond))
	v.SetDefault("cleanup.schedule", "@every 1h")

	v.SetEnvPrefix("TRACE_INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
