// Package config loads the orchestrator's process-level settings (store
// DSN, run directory, concurrency, cache/event backends) the way the
// teacher's CLI layers viper over cobra flags and a config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the fully-resolved process configuration.
type Settings struct {
	StoreDSN    string        `mapstructure:"store_dsn"`
	RunDir      string        `mapstructure:"run_dir"`
	Concurrency int           `mapstructure:"concurrency"`
	LogLevel    string        `mapstructure:"log_level"`

	RedisAddr     string        `mapstructure:"redis_addr"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CacheCapacity int           `mapstructure:"cache_capacity"`
	EventsChannel string        `mapstructure:"events_channel"`
}

// defaults mirrors the spec's external-interface defaults: a local
// sqlite file, a run directory under the working directory, and up to
// four concurrently running tasks, so the orchestrator is usable with
// zero configuration.
func defaults() map[string]any {
	return map[string]any{
		"store_dsn":      "./taskflow.db",
		"run_dir":        "./dags",
		"concurrency":    4,
		"log_level":      "info",
		"cache_ttl":      10 * time.Minute,
		"cache_capacity": 1024,
		"events_channel": "taskflow:events",
	}
}

// Load builds Settings from, in ascending precedence: built-in defaults,
// a config file at configPath (if non-empty), and TASKFLOW_*-prefixed
// environment variables. configPath may be empty to skip file loading
// entirely.
func Load(configPath string) (Settings, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("taskflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return s, nil
}
