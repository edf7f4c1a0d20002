// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend selectors.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendGCS      = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Storage StorageConfig `mapstructure:"storage"`
	MFC     MFCConfig     `mapstructure:"mfc"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	AssetsDir string `mapstructure:"assets_dir"`
}

// AuthConfig holds the admin credentials and session signing settings.
type AuthConfig struct {
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPassword     string `mapstructure:"admin_password"`
	SessionSecret     string `mapstructure:"session_secret"`
	SessionTTLSeconds int    `mapstructure:"session_ttl_seconds"`
}

// SessionTTL converts the configured TTL into a duration.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLSeconds) * time.Second
}

// StorageConfig selects and configures the collection document backend.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	Key       string `mapstructure:"key"`
	DSN       string `mapstructure:"dsn"`
	Table     string `mapstructure:"table"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// MFCConfig configures the upstream item-page scraper.
type MFCConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	AcceptLanguage string `mapstructure:"accept_language"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout converts the configured scrape timeout into a duration.
func (m MFCConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// PubSubConfig holds metadata for collection-update notifications. An empty
// project disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FIGVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.assets_dir", "public")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.session_ttl_seconds", 8*60*60)
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.key", "collection")
	v.SetDefault("storage.table", "documents")
	v.SetDefault("storage.prefix", "collections")
	v.SetDefault("mfc.base_url", "https://myfigurecollection.net")
	v.SetDefault("mfc.accept_language", "en-US,en;q=0.9")
	v.SetDefault("mfc.timeout_seconds", 15)
	v.SetDefault("logging.development", true)

	// Keys without meaningful defaults still need registering so
	// AutomaticEnv can surface them during Unmarshal.
	for _, key := range []string{
		"auth.admin_password",
		"auth.session_secret",
		"storage.dsn",
		"storage.gcs_bucket",
		"mfc.user_agent",
		"pubsub.project_id",
		"pubsub.topic_name",
	} {
		v.SetDefault(key, "")
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.AdminPassword == "" {
		return fmt.Errorf("auth.admin_password must be set")
	}
	if c.Auth.SessionTTLSeconds <= 0 {
		return fmt.Errorf("auth.session_ttl_seconds must be > 0")
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key must be set")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must be set for the postgres backend")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of %s, %s, %s",
			BackendMemory, BackendPostgres, BackendGCS)
	}
	if c.MFC.TimeoutSeconds <= 0 {
		return fmt.Errorf("mfc.timeout_seconds must be > 0")
	}
	if c.PubSub.ProjectID != "" && c.PubSub.TopicName == "" {
		return fmt.Errorf("pubsub.topic_name must be set when pubsub.project_id is set")
	}
	return nil
}
