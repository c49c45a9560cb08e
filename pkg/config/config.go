// Package config loads the engine's configuration once at startup from an
// optional YAML file and built-in defaults, then validates the result.
// Environment variables (FILEVAULT_ prefix) override only keys that the
// config file itself sets; when no config file is found, the built-in
// defaults are used and no environment variable is read. The frozen Config
// struct is threaded through construction explicitly — nothing re-reads
// viper lazily once Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/productinventor/filevault/internal/bytesize"
)

// Config is the engine's complete static configuration. Each field's key is
// its mapstructure path; the matching environment variable is that path
// under a FILEVAULT_ prefix with "." replaced by "_" (e.g. storage.path ->
// FILEVAULT_STORAGE_PATH).
//
// Configuration sources, in order of precedence:
//  1. Environment variables (FILEVAULT_*), only for keys the file sets
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Storage configures the content-addressed blob store and its
	// envelope encryption mode.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Database configures the metadata store (SQLite for dev/test,
	// PostgreSQL for production).
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Lock configures the per-file checkout lock manager.
	Lock LockConfig `mapstructure:"lock" yaml:"lock"`

	// Token configures the single-use download token service.
	Token TokenConfig `mapstructure:"token" yaml:"token"`

	// Deletion configures the secure-delete engine.
	Deletion DeletionConfig `mapstructure:"deletion" yaml:"deletion"`

	// Audit configures the audit log's informational retention window.
	Audit AuditConfig `mapstructure:"audit" yaml:"audit"`

	// API configures the download-token HTTP server.
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Metrics configures the Prometheus metrics server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// EncryptionMode selects whether content blobs are stored plaintext or
// envelope-encrypted.
type EncryptionMode string

const (
	EncryptionStandard  EncryptionMode = "standard"
	EncryptionEncrypted EncryptionMode = "encrypted"
)

// StorageConfig configures the content-addressed blob store.
type StorageConfig struct {
	// Path is the base directory for the hash fan-out layout.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// EncryptionMode is "standard" (plaintext blobs) or "encrypted"
	// (AES-256-GCM envelope encryption, per-project keys via HKDF).
	EncryptionMode EncryptionMode `mapstructure:"encryption_mode" validate:"required,oneof=standard encrypted" yaml:"encryption_mode"`

	// MasterKeyBase64 is the base64 encoding of a 32-byte master key.
	// Required when EncryptionMode is "encrypted".
	MasterKeyBase64 string `mapstructure:"master_key" yaml:"master_key,omitempty"`

	// MaxUploadSize rejects Create/Checkin payloads larger than this. Accepts
	// human-readable forms like "250Mi" or "1Gi"; zero means no limit.
	MaxUploadSize bytesize.ByteSize `mapstructure:"max_upload_size" yaml:"max_upload_size,omitempty"`
}

// DatabaseConfig configures the metadata store backend.
type DatabaseConfig struct {
	// Driver selects "sqlite" or "postgres".
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres" yaml:"driver"`

	// DSN is the sqlite file path or the postgres connection string,
	// depending on Driver.
	DSN string `mapstructure:"dsn" validate:"required" yaml:"dsn"`
}

// LockConfig configures the per-file checkout lock manager.
type LockConfig struct {
	// ExpiryHours is how long an acquired lock lasts before it is
	// eligible for reaping. Zero cannot be configured: ApplyDefaults
	// replaces it with 24, and lock.New replaces a non-positive TTL with
	// lock.DefaultExpiry.
	ExpiryHours int `mapstructure:"expiry_hours" validate:"gte=0" yaml:"expiry_hours"`
}

// Expiry converts ExpiryHours to a time.Duration.
func (c LockConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

// TokenConfig configures the single-use download token service.
type TokenConfig struct {
	// ExpirySeconds is the token TTL.
	ExpirySeconds int `mapstructure:"expiry_seconds" validate:"gt=0" yaml:"expiry_seconds"`

	// StorePath is the badger data directory. Empty uses an in-memory
	// store (dev/test only — tokens do not survive a restart).
	StorePath string `mapstructure:"store_path" yaml:"store_path,omitempty"`
}

// Expiry converts ExpirySeconds to a time.Duration.
func (c TokenConfig) Expiry() time.Duration {
	return time.Duration(c.ExpirySeconds) * time.Second
}

// DeletionConfig configures the secure-delete engine.
type DeletionConfig struct {
	// SecureDeleteEnabled selects the DoD 5220.22-M three-pass wipe. When
	// false, the deletion engine falls back to a plain unlink.
	SecureDeleteEnabled bool `mapstructure:"secure_delete_enabled" yaml:"secure_delete_enabled"`
}

// AuditConfig configures the audit log's informational retention window.
// Retention enforcement itself is out of core scope; this value is
// surfaced to operators and compliance reports only.
type AuditConfig struct {
	RetentionYears int `mapstructure:"retention_years" validate:"gt=0" yaml:"retention_years"`
}

// APIConfig configures the HTTP download-token server.
type APIConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// MetricsConfig configures the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Load loads configuration from file, environment, and defaults, applying
// defaults and validating the result.
//
// Precedence (highest to lowest): environment variables (FILEVAULT_*),
// configuration file, default values. An environment variable takes effect
// only for a key present in the config file. When no config file is found,
// Load returns GetDefaultConfig() as is: no environment variable is read.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	// ApplyDefaults cannot tell an omitted bool from false, so this default
	// is registered with viper before unmarshalling.
	v.SetDefault("deletion.secure_delete_enabled", true)

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration, returning a user-friendly error when the
// explicitly-specified config file is missing. An empty configPath is
// valid: Load looks for a "filevault" config file in the working directory
// and, when there is none, returns the built-in defaults.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config: file not found: %s", configPath)
		}
	}
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: loading: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, with owner-only permissions since
// it may contain the storage master key.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshalling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing file: %w", err)
	}
	return nil
}

// setupViper wires environment variable binding (FILEVAULT_ prefix, "."
// replaced with "_") and config file search.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("FILEVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(".")
	v.SetConfigName("filevault")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if present. A missing file
// is not an error: the caller falls back to the built-in defaults.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: reading file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(durationDecodeHook(), byteSizeDecodeHook())
}

// byteSizeDecodeHook converts strings like "250Mi" or plain numbers to
// bytesize.ByteSize, so storage.max_upload_size can be set in human-readable
// form instead of a raw byte count.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" or "5m" to time.Duration,
// so config files and environment variables can use human-readable
// durations instead of raw nanosecond counts.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}
