package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills in any unspecified configuration fields with
// sensible defaults. Called after unmarshalling a config file, so
// explicit non-zero values are always preserved; an explicit zero is
// treated as unset.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStorageDefaults(&cfg.Storage)
	applyDatabaseDefaults(&cfg.Database)
	applyLockDefaults(&cfg.Lock)
	applyTokenDefaults(&cfg.Token)
	applyAuditDefaults(&cfg.Audit)
	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Path == "" {
		cfg.Path = "./storage"
	}
	if cfg.EncryptionMode == "" {
		cfg.EncryptionMode = EncryptionStandard
	}
}

func applyDatabaseDefaults(cfg *DatabaseConfig) {
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.DSN == "" && cfg.Driver == "sqlite" {
		cfg.DSN = "./filevault.db"
	}
}

func applyLockDefaults(cfg *LockConfig) {
	if cfg.ExpiryHours == 0 {
		cfg.ExpiryHours = 24
	}
}

func applyTokenDefaults(cfg *TokenConfig) {
	if cfg.ExpirySeconds == 0 {
		cfg.ExpirySeconds = 300
	}
}

func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.RetentionYears == 0 {
		cfg.RetentionYears = 7
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
}

// GetDefaultConfig returns a Config with every field set to its default,
// and secure delete enabled by default (per SPEC_FULL.md §6). Useful for
// generating a starter config file and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Deletion: DeletionConfig{SecureDeleteEnabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}
