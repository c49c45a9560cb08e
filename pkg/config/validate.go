package config

import (
	"encoding/base64"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/productinventor/filevault/pkg/kdf"
)

var validate = validator.New()

// Validate checks cfg against its struct tags plus the cross-field rules
// validator tags can't express: an encrypted storage mode requires a
// correctly-sized master key.
func Validate(cfg *Config) error {
	if cfg.Database.Driver == "postgres" && cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", cfg.Database.Driver)
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w", err)
	}

	if cfg.Storage.EncryptionMode == EncryptionEncrypted {
		if cfg.Storage.MasterKeyBase64 == "" {
			return fmt.Errorf("storage.master_key is required when storage.encryption_mode is %q", EncryptionEncrypted)
		}
		key, err := base64.StdEncoding.DecodeString(cfg.Storage.MasterKeyBase64)
		if err != nil {
			return fmt.Errorf("storage.master_key: invalid base64: %w", err)
		}
		if len(key) != kdf.MasterKeySize {
			return fmt.Errorf("storage.master_key: decoded key is %d bytes, need exactly %d", len(key), kdf.MasterKeySize)
		}
	}

	return nil
}

// MasterKey decodes and returns the configured storage master key. Callers
// must only invoke this once Validate has confirmed encryption is enabled
// and the key is well-formed.
func (c StorageConfig) MasterKey() ([]byte, error) {
	return base64.StdEncoding.DecodeString(c.MasterKeyBase64)
}
