package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/productinventor/filevault/internal/logger"
	"github.com/productinventor/filevault/pkg/audit"
	"github.com/productinventor/filevault/pkg/config"
	"github.com/productinventor/filevault/pkg/content"
	"github.com/productinventor/filevault/pkg/store"
)

// loadAdminConfig loads configuration and initializes logging the same way
// serve does, for admin subcommands that run as one-shot CLI invocations
// rather than long-running servers.
func loadAdminConfig() (*config.Config, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// newAuditLog wraps store in an audit.Log using the default logger.
func newAuditLog(store audit.Store) *audit.Log {
	return audit.New(store, nil)
}

// openMetadataStore opens the configured metadata store backend.
// AutoMigrate is only safe to run implicitly for SQLite; PostgreSQL is
// migrated explicitly via the migrate command.
func openMetadataStore(cfg *config.Config) (*store.GORMStore, error) {
	return store.New(&store.Config{
		Type:        store.DatabaseType(cfg.Database.Driver),
		SQLite:      store.SQLiteConfig{Path: cfg.Database.DSN},
		Postgres:    store.PostgresConfig{RawDSN: cfg.Database.DSN},
		AutoMigrate: cfg.Database.Driver == "sqlite",
	})
}

// openContentStore opens the configured content-addressed blob store and
// decodes the master key, if encryption is enabled.
func openContentStore(cfg *config.Config) (*content.Store, []byte, error) {
	var masterKey []byte
	mode := content.ModeStandard
	if cfg.Storage.EncryptionMode == config.EncryptionEncrypted {
		mode = content.ModeEncrypted
		key, err := base64.StdEncoding.DecodeString(cfg.Storage.MasterKeyBase64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode storage master key: %w", err)
		}
		masterKey = key
	}

	blobs, err := content.New(content.Config{BasePath: cfg.Storage.Path, Mode: mode})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open content store: %w", err)
	}
	return blobs, masterKey, nil
}
