package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "filevault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaultsOnMinimalFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
storage:
  path: `+filepath.ToSlash(dir)+`/blobs
database:
  driver: sqlite
  dsn: `+filepath.ToSlash(dir)+`/test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "INFO", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, EncryptionStandard, cfg.Storage.EncryptionMode)
	require.Equal(t, 24, cfg.Lock.ExpiryHours)
	require.Equal(t, 300, cfg.Token.ExpirySeconds)
	require.Equal(t, 7, cfg.Audit.RetentionYears)
	require.True(t, cfg.Deletion.SecureDeleteEnabled)
	require.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_ParsesHumanReadableMaxUploadSize(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
storage:
  path: `+filepath.ToSlash(dir)+`/blobs
  max_upload_size: "250Mi"
database:
  driver: sqlite
  dsn: `+filepath.ToSlash(dir)+`/test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 250*1024*1024, cfg.Storage.MaxUploadSize)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, "./storage", cfg.Storage.Path)
	require.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestMustLoad_ExplicitMissingFileErrors(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate_EncryptedModeRequiresMasterKey(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Storage.EncryptionMode = EncryptionEncrypted
	cfg.Database.DSN = "./test.db"

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "master_key")
}

func TestValidate_EncryptedModeWithShortKeyRejected(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Storage.EncryptionMode = EncryptionEncrypted
	cfg.Storage.MasterKeyBase64 = base64.StdEncoding.EncodeToString([]byte("too-short"))

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_EncryptedModeWithValidKeyPasses(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Storage.EncryptionMode = EncryptionEncrypted
	key := make([]byte, 32)
	cfg.Storage.MasterKeyBase64 = base64.StdEncoding.EncodeToString(key)

	require.NoError(t, Validate(cfg))
}

func TestValidate_PostgresRequiresDSN(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = ""

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "database.dsn")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "filevault.yaml")

	cfg := GetDefaultConfig()
	cfg.Storage.Path = filepath.ToSlash(dir) + "/blobs"

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Storage.Path, loaded.Storage.Path)
}
