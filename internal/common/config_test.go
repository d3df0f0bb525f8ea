package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "vie+eng", cfg.OCR.Languages)
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, int64(10<<20), cfg.OCR.MaxUploadBytes)
	assert.True(t, cfg.Inbox.InitialScan)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nienso.toml")
	content := `
[database]
driver = "postgres"
dsn = "postgres://localhost/nienso"

[server]
http_addr = ":9000"
request_timeout = "15s"

[inbox]
dir = "/srv/inbox"
workers = 4
initial_scan = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("HTTP_ADDR", ":7000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/nienso", cfg.Database.DSN)
	assert.Equal(t, ":7000", cfg.Server.HTTPAddr)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "/srv/inbox", cfg.Inbox.Dir)
	assert.Equal(t, 4, cfg.Inbox.Workers)
	assert.False(t, cfg.Inbox.InitialScan)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.toml"))

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Database.Driver = "mysql"
	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfig_SlogLevel(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "debug"}}
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())

	cfg.Log.Level = "nonsense"
	assert.Equal(t, "INFO", cfg.SlogLevel().String())
}
