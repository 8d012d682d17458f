package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  port: 5433
  user: resto
  password: secret
  database: restostock
rabbitmq:
  host: localhost
  user: guest
  password: guest
logging:
  level: info
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "restostock", cfg.Database.Database)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port, "rabbitmq port defaults")
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Kitchen.PrepSecondsPerUnit, "prep time defaults")
}

func TestLoad_MissingDatabaseHost(t *testing.T) {
	path := writeConfig(t, `
rabbitmq:
  host: localhost
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
