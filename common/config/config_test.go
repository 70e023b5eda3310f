package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("catalog")
	require.NoError(t, err)

	assert.Equal(t, "catalog", cfg.Service.Name)
	assert.Equal(t, "memory", cfg.Queue.Type)
	assert.Equal(t, "catalog.changes", cfg.Queue.Topic)
	assert.GreaterOrEqual(t, cfg.Notifier.Workers, 1)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("catalog")
	require.NoError(t, err)

	cfg.Service.Port = 0
	assert.Error(t, cfg.Validate())
	cfg.Service.Port = 8080

	cfg.Queue.Type = "kafka"
	assert.Error(t, cfg.Validate())
	cfg.Queue.Type = "redis"
	assert.NoError(t, cfg.Validate())

	cfg.Database.MaxConns = 1
	cfg.Database.MinConns = 10
	assert.Error(t, cfg.Validate())
}

func TestDatabaseURL(t *testing.T) {
	cfg, err := Load("catalog")
	require.NoError(t, err)

	assert.Contains(t, cfg.DatabaseURL(), "postgres://")
	assert.Contains(t, cfg.DatabaseURL(), cfg.Database.Host)
}
