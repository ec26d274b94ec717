package main

import (
	"context"
	"path/filepath"
	"testing"

	"unicorns/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "unicorns.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "error")

	loader := config.NewLoader()
	loader.SetEnvFile("")
	require.NoError(t, run(context.Background(), loader))
	assert.FileExists(t, dbPath)

	loader = config.NewLoader()
	loader.SetEnvFile("")
	require.NoError(t, run(context.Background(), loader), "second run is a no-op")
}

func TestRunRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	loader := config.NewLoader()
	loader.SetEnvFile("")
	assert.Error(t, run(context.Background(), loader))
}
