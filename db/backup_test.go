package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestBackupSQLite(t *testing.T) {
	t.Run("missing database is not an error", func(t *testing.T) {
		path, err := BackupSQLite(filepath.Join(t.TempDir(), "absent.db"), 5, zaptest.NewLogger(t).Sugar())
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("copies the database with a timestamped name", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "unicorns.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("sqlite bytes"), 0o600))

		now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
		path, err := backupSQLiteAt(dbPath, 5, now, zaptest.NewLogger(t).Sugar())
		require.NoError(t, err)
		assert.Equal(t, dbPath+".20240309-140506.bak", path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "sqlite bytes", string(data))
	})

	t.Run("refuses to overwrite an existing snapshot", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "unicorns.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("new"), 0o600))
		now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
		existing := dbPath + ".20240309-140506.bak"
		require.NoError(t, os.WriteFile(existing, []byte("old"), 0o600))

		_, err := backupSQLiteAt(dbPath, 5, now, zaptest.NewLogger(t).Sugar())
		require.Error(t, err)
		data, err := os.ReadFile(existing)
		require.NoError(t, err)
		assert.Equal(t, "old", string(data))
	})

	t.Run("prunes to the newest backups and logs them", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "unicorns.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o600))

		core, logs := observer.New(zapcore.InfoLevel)
		zl := zap.New(core).Sugar()

		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var made []string
		for i := 0; i < 4; i++ {
			p, err := backupSQLiteAt(dbPath, 2, base.Add(time.Duration(i)*time.Hour), zl)
			require.NoError(t, err)
			made = append(made, p)
		}

		matches, err := filepath.Glob(dbPath + ".*.bak")
		require.NoError(t, err)
		assert.ElementsMatch(t, made[2:], matches)

		removed := logs.FilterMessage("old database snapshot removed").All()
		require.Len(t, removed, 2)
		assert.Equal(t, made[0], removed[0].ContextMap()["path"])
		assert.Equal(t, made[1], removed[1].ContextMap()["path"])
	})

	t.Run("rejects directories", func(t *testing.T) {
		_, err := BackupSQLite(t.TempDir(), 1, zaptest.NewLogger(t).Sugar())
		assert.Error(t, err)
	})
}

func TestPruneSnapshotsIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "unicorns.db")
	for _, name := range []string{
		"unicorns.db.20240101-000000.bak",
		"unicorns.db.20240102-000000.bak",
		"other.db.20230101-000000.bak",
		"unicorns.db-journal",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	removed, err := pruneSnapshots(dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "unicorns.db.20240101-000000.bak")}, removed)
	assert.FileExists(t, filepath.Join(dir, "other.db.20230101-000000.bak"))
	assert.FileExists(t, filepath.Join(dir, "unicorns.db-journal"))
}
