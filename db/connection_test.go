package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpen(t *testing.T) {
	t.Run("opens catalog with pragmas", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "structix.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		var journalMode string
		require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode)

		var foreignKeys int
		require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 1, foreignKeys)

		var busyTimeout int
		require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, 5000, busyTimeout)
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		db, err := Open("/invalid/nonexistent/path/structix.db", nil)

		// If Open() succeeds (lazy connection on some platforms), Ping() will fail
		if err == nil && db != nil {
			err = db.Ping()
			db.Close()
		}

		assert.Error(t, err)
	})

	t.Run("creates database file if it doesn't exist", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "new.db")

		_, err := os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		db, err := Open(dbPath, nil)
		require.NoError(t, err)
		defer db.Close()

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})
}

func TestOpen_WithLogger(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "structix.db"), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer db.Close()
}

func TestIsDatabaseClosed(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "structix.db"), nil)
	require.NoError(t, err)
	db.Close()

	_, err = db.Exec("PRAGMA journal_mode")
	require.Error(t, err)
	assert.True(t, IsDatabaseClosed(err))
	assert.False(t, IsDatabaseClosed(nil))
	assert.False(t, IsDatabaseClosed(ErrRunNotFound))
}
