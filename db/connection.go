package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/logger"
)

// Open opens the SQLite catalog at path.
// If log is provided, logs database operations; otherwise operates silently.
func Open(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	if log != nil {
		log.Debugw("Opening catalog", logger.FieldPath, path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Enable WAL mode so `structix runs` can read during a batch
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	// Members reference their run
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	// Set busy timeout to 5 seconds
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	if log != nil {
		log.Infow("Catalog opened",
			logger.FieldPath, path,
			"wal_mode", true,
			"foreign_keys", true,
		)
	}

	return db, nil
}

// OpenWithMigrations opens the catalog and applies pending migrations.
func OpenWithMigrations(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(path, log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, log); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "migrate catalog %s", path)
	}
	return db, nil
}
