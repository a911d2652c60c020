package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

type DB struct {
	*sql.DB

	// Guards the created_at clock so persisted timestamps never go
	// backwards even if the wall clock does.
	clockMu sync.Mutex
	lastTS  time.Time
}

func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	slog.Info("database opened", "path", path)
	return &DB{DB: sqlDB}, nil
}

// now returns a UTC timestamp that is monotonically non-decreasing across
// calls on this store.
func (db *DB) now() time.Time {
	db.clockMu.Lock()
	defer db.clockMu.Unlock()
	t := time.Now().UTC()
	if !t.After(db.lastTS) {
		t = db.lastTS.Add(time.Microsecond)
	}
	db.lastTS = t
	return t
}
