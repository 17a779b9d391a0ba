// Package trace records the per-iteration history of enumeration runs to
// SQLite for later inspection.
//
// The recorder subscribes to a run through the engine's observer hook and
// writes one row per iteration plus a final summary row per run. It records
// results only; it never feeds iteration state back into the engine, so
// enumeration stays deterministic with or without a recorder attached.
package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/odo"
)

//go:embed schema.sql
var schemaSQL string

// Recorder stores iteration traces in a SQLite database.
type Recorder struct {
	db *sql.DB
}

// Open creates or opens a SQLite trace database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent read access while a run is recording
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trace database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect trace database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY during a recording run.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply trace schema: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Observer adapts the recorder to the engine's observer hook.
//
// Write failures are logged and otherwise ignored: a broken trace sink
// must not change enumeration behavior.
func (r *Recorder) Observer(ctx context.Context) odo.Observer {
	return func(rec odo.IterationRecord) {
		if err := r.WriteIteration(ctx, rec); err != nil {
			slog.Error("trace write failed",
				"error", err,
				"run", rec.RunToken,
				"iteration", rec.Index,
			)
		}
	}
}
