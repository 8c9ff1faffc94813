package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
	"git.home.luguber.info/inful/presencewatch/internal/record"
)

// SQLiteStore keeps the snapshot in a single table that is replaced on every save.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.SnapshotError("open sqlite database").WithCause(err).WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: dbPath, logger: logger}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.SnapshotError("initialize snapshot schema").WithCause(err).WithContext("path", dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot (
		identity TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadPrevious reads every stored record in saved order.
func (s *SQLiteStore) LoadPrevious(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("Failed to load previous snapshot, starting with empty history", logfields.Path(s.path), logfields.Error(err))
		return Empty()
	}
	if snap.Len() == 0 {
		s.logger.Info("No previous snapshot, starting with empty history", logfields.Path(s.path))
	}
	return snap
}

func (s *SQLiteStore) load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT identity, payload FROM snapshot ORDER BY position")
	if err != nil {
		return Empty(), fmt.Errorf("query snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := Empty()
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return Empty(), fmt.Errorf("scan snapshot row: %w", err)
		}
		rec, err := record.Parse(payload)
		if err != nil {
			s.logger.Debug("Skipping unreadable snapshot row", logfields.Identity(id), logfields.Error(err))
			continue
		}
		snap.put(id, rec)
	}
	return snap, rows.Err()
}

// SaveCurrent replaces the stored snapshot inside one transaction.
func (s *SQLiteStore) SaveCurrent(ctx context.Context, records []*record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.replace(ctx, records); err != nil {
		return ferrors.SnapshotError("failed to save snapshot").
			WithCause(err).
			WithContext("stage", "save").
			WithContext("endpoint", s.path).
			Build()
	}
	return nil
}

func (s *SQLiteStore) replace(ctx context.Context, records []*record.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM snapshot"); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO snapshot (identity, position, payload) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range records {
		id := rec.Identity()
		if id == "" {
			continue
		}
		payload, merr := rec.MarshalJSON()
		if merr != nil {
			return fmt.Errorf("encode %s: %w", id, merr)
		}
		if _, err = stmt.ExecContext(ctx, id, i, payload); err != nil {
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
