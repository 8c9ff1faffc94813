package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
	"git.home.luguber.info/inful/presencewatch/internal/record"
)

// JSONStore keeps the snapshot as a JSON list of merged records, the ApiData.json format.
type JSONStore struct {
	path   string
	logger *slog.Logger
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONStore{path: path, logger: logger}
}

// Path returns the snapshot file location.
func (s *JSONStore) Path() string { return s.path }

// LoadPrevious reads the snapshot file. It accepts a list of records or an object keyed
// by identity.
func (s *JSONStore) LoadPrevious(_ context.Context) Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("No previous snapshot, starting with empty history", logfields.Path(s.path))
		} else {
			s.logger.Warn("Failed to read previous snapshot, starting with empty history", logfields.Path(s.path), logfields.Error(err))
		}
		return Empty()
	}

	snap, err := Decode(data)
	if err != nil {
		s.logger.Warn("Previous snapshot is unreadable, starting with empty history", logfields.Path(s.path), logfields.Error(err))
		return Empty()
	}
	s.logger.Debug("Loaded previous snapshot", logfields.Path(s.path), logfields.Count(snap.Len()))
	return snap
}

// SaveCurrent replaces the snapshot file. The previous file is untouched unless the new
// content was written completely.
func (s *JSONStore) SaveCurrent(_ context.Context, records []*record.Record) error {
	if err := WriteFile(s.path, records); err != nil {
		return ferrors.SnapshotError("failed to save snapshot").
			WithCause(err).
			WithContext("stage", "save").
			WithContext("endpoint", s.path).
			Build()
	}
	s.logger.Debug("Saved snapshot", logfields.Path(s.path), logfields.Count(len(records)))
	return nil
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

// Encode renders records as a 4-space indented JSON list. Field order is preserved and
// non-ASCII text is written as is.
func Encode(records []*record.Record) ([]byte, error) {
	if records == nil {
		records = []*record.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot list or identity-keyed object.
func Decode(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Empty(), fmt.Errorf("empty snapshot")
	}
	if !json.Valid(trimmed) {
		return Empty(), fmt.Errorf("invalid JSON")
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Empty(), err
		}
		records, _ := record.FromItems(items)
		return FromRecords(records), nil
	case '{':
		keyed, err := record.Parse(trimmed)
		if err != nil {
			return Empty(), err
		}
		snap := Empty()
		keyed.Each(func(id string, value json.RawMessage) {
			if rec, err := record.Parse(value); err == nil {
				snap.put(id, rec)
			}
		})
		return snap, nil
	default:
		return Empty(), fmt.Errorf("unexpected snapshot shape")
	}
}

// WriteFile atomically writes records to path through a temporary file in the same
// directory.
func WriteFile(path string, records []*record.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temporary snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temporary snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temporary snapshot: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temporary snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
