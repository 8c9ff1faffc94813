package snapshot

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	"git.home.luguber.info/inful/presencewatch/internal/record"
)

// Store loads and saves the single persisted snapshot.
type Store interface {
	LoadPrevious(ctx context.Context) Snapshot
	SaveCurrent(ctx context.Context, records []*record.Record) error
	Close() error
}

// Snapshot is the previous run's merged records keyed by identity.
type Snapshot struct {
	byID  map[string]*record.Record
	order []string
}

// Empty returns a snapshot with no history.
func Empty() Snapshot {
	return Snapshot{byID: map[string]*record.Record{}}
}

// FromRecords keys records by identity. Records without one are skipped; a repeated
// identity keeps its first position and its last record.
func FromRecords(records []*record.Record) Snapshot {
	s := Empty()
	for _, r := range records {
		if r == nil {
			continue
		}
		s.put(r.Identity(), r)
	}
	return s
}

func (s *Snapshot) put(id string, r *record.Record) {
	if id == "" {
		return
	}
	if _, exists := s.byID[id]; !exists {
		s.order = append(s.order, id)
	}
	s.byID[id] = r
}

// Get returns the previous record for an identity.
func (s Snapshot) Get(id string) (*record.Record, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Len returns the number of identities.
func (s Snapshot) Len() int { return len(s.order) }

// Identities returns identities in stored order.
func (s Snapshot) Identities() []string {
	return append([]string(nil), s.order...)
}

// Records returns the records in stored order.
func (s Snapshot) Records() []*record.Record {
	out := make([]*record.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Open returns the store selected by the snapshot section.
func Open(cfg config.SnapshotConfig, logger *slog.Logger) (Store, error) {
	if cfg.Driver == config.SnapshotDriverSQLite {
		return NewSQLiteStore(cfg.Path, logger)
	}
	return NewJSONStore(cfg.Path, logger), nil
}
