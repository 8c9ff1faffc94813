package notify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/presencewatch/internal/merge"
	"git.home.luguber.info/inful/presencewatch/internal/record"
	"git.home.luguber.info/inful/presencewatch/internal/snapshot"
)

// Transition is a change of presence state between the previous and current snapshot.
type Transition struct {
	Identity string
	Previous string
	Current  string
	Record   *record.Record // current merged record
}

// StateOf returns the canonical presence state of a merged record, or "" when unknown.
// Snapshots written by older versions carry the raw "state" field instead.
func StateOf(r *record.Record) string {
	if r == nil {
		return ""
	}
	raw := r.String(merge.FieldPresenceState)
	if raw == "" {
		raw = r.String("state")
	}
	return CanonicalState(raw)
}

// CanonicalState normalizes case and whitespace, so "online" and "ONLINE " compare equal
// to "Online".
func CanonicalState(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Casers keep state and are not shared between goroutines.
	return cases.Title(language.English).String(strings.ToLower(s))
}

// Detect compares current records against the previous snapshot. A transition requires a
// previous record with a known state, a known current state, and a difference between
// the two. First observations and records with missing state never produce one.
func Detect(current []*record.Record, previous snapshot.Snapshot) []Transition {
	var transitions []Transition
	for _, rec := range current {
		id := rec.Identity()
		if id == "" {
			continue
		}
		prev, ok := previous.Get(id)
		if !ok {
			continue
		}
		before := StateOf(prev)
		if before == "" {
			continue
		}
		now := StateOf(rec)
		if now == "" || now == before {
			continue
		}
		transitions = append(transitions, Transition{Identity: id, Previous: before, Current: now, Record: rec})
	}
	return transitions
}
