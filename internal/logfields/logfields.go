package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyIdentity   = "identity"
	KeyResource   = "resource"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeySender     = "sender"
	KeyEndpoint   = "endpoint"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyState      = "state"
	KeyPrevState  = "previous_state"
	KeyDelay      = "delay"
	KeyRepo       = "repository"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func Identity(id string) slog.Attr       { return slog.String(KeyIdentity, id) }
func Resource(kind string) slog.Attr     { return slog.String(KeyResource, kind) }
func Attempt(n int) slog.Attr            { return slog.Int(KeyAttempt, n) }
func Status(s string) slog.Attr          { return slog.String(KeyStatus, s) }
func Sender(name string) slog.Attr       { return slog.String(KeySender, name) }
func Endpoint(u string) slog.Attr        { return slog.String(KeyEndpoint, u) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func State(s string) slog.Attr           { return slog.String(KeyState, s) }
func PreviousState(s string) slog.Attr   { return slog.String(KeyPrevState, s) }
func Delay(d time.Duration) slog.Attr    { return slog.Duration(KeyDelay, d) }
func Repository(r string) slog.Attr      { return slog.String(KeyRepo, r) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Since(start time.Time) slog.Attr    { return DurationMS(float64(time.Since(start).Milliseconds())) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
