package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"

	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
)

// NormalizePresence accepts a bare array or an object with a "presence" array. Any other
// shape is logged as malformed and yields an empty sequence.
func NormalizePresence(body []byte, logger *slog.Logger) []json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil {
			return items
		}
	} else if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Presence []json.RawMessage `json:"presence"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Presence != nil {
			return wrapped.Presence
		}
	}
	malformed(logger, KindPresence, trimmed)
	return []json.RawMessage{}
}

// NormalizeAccounts returns the "people" array of an account response. A body that is not
// an object with a people array is a fatal fetch error, so the run stops before the
// snapshot is replaced.
func NormalizeAccounts(body []byte) ([]json.RawMessage, error) {
	var wrapped struct {
		People []json.RawMessage `json:"people"`
	}
	err := json.Unmarshal(body, &wrapped)
	if err == nil && wrapped.People != nil {
		return wrapped.People, nil
	}
	if err == nil {
		err = errors.New(`missing "people" array`)
	}
	return nil, ferrors.FetchError("malformed accounts response").
		WithCause(err).
		WithContext("stage", "fetch").
		WithContext("endpoint", string(KindAccounts)).
		WithContext("body", preview(bytes.TrimSpace(body))).
		Build()
}

func malformed(logger *slog.Logger, kind Kind, body []byte) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("Malformed response, treating as empty",
		logfields.Resource(string(kind)),
		slog.String("body", preview(body)))
}

func preview(body []byte) string {
	if len(body) > 120 {
		body = body[:120]
	}
	return string(body)
}
