// Package identities loads the ordered list of identity keys to watch.
package identities

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
)

// Load returns the identities configured in cfg. An identity file wins over the inline
// list; a relative file path is resolved against baseDir when baseDir is not empty.
// An empty result is a config error, raised before any network call.
func Load(cfg config.IdentitiesConfig, baseDir string) ([]string, error) {
	if cfg.File != "" {
		path := ResolvePath(cfg.File, baseDir)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ferrors.ConfigError("failed to read identity list").
				WithCause(err).
				WithContext("item", "identities.file").
				WithContext("path", path).
				Build()
		}
		ids, err := Parse(bytes.NewReader(data))
		if err != nil {
			return nil, ferrors.ConfigError("failed to parse identity list").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		return requireAny(ids, "identities.file")
	}
	return requireAny(Dedupe(cfg.Inline), "identities.inline")
}

// ResolvePath joins a relative identity file path onto baseDir.
func ResolvePath(file, baseDir string) string {
	if baseDir == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(baseDir, file)
}

// Parse reads one identity per line. Blank lines and lines starting with '#' are
// ignored, surrounding whitespace is trimmed, and duplicates keep their first position.
func Parse(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan identity list: %w", err)
	}
	return Dedupe(lines), nil
}

// Dedupe trims entries, drops empty ones and keeps the first occurrence of each.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requireAny(ids []string, item string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ferrors.ConfigError("identity list is empty").WithContext("item", item).Build()
	}
	return ids, nil
}
