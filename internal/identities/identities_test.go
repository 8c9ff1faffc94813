package identities

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
)

func TestParse(t *testing.T) {
	ids, err := Parse(strings.NewReader("# friends\n2533274800000002\n\n  2533274800000001  \r\n2533274800000002\n#2533274800000009\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"2533274800000002", "2533274800000001"}, ids)
}

func TestLoadFileRelativeToBase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xuids.txt"), []byte("1\n2\n"), 0o600))

	ids, err := Load(config.IdentitiesConfig{File: "xuids.txt", Inline: []string{"9"}}, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ids)
}

func TestLoadInline(t *testing.T) {
	ids, err := Load(config.IdentitiesConfig{Inline: []string{"3", " 1", "3", ""}}, "")
	require.NoError(t, err)
	require.Equal(t, []string{"3", "1"}, ids)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nobody yet\n\n"), 0o600))

	tests := []struct {
		name string
		cfg  config.IdentitiesConfig
	}{
		{"missing file", config.IdentitiesConfig{File: filepath.Join(dir, "missing.txt")}},
		{"only comments", config.IdentitiesConfig{File: empty}},
		{"empty inline", config.IdentitiesConfig{Inline: []string{" ", ""}}},
		{"nothing configured", config.IdentitiesConfig{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.cfg, "")
			require.Error(t, err)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
		})
	}
}

func TestResolvePath(t *testing.T) {
	require.Equal(t, "ids.txt", ResolvePath("ids.txt", ""))
	require.Equal(t, filepath.Join("base", "ids.txt"), ResolvePath("ids.txt", "base"))
	abs := filepath.Join(t.TempDir(), "ids.txt")
	require.Equal(t, abs, ResolvePath(abs, "base"))
}
