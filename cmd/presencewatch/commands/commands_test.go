package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"API_KEY", "API_BASE_URL", "XUIDS", "IDENTITIES_FILE", "SNAPSHOT_PATH", "WEBHOOK_URL", "TELEGRAM_TOKEN", "NATS_URL", "GIT_TOKEN", "LOG_LEVEL", "CONFIG"} {
		for _, key := range []string{name, "PRESENCEWATCH_" + name} {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("presencewatch"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

func TestRunCommandEndToEnd(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/presence") {
			_, _ = w.Write([]byte(`[{"xuid":"1","state":"Online"}]`))
			return
		}
		_, _ = w.Write([]byte(`{"people":[{"xuid":"1","gamertag":"Ünïcode <One>","isXbox360Gamerpic":false}]}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "ApiData.json")
	cfgPath := filepath.Join(dir, "presencewatch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
api:
  base_url: `+srv.URL+`
  key: test-key
  pacing_gap: 1ms
identities:
  inline: ["1"]
snapshot:
  path: `+snapshotPath+`
`), 0o600))

	out, err := execute(t, "-c", cfgPath, "run")
	require.NoError(t, err)
	require.Equal(t, "1 players, 0 state changes, 0 notifications sent, 0 failed\n", out)

	data, err := os.ReadFile(snapshotPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"gamertag": "Ünïcode <One>"`)
	var saved []map[string]any
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Equal(t, "Online", saved[0]["presenceState"])
}

func TestRunCommandMissingConfiguration(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "run")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestInitCommand(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "presencewatch.yaml")

	out, err := execute(t, "-c", path, "init")
	require.NoError(t, err)
	require.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = execute(t, "-c", path, "init")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = execute(t, "-c", path, "init", "--force")
	require.NoError(t, err)
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogging(config.LoggingConfig{Level: config.LogLevelWarn, Format: config.LogFormatJSON}, false, &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = SetupLogging(config.LoggingConfig{Level: config.LogLevelError}, true, &buf)
	logger.Debug("debug enabled by flag")
	require.Contains(t, buf.String(), "debug enabled by flag")
}

func TestWatchedIdentityFile(t *testing.T) {
	app := &App{Config: &config.Config{
		Identities: config.IdentitiesConfig{File: "xuids.txt"},
		Daemon:     config.DaemonConfig{WatchIdentities: true},
	}}
	require.Equal(t, "xuids.txt", app.WatchedIdentityFile())

	app.Config.Repository = &config.RepositoryConfig{URL: "https://git.example/x.git"}
	require.Empty(t, app.WatchedIdentityFile())
}
