package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	"git.home.luguber.info/inful/presencewatch/internal/fetch"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/git"
	"git.home.luguber.info/inful/presencewatch/internal/notify"
	"git.home.luguber.info/inful/presencewatch/internal/record"
	"git.home.luguber.info/inful/presencewatch/internal/retry"
	"git.home.luguber.info/inful/presencewatch/internal/snapshot"
)

type noSleep struct{}

func (noSleep) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// fakeAPI serves the accounts and presence endpoints; presence is swappable between runs.
type fakeAPI struct {
	mu       sync.Mutex
	accounts string
	presence string
	failing  atomic.Bool
}

func (f *fakeAPI) setPresence(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence = body
}

func (f *fakeAPI) setAccounts(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = body
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.failing.Load() {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if filepath.Base(r.URL.Path) == "presence" {
		_, _ = w.Write([]byte(f.presence))
		return
	}
	_, _ = w.Write([]byte(f.accounts))
}

type recordingSender struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) Send(_ context.Context, a notify.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return nil
}

type fixture struct {
	api       *fakeAPI
	store     *snapshot.JSONStore
	sender    *recordingSender
	cfg       *config.Config
	fetcher   *fetch.Client
	snapshotP string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := &fakeAPI{
		accounts: `{"people":[
			{"xuid":"1","gamertag":"One","isXbox360Gamerpic":false,"realName":""},
			{"xuid":"2","gamertag":"Two","isXbox360Gamerpic":false}]}`,
		presence: `[{"xuid":"1","state":"Offline","lastSeen":{"deviceType":"PC","titleName":"Halo","timestamp":"2024-05-01T10:00:00Z"}},
			{"xuid":"2","state":"Online","devices":[{"type":"Scarlett","titles":[{"name":"Forza","activity":{"richPresence":"Racing"}}]}]}]`,
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		API:        config.APIConfig{BaseURL: srv.URL, Key: "k", Timeout: "2s", PacingGap: "2.5s"},
		Identities: config.IdentitiesConfig{Inline: []string{"1", "2"}},
		Merge:      config.MergeConfig{Marker: config.DefaultMarker},
	}
	path := filepath.Join(t.TempDir(), "ApiData.json")
	return &fixture{
		api:       api,
		store:     snapshot.NewJSONStore(path, nil),
		sender:    &recordingSender{},
		cfg:       cfg,
		fetcher:   fetch.New(cfg.API, retry.DefaultPolicy(), fetch.WithSleeper(noSleep{}), fetch.WithHTTPClient(srv.Client())),
		snapshotP: path,
	}
}

func (f *fixture) runner(opts ...Option) *Runner {
	return NewRunner(f.cfg, f.fetcher, f.store, notify.NewNotifier([]notify.Sender{f.sender}), opts...)
}

func TestRunDetectsTransitionsAcrossRuns(t *testing.T) {
	f := newFixture(t)
	r := f.runner()

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	require.Equal(t, []string{"1", "2"}, res.Identities)
	require.Len(t, res.Records, 2)
	require.Empty(t, res.Summary.Transitions)
	require.Empty(t, f.sender.alerts)

	require.Equal(t, []string{"xuid", "gamertag", "isXbox360Gamerpic", "presenceState", "deviceType", "titleId", "titleName", "lastSeenDateTimeUtc", "realName"}, res.Records[0].Keys())

	f.api.setPresence(`[{"xuid":"1","state":"Online","devices":[{"type":"XboxOne","titles":[{"name":"Halo"}]}]},{"xuid":"2","state":"Online"}]`)
	res, err = r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Summary.Transitions, 1)
	require.Equal(t, 1, res.Summary.Sent)
	require.Len(t, f.sender.alerts, 1)
	require.Equal(t, "One", f.sender.alerts[0].DisplayName)
	require.Equal(t, "Online", f.sender.alerts[0].State)
	require.Equal(t, "XboxOne - Halo", f.sender.alerts[0].Detail)

	previous := f.store.LoadPrevious(context.Background())
	rec, ok := previous.Get("1")
	require.True(t, ok)
	require.Equal(t, "Online", rec.String("presenceState"))
}

func TestRunFetchFailureKeepsPreviousSnapshot(t *testing.T) {
	f := newFixture(t)
	r := f.runner()
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	before, err := os.ReadFile(f.snapshotP)
	require.NoError(t, err)

	f.api.failing.Store(true)
	_, err = r.Run(context.Background())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFetch))

	after, err := os.ReadFile(f.snapshotP)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Empty(t, f.sender.alerts)
}

func TestRunMalformedAccountsKeepsPreviousSnapshot(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"error object", `{"error":"upstream hiccup"}`},
		{"maintenance page", `<html><body>down for maintenance</body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r := f.runner()
			_, err := r.Run(context.Background())
			require.NoError(t, err)
			before, err := os.ReadFile(f.snapshotP)
			require.NoError(t, err)

			f.api.setAccounts(tt.body)
			res, err := r.Run(context.Background())
			require.Error(t, err)
			require.Empty(t, res.Records)
			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			require.Equal(t, ferrors.CategoryFetch, ce.Category())
			endpoint, _ := ce.Context().GetString("endpoint")
			require.Equal(t, "accounts", endpoint)

			after, err := os.ReadFile(f.snapshotP)
			require.NoError(t, err)
			require.Equal(t, before, after)
			require.Empty(t, f.sender.alerts)
		})
	}
}

func TestRunRejectsEmptyIdentities(t *testing.T) {
	f := newFixture(t)
	f.cfg.Identities = config.IdentitiesConfig{}
	_, err := f.runner().Run(context.Background())
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	_, statErr := os.Stat(f.snapshotP)
	require.True(t, os.IsNotExist(statErr))
}

type fakeRepo struct {
	dir       string
	syncErr   error
	publishOn bool
	published [][]*record.Record
}

func (r *fakeRepo) Dir() string                  { return r.dir }
func (r *fakeRepo) Sync(context.Context) error   { return r.syncErr }
func (r *fakeRepo) Publishing() bool             { return r.publishOn }
func (r *fakeRepo) Publish(_ context.Context, recs []*record.Record) (git.CommitResult, error) {
	r.published = append(r.published, recs)
	return git.CommitResult{Hash: "abc", Committed: true}, nil
}

func TestRunWithRepository(t *testing.T) {
	f := newFixture(t)
	repo := &fakeRepo{dir: t.TempDir(), publishOn: true}
	require.NoError(t, os.WriteFile(filepath.Join(repo.dir, "xuids.txt"), []byte("# watched\n2\n"), 0o600))
	f.cfg.Identities = config.IdentitiesConfig{File: "xuids.txt"}

	res, err := f.runner(WithRepository(repo)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"2"}, res.Identities)
	require.Len(t, repo.published, 1)
	require.True(t, res.Commit.Committed)
}

func TestRunSyncFailure(t *testing.T) {
	f := newFixture(t)
	repo := &fakeRepo{dir: t.TempDir(), syncErr: errors.New("connection refused")}

	_, err := f.runner(WithRepository(repo)).Run(context.Background())
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, ferrors.CategoryGit, ce.Category())
	stage, _ := ce.Context().GetString("stage")
	require.Equal(t, "sync", stage)
}
