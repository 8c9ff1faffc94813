package commands

import (
	"errors"
	"io"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	"git.home.luguber.info/inful/presencewatch/internal/fetch"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/git"
	"git.home.luguber.info/inful/presencewatch/internal/identities"
	"git.home.luguber.info/inful/presencewatch/internal/metrics"
	"git.home.luguber.info/inful/presencewatch/internal/notify"
	"git.home.luguber.info/inful/presencewatch/internal/pipeline"
	"git.home.luguber.info/inful/presencewatch/internal/retry"
	"git.home.luguber.info/inful/presencewatch/internal/snapshot"
	"git.home.luguber.info/inful/presencewatch/internal/workspace"
)

// App is the wired set of collaborators for one process.
type App struct {
	Config   *config.Config
	Runner   *pipeline.Runner
	Registry *prom.Registry

	store     snapshot.Store
	workspace *workspace.Manager
	closers   []io.Closer
}

// AppOptions tweak wiring for a single invocation.
type AppOptions struct {
	FreshCheckout bool // clone into a temporary workspace removed on Close
}

// NewApp wires fetcher, snapshot store, notifier, repository and runner from cfg.
func NewApp(cfg *config.Config, logger *slog.Logger, opts AppOptions) (*App, error) {
	reg := prom.NewRegistry()
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)
	policy := retry.FromConfig(cfg.Retry)

	app := &App{Config: cfg, Registry: reg}

	store, err := snapshot.Open(cfg.Snapshot, logger)
	if err != nil {
		return nil, err
	}
	app.store = store

	senders, closers, err := notify.BuildSenders(cfg.Notify, nil)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	app.closers = closers

	fetcher := fetch.New(cfg.API, policy, fetch.WithRecorder(recorder), fetch.WithLogger(logger))
	notifier := notify.NewNotifier(senders, notify.WithRecorder(recorder), notify.WithLogger(logger))
	pipeOpts := []pipeline.Option{pipeline.WithRecorder(recorder), pipeline.WithLogger(logger)}

	if repoCfg := cfg.Repository; repoCfg != nil {
		if opts.FreshCheckout {
			app.workspace = workspace.NewManager(repoCfg.WorkspaceDir, logger)
		} else {
			app.workspace = workspace.NewPersistentManager(repoCfg.WorkspaceDir, "checkout", logger)
		}
		if err := app.workspace.Create(); err != nil {
			_ = app.Close()
			return nil, ferrors.FileSystemError("failed to prepare workspace").WithCause(err).Build()
		}
		repo := workspace.NewRepository(app.workspace, *repoCfg,
			git.WithRunner(retry.Runner{Policy: policy}),
			git.WithLogger(logger))
		pipeOpts = append(pipeOpts, pipeline.WithRepository(repo))
	}

	app.Runner = pipeline.NewRunner(cfg, fetcher, store, notifier, pipeOpts...)
	return app, nil
}

// WatchedIdentityFile returns the identity list to watch in daemon mode, or "" when the
// list is inline or lives in the repository checkout (updated by the runs themselves).
func (a *App) WatchedIdentityFile() string {
	if !a.Config.Daemon.WatchIdentities || a.Config.Repository != nil || a.Config.Identities.File == "" {
		return ""
	}
	return identities.ResolvePath(a.Config.Identities.File, "")
}

// Close releases the store, notifier connections and an ephemeral workspace.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.workspace != nil {
		errs = append(errs, a.workspace.Cleanup())
	}
	return errors.Join(errs...)
}
