package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
)

// RunFunc performs one pipeline run.
type RunFunc func(ctx context.Context) error

// Notifier reports service state to the init system.
type Notifier func(state string) (bool, error)

func systemdNotify(state string) (bool, error) { return sddaemon.SdNotify(false, state) }

// Daemon schedules runs and serves the HTTP endpoints.
type Daemon struct {
	interval     time.Duration
	debounce     time.Duration
	httpAddr     string
	identityFile string
	run          RunFunc
	registry     *prom.Registry
	status       *Status
	logger       *slog.Logger
	notify       Notifier

	mu    sync.Mutex
	job   gocron.Job
	addr  net.Addr
	ready chan struct{}
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithRegistry serves the given registry on /metrics.
func WithRegistry(reg *prom.Registry) Option { return func(d *Daemon) { d.registry = reg } }

func WithLogger(l *slog.Logger) Option { return func(d *Daemon) { d.logger = l } }

// WithIdentityFile enables an extra run whenever path changes.
func WithIdentityFile(path string) Option { return func(d *Daemon) { d.identityFile = path } }

// WithNotifier replaces the systemd notifier.
func WithNotifier(n Notifier) Option { return func(d *Daemon) { d.notify = n } }

// New creates a daemon running run every cfg.Interval.
func New(cfg config.DaemonConfig, run RunFunc, opts ...Option) *Daemon {
	d := &Daemon{
		interval: cfg.IntervalDuration(),
		debounce: cfg.DebounceDuration(),
		httpAddr: cfg.HTTPAddr,
		run:      run,
		status:   newStatus(time.Now()),
		notify:   systemdNotify,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Status returns the run status shared with /healthz.
func (d *Daemon) Status() *Status { return d.status }

// Ready is closed once the schedule is running and the HTTP listener is bound.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// Addr returns the bound HTTP address, or nil when no server runs.
func (d *Daemon) Addr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// RunNow triggers an out-of-cycle run through the scheduled job. A run already in
// progress absorbs the request.
func (d *Daemon) RunNow() error {
	d.mu.Lock()
	job := d.job
	d.mu.Unlock()
	if job == nil {
		return ferrors.DaemonError("daemon is not running").Build()
	}
	return job.RunNow()
}

// Run blocks until ctx is done. The first run starts immediately.
func (d *Daemon) Run(ctx context.Context) error {
	if d.interval <= 0 {
		return ferrors.ConfigError("daemon interval must be positive").WithContext("item", "daemon.interval").Build()
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return ferrors.DaemonError("failed to create scheduler").WithCause(err).Build()
	}
	job, err := sched.NewJob(
		gocron.DurationJob(d.interval),
		gocron.NewTask(func() { d.execute(ctx) }),
		gocron.WithName("presence-run"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return ferrors.DaemonError("failed to schedule run").WithCause(err).Build()
	}

	var srv *http.Server
	if d.httpAddr != "" {
		ln, lerr := net.Listen("tcp", d.httpAddr)
		if lerr != nil {
			_ = sched.Shutdown()
			return ferrors.DaemonError("failed to bind HTTP listener").WithCause(lerr).WithContext("addr", d.httpAddr).Build()
		}
		srv = &http.Server{Handler: Handler(d.status, d.registry), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if serr := srv.Serve(ln); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
				d.logger.Error("HTTP server stopped", logfields.Error(serr))
			}
		}()
		d.mu.Lock()
		d.addr = ln.Addr()
		d.mu.Unlock()
		d.logger.Info("Serving metrics and health", slog.String("addr", ln.Addr().String()))
	}

	d.mu.Lock()
	d.job = job
	d.mu.Unlock()

	var watcher *IdentityWatcher
	if d.identityFile != "" {
		watcher, err = NewIdentityWatcher(d.identityFile, d.debounce, d.triggerFromWatcher, d.logger)
		if err == nil {
			err = watcher.Start(ctx)
		}
		if err != nil {
			d.logger.Warn("Identity list watcher disabled", logfields.Path(d.identityFile), logfields.Error(err))
			watcher = nil
		}
	}

	sched.Start()
	d.logger.Info("Daemon started", slog.Duration("interval", d.interval))
	if _, nerr := d.notify(sddaemon.SdNotifyReady); nerr != nil {
		d.logger.Debug("systemd notify failed", logfields.Error(nerr))
	}
	close(d.ready)

	<-ctx.Done()
	d.logger.Info("Daemon stopping")
	_, _ = d.notify(sddaemon.SdNotifyStopping)

	if watcher != nil {
		_ = watcher.Stop()
	}
	if err := sched.Shutdown(); err != nil {
		d.logger.Warn("Scheduler shutdown incomplete", logfields.Error(err))
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
	}
	return nil
}

func (d *Daemon) triggerFromWatcher() {
	d.logger.Info("Identity list changed, scheduling run")
	if err := d.RunNow(); err != nil {
		d.logger.Warn("Failed to trigger run", logfields.Error(err))
	}
}

func (d *Daemon) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := d.run(ctx)
	d.status.record(start, time.Since(start), err)
	if err != nil {
		// The pipeline already logged the failure; keep the schedule going.
		d.logger.Debug("Scheduled run failed", logfields.Error(err))
	}
}
