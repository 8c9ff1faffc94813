package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	"git.home.luguber.info/inful/presencewatch/internal/fetch"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/git"
	"git.home.luguber.info/inful/presencewatch/internal/identities"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
	"git.home.luguber.info/inful/presencewatch/internal/merge"
	"git.home.luguber.info/inful/presencewatch/internal/metrics"
	"git.home.luguber.info/inful/presencewatch/internal/notify"
	"git.home.luguber.info/inful/presencewatch/internal/record"
	"git.home.luguber.info/inful/presencewatch/internal/snapshot"
)

// Fetcher retrieves both collections for a batch of identities.
type Fetcher interface {
	FetchAll(ctx context.Context, identities []string) (*fetch.Result, error)
}

// Repository is the optional git checkout holding the identity list and receiving the
// published snapshot.
type Repository interface {
	Dir() string
	Sync(ctx context.Context) error
	Publishing() bool
	Publish(ctx context.Context, records []*record.Record) (git.CommitResult, error)
}

// Result describes a completed run.
type Result struct {
	RunID      string
	Identities []string
	Records    []*record.Record
	Summary    notify.Summary
	Commit     git.CommitResult
	Duration   time.Duration
}

// Runner executes runs. It holds no state between runs beyond its collaborators.
type Runner struct {
	identities config.IdentitiesConfig
	policy     merge.InsertionPolicy
	fetcher    Fetcher
	store      snapshot.Store
	notifier   *notify.Notifier
	repo       Repository
	recorder   metrics.Recorder
	logger     *slog.Logger
	newRunID   func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithRepository enables the git checkout for identities and publishing.
func WithRepository(repo Repository) Option { return func(r *Runner) { r.repo = repo } }

func WithRecorder(rec metrics.Recorder) Option { return func(r *Runner) { r.recorder = rec } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// NewRunner wires a runner from the configuration and its collaborators.
func NewRunner(cfg *config.Config, fetcher Fetcher, store snapshot.Store, notifier *notify.Notifier, opts ...Option) *Runner {
	r := &Runner{
		identities: cfg.Identities,
		policy:     merge.InsertionPolicy{Marker: cfg.Merge.Marker},
		fetcher:    fetcher,
		store:      store,
		notifier:   notifier,
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.recorder = metrics.OrNoop(r.recorder)
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.notifier == nil {
		r.notifier = notify.NewNotifier(nil, notify.WithRecorder(r.recorder), notify.WithLogger(r.logger))
	}
	return r
}

// Run performs one full cycle. Errors before the save leave the previous snapshot as it
// was. A publish failure is returned together with the result, since the snapshot has
// already been saved.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: r.newRunID()}
	logger := r.logger.With(logfields.RunID(res.RunID))

	err := r.run(ctx, logger, res)
	res.Duration = time.Since(start)
	r.recorder.ObserveRunDuration(res.Duration)

	switch {
	case err == nil:
		r.recorder.IncRunOutcome(metrics.ResultSuccess)
		logger.Info("Run completed",
			logfields.Count(len(res.Records)),
			slog.Int("transitions", len(res.Summary.Transitions)),
			slog.Int("notifications_sent", res.Summary.Sent),
			slog.Int("notifications_failed", res.Summary.Failed),
			logfields.DurationMS(float64(res.Duration.Milliseconds())))
	case errors.Is(err, context.Canceled):
		r.recorder.IncRunOutcome(metrics.ResultCanceled)
		logger.Warn("Run canceled", logfields.Error(err))
	default:
		r.recorder.IncRunOutcome(metrics.ResultFailed)
		logger.Error("Run failed", logfields.Error(err))
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, res *Result) error {
	baseDir := ""
	if r.repo != nil {
		if err := r.repo.Sync(ctx); err != nil {
			return stageError(err, "sync")
		}
		baseDir = r.repo.Dir()
	}

	ids, err := identities.Load(r.identities, baseDir)
	if err != nil {
		return err
	}
	res.Identities = ids
	r.recorder.SetTrackedIdentities(len(ids))
	logger.Debug("Loaded identities", logfields.Count(len(ids)))

	fetched, err := r.fetcher.FetchAll(ctx, ids)
	if err != nil {
		return err
	}

	accounts, skipped := record.FromItems(fetched.Accounts)
	if skipped > 0 {
		logger.Debug("Skipped partial account records", logfields.Resource(string(fetch.KindAccounts)), logfields.Count(skipped))
	}
	presences, skipped := record.FromItems(fetched.Presence)
	if skipped > 0 {
		logger.Debug("Skipped partial presence records", logfields.Resource(string(fetch.KindPresence)), logfields.Count(skipped))
	}

	res.Records = merge.Merge(accounts, presences, r.policy)
	logger.Debug("Merged records",
		slog.Int("accounts", len(accounts)),
		slog.Int("presence", len(presences)),
		logfields.Count(len(res.Records)))

	previous := r.store.LoadPrevious(ctx)
	res.Summary = r.notifier.DetectAndNotify(ctx, res.Records, previous)

	if err := r.store.SaveCurrent(ctx, res.Records); err != nil {
		return err
	}

	if r.repo != nil && r.repo.Publishing() {
		commit, err := r.repo.Publish(ctx, res.Records)
		res.Commit = commit
		if err != nil {
			return stageError(err, "publish")
		}
		if commit.Committed {
			logger.Info("Published snapshot", slog.String("commit", commit.Hash))
		}
	}
	return nil
}

// stageError tags err with the pipeline stage, classifying unclassified errors as git
// failures.
func stageError(err error, stage string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.WithContext("stage", stage)
	}
	return ferrors.GitError("repository "+stage+" failed").
		WithCause(err).
		WithContext("stage", stage).
		Build()
}
