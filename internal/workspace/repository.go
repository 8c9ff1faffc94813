package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	"git.home.luguber.info/inful/presencewatch/internal/git"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
	"git.home.luguber.info/inful/presencewatch/internal/record"
	"git.home.luguber.info/inful/presencewatch/internal/snapshot"
)

// Repository is the synced checkout of the configured private repository.
type Repository struct {
	cfg    config.RepositoryConfig
	client *git.Client
	logger *slog.Logger
}

// NewRepository binds a git client to the manager's checkout path. Call Create on the
// manager first.
func NewRepository(m *Manager, cfg config.RepositoryConfig, opts ...git.Option) *Repository {
	opts = append([]git.Option{git.WithLogger(m.logger)}, opts...)
	return &Repository{
		cfg:    cfg,
		client: git.NewClient(m.Path(), cfg, opts...),
		logger: m.logger,
	}
}

// Dir returns the checkout directory; relative identity file paths resolve against it.
func (r *Repository) Dir() string { return r.client.Path() }

// Sync clones or updates the checkout.
func (r *Repository) Sync(ctx context.Context) error {
	return r.client.Sync(ctx)
}

// Publishing reports whether snapshots are committed to the repository.
func (r *Repository) Publishing() bool { return r.cfg.Publish }

// Publish writes records to the configured snapshot path inside the checkout, then commits
// and pushes it. It does nothing when publishing is disabled.
func (r *Repository) Publish(ctx context.Context, records []*record.Record) (git.CommitResult, error) {
	if !r.cfg.Publish {
		return git.CommitResult{}, nil
	}
	rel := filepath.Clean(r.cfg.SnapshotPath)
	if !filepath.IsLocal(rel) {
		return git.CommitResult{}, fmt.Errorf("snapshot path %q escapes the checkout", r.cfg.SnapshotPath)
	}
	if err := snapshot.WriteFile(filepath.Join(r.Dir(), rel), records); err != nil {
		return git.CommitResult{}, err
	}
	r.logger.Debug("Snapshot copied into checkout", logfields.Path(rel))
	return r.client.CommitAndPush(ctx, []string{rel}, r.cfg.CommitMessage)
}
