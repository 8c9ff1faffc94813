package git

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
	"git.home.luguber.info/inful/presencewatch/internal/retry"
)

// Client operates on one checkout of the configured repository.
type Client struct {
	path   string
	cfg    config.RepositoryConfig
	auth   transport.AuthMethod
	runner retry.Runner
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRunner sets the retry runner used for network operations.
func WithRunner(r retry.Runner) Option { return func(c *Client) { c.runner = r } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient creates a client for a checkout at path.
func NewClient(path string, cfg config.RepositoryConfig, opts ...Option) *Client {
	c := &Client{
		path:   path,
		cfg:    cfg,
		auth:   authMethod(cfg.Auth),
		runner: retry.Runner{Policy: retry.Policy{Mode: config.RetryBackoffFixed, MaxAttempts: 1}},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Path returns the checkout directory.
func (c *Client) Path() string { return c.path }

// Branch returns the branch the client tracks.
func (c *Client) Branch() string {
	if c.cfg.Branch == "" {
		return "main"
	}
	return c.cfg.Branch
}

// withRetry runs op through the runner, logging each failed attempt.
func (c *Client) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	runner := c.runner
	runner.SkipLastWait = true
	runner.OnFailure = func(a retry.Attempt) {
		c.logger.Warn("git operation failed",
			slog.String("op", op),
			logfields.Repository(c.cfg.URL),
			logfields.Attempt(a.Number),
			logfields.Delay(a.Delay),
			logfields.Error(a.Err))
	}
	err := runner.Do(ctx, func(ctx context.Context, _ int) error {
		return retryable(fn(ctx))
	})
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Last
	}
	return err
}
