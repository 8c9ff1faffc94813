package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/presencewatch/internal/logfields"
)

// Sync clones the repository when the checkout is missing and otherwise brings the
// tracked branch up to date with the remote.
func (c *Client) Sync(ctx context.Context) error {
	return c.withRetry(ctx, "sync", func(ctx context.Context) error {
		if _, err := os.Stat(filepath.Join(c.path, ".git")); err != nil {
			return c.clone(ctx)
		}
		return c.update(ctx)
	})
}

func (c *Client) clone(ctx context.Context) error {
	if err := os.RemoveAll(c.path); err != nil {
		return fmt.Errorf("failed to remove existing directory: %w", err)
	}
	c.logger.Debug("Cloning repository", logfields.Repository(c.cfg.URL), slog.String("branch", c.Branch()), logfields.Path(c.path))

	repo, err := git.PlainCloneContext(ctx, c.path, false, &git.CloneOptions{
		URL:           c.cfg.URL,
		Auth:          c.auth,
		ReferenceName: plumbing.NewBranchReferenceName(c.Branch()),
		SingleBranch:  true,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return c.initEmpty()
	}
	if err != nil {
		_ = os.RemoveAll(c.path)
		return ClassifyGitError(err, "clone", c.cfg.URL)
	}
	logHead(c.logger, "Repository cloned", repo, c.cfg.URL)
	return nil
}

// initEmpty prepares a checkout for a remote without commits; the first push creates the
// branch.
func (c *Client) initEmpty() error {
	_ = os.RemoveAll(c.path)
	repo, err := git.PlainInitWithOptions(c.path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(c.Branch())},
	})
	if err != nil {
		return fmt.Errorf("init empty checkout: %w", err)
	}
	if _, err := repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{c.cfg.URL}}); err != nil {
		return fmt.Errorf("create origin remote: %w", err)
	}
	c.logger.Info("Remote repository is empty, initialized local checkout", logfields.Repository(c.cfg.URL), logfields.Path(c.path))
	return nil
}

func (c *Client) update(ctx context.Context) error {
	repo, err := git.PlainOpen(c.path)
	if err != nil {
		return fmt.Errorf("open repo: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Auth:       c.auth,
		Tags:       git.NoTags,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	})
	switch {
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return nil
	case err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate):
		return ClassifyGitError(err, "fetch", c.cfg.URL)
	}

	branch := c.Branch()
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		// The branch has not been pushed yet.
		return nil
	}

	localName := plumbing.NewBranchReferenceName(branch)
	localRef, err := repo.Reference(localName, true)
	if err != nil {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: localName, Hash: remoteRef.Hash(), Create: true, Force: true}); err != nil {
			return fmt.Errorf("checkout new branch: %w", err)
		}
		logHead(c.logger, "Repository updated", repo, c.cfg.URL)
		return nil
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: localName, Force: true}); err != nil {
		return fmt.Errorf("checkout existing branch: %w", err)
	}

	behind, err := isAncestor(repo, localRef.Hash(), remoteRef.Hash())
	if err != nil {
		return fmt.Errorf("ancestor check: %w", err)
	}
	if !behind {
		ahead, aerr := isAncestor(repo, remoteRef.Hash(), localRef.Hash())
		if aerr != nil {
			return fmt.Errorf("ancestor check: %w", aerr)
		}
		if ahead {
			// Unpushed local commits go out with the next publish.
			return nil
		}
		c.logger.Warn("Local branch diverged from remote, resetting", logfields.Repository(c.cfg.URL), slog.String("branch", branch))
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reset to remote: %w", err)
	}
	logHead(c.logger, "Repository updated", repo, c.cfg.URL)
	return nil
}

func logHead(logger *slog.Logger, msg string, repo *git.Repository, url string) {
	if head, err := repo.Head(); err == nil {
		logger.Info(msg, logfields.Repository(url), slog.String("commit", head.Hash().String()[:8]))
		return
	}
	logger.Info(msg, logfields.Repository(url))
}

// isAncestor reports whether a is reachable from b.
func isAncestor(repo *git.Repository, a, b plumbing.Hash) (bool, error) {
	if a == b {
		return true, nil
	}
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{b}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == a {
			return true, nil
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		commit, err := repo.CommitObject(h)
		if err != nil {
			return false, err
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return false, nil
}
