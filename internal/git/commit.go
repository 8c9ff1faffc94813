package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/presencewatch/internal/logfields"
)

// CommitResult describes a CommitAndPush call.
type CommitResult struct {
	Hash      string // new commit, empty when nothing changed
	Committed bool
}

// CommitAndPush stages files (paths relative to the checkout), commits them when they
// differ from HEAD and pushes the branch. With no changes it still pushes, so a commit
// left behind by an earlier failed push is delivered.
func (c *Client) CommitAndPush(ctx context.Context, files []string, message string) (CommitResult, error) {
	repo, err := git.PlainOpen(c.path)
	if err != nil {
		return CommitResult{}, ClassifyGitError(err, "open", c.cfg.URL)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return CommitResult{}, fmt.Errorf("worktree: %w", err)
	}

	for _, f := range files {
		if _, err := wt.Add(filepath.ToSlash(f)); err != nil {
			return CommitResult{}, ClassifyGitError(err, "add", c.cfg.URL)
		}
	}
	status, err := wt.Status()
	if err != nil {
		return CommitResult{}, fmt.Errorf("status: %w", err)
	}

	var result CommitResult
	if staged(status, files) {
		hash, err := wt.Commit(message, &git.CommitOptions{
			Author: &object.Signature{Name: c.cfg.AuthorName, Email: c.cfg.AuthorEmail, When: time.Now()},
		})
		if err != nil {
			return CommitResult{}, ClassifyGitError(err, "commit", c.cfg.URL)
		}
		result = CommitResult{Hash: hash.String(), Committed: true}
		c.logger.Info("Committed snapshot", logfields.Repository(c.cfg.URL), logfields.Path(c.path), slog.String("commit", hash.String()[:8]))
	}

	if _, err := repo.Head(); err != nil {
		// Nothing was ever committed; there is nothing to push.
		return result, nil
	}

	branch := c.Branch()
	spec := ggitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err = c.withRetry(ctx, "push", func(ctx context.Context) error {
		err := repo.PushContext(ctx, &git.PushOptions{RemoteName: "origin", Auth: c.auth, RefSpecs: []ggitcfg.RefSpec{spec}})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ClassifyGitError(err, "push", c.cfg.URL)
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func staged(status git.Status, files []string) bool {
	for _, f := range files {
		s, ok := status[filepath.ToSlash(f)]
		if !ok {
			continue
		}
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true
		}
	}
	return false
}
