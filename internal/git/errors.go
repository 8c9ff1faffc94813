package git

import (
	"strings"

	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/retry"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op string, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	builder := ferrors.GitError("git "+op+" failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url)

	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization") || strings.Contains(l, "invalid credentials"):
		builder.WithCategory(ferrors.CategoryAuth).Fatal()
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not exist"):
		builder.WithCategory(ferrors.CategoryNotFound).Fatal()
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		builder.WithCategory(ferrors.CategoryConfig).Fatal()
	case strings.Contains(l, "non-fast-forward"):
		builder.WithContext("diverged", true)
	}
	return builder.Build()
}

// isPermanent reports failures a retry cannot fix.
func isPermanent(err error) bool {
	if ce, ok := ferrors.AsClassified(err); ok {
		switch ce.Category() {
		case ferrors.CategoryAuth, ferrors.CategoryNotFound, ferrors.CategoryConfig:
			return true
		}
	}
	return false
}

// retryable marks permanent failures so the runner stops.
func retryable(err error) error {
	if isPermanent(err) {
		return retry.Permanent(err)
	}
	return err
}
