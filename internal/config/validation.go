package config

import (
	"fmt"
	"net/url"
	"time"

	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
)

// Validate checks required items and value formats and normalizes enum values in place.
// Every problem is a fatal config error naming the offending item.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return ferrors.ConfigRequired("api.key").WithContext("env", "API_KEY").Build()
	}
	if len(c.Identities.Inline) == 0 && c.Identities.File == "" {
		return ferrors.ConfigRequired("identities").WithContext("env", "XUIDS").Build()
	}
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return invalid("api.base_url", err)
	}

	type durationItem struct{ item, raw string }
	durations := []durationItem{
		{"api.timeout", c.API.Timeout},
		{"api.pacing_gap", c.API.PacingGap},
		{"retry.initial_delay", c.Retry.InitialDelay},
		{"retry.max_delay", c.Retry.MaxDelay},
		{"daemon.interval", c.Daemon.Interval},
		{"daemon.debounce", c.Daemon.Debounce},
	}
	if w := c.Notify.Webhook; w != nil {
		durations = append(durations, durationItem{"notify.webhook.timeout", w.Timeout})
	}
	if n := c.Notify.NATS; n != nil {
		durations = append(durations, durationItem{"notify.nats.timeout", n.Timeout})
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return invalid(d.item, err)
		}
		if parsed < 0 {
			return invalid(d.item, fmt.Errorf("negative duration %s", d.raw))
		}
	}
	if c.Daemon.IntervalDuration() <= 0 {
		return invalid("daemon.interval", fmt.Errorf("must be > 0"))
	}

	var err error
	if c.Retry.Backoff, err = retryBackoffNormalizer.NormalizeWithError(string(c.Retry.Backoff)); err != nil {
		return invalid("retry.backoff", err)
	}
	if c.Snapshot.Driver, err = snapshotDriverNormalizer.NormalizeWithError(string(c.Snapshot.Driver)); err != nil {
		return invalid("snapshot.driver", err)
	}
	if c.Logging.Level, err = logLevelNormalizer.NormalizeWithError(string(c.Logging.Level)); err != nil {
		return invalid("logging.level", err)
	}
	if c.Logging.Format, err = logFormatNormalizer.NormalizeWithError(string(c.Logging.Format)); err != nil {
		return invalid("logging.format", err)
	}

	if w := c.Notify.Webhook; w != nil && w.URL == "" {
		return ferrors.ConfigRequired("notify.webhook.url").Build()
	}
	if t := c.Notify.Telegram; t != nil {
		if t.Token == "" {
			return ferrors.ConfigRequired("notify.telegram.token").Build()
		}
		if t.ChatID == 0 {
			return ferrors.ConfigRequired("notify.telegram.chat_id").Build()
		}
	}
	if n := c.Notify.NATS; n != nil && n.URL == "" {
		return ferrors.ConfigRequired("notify.nats.url").Build()
	}

	if r := c.Repository; r != nil {
		if r.URL == "" {
			return ferrors.ConfigRequired("repository.url").Build()
		}
		if r.Auth != nil {
			if r.Auth.Type, err = authTypeNormalizer.NormalizeWithError(string(r.Auth.Type)); err != nil {
				return invalid("repository.auth.type", err)
			}
			switch r.Auth.Type {
			case AuthTypeToken:
				if r.Auth.Token == "" {
					return ferrors.ConfigRequired("repository.auth.token").Build()
				}
			case AuthTypeBasic:
				if r.Auth.Username == "" || r.Auth.Password == "" {
					return ferrors.ConfigRequired("repository.auth.username/password").Build()
				}
			case AuthTypeNone:
			}
		}
	}
	return nil
}

func invalid(item string, cause error) error {
	return ferrors.ConfigError("invalid configuration value: "+item).
		WithCause(cause).
		WithContext("item", item).
		Build()
}

func configError(msg string, cause error) error {
	return ferrors.ConfigError(msg).WithCause(cause).Build()
}
