package config

import (
	"time"
)

// Fetch defaults are three attempts with a 5s/10s/20s backoff, a 2.5s pause between the
// two calls and a 25s request timeout.
const (
	DefaultBaseURL       = "https://xbl.io/api/v2"
	DefaultTimeout       = 25 * time.Second
	DefaultPacingGap     = 2500 * time.Millisecond
	DefaultMaxAttempts   = 3
	DefaultInitialDelay  = 5 * time.Second
	DefaultMaxDelay      = 60 * time.Second
	DefaultMarker        = "isXbox360Gamerpic"
	DefaultSnapshotPath  = "ApiData.json"
	DefaultInterval      = 5 * time.Minute
	DefaultHTTPAddr      = ":9464"
	DefaultDebounce      = 2 * time.Second
	DefaultNATSSubject   = "presencewatch.transitions"
	DefaultCommitMessage = "Update presence snapshot"
	DefaultWorkspaceDir  = "./workspace"
)

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout == "" {
		cfg.API.Timeout = DefaultTimeout.String()
	}
	if cfg.API.PacingGap == "" {
		cfg.API.PacingGap = DefaultPacingGap.String()
	}

	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = RetryBackoffExponential
	}
	if cfg.Retry.InitialDelay == "" {
		cfg.Retry.InitialDelay = DefaultInitialDelay.String()
	}
	if cfg.Retry.MaxDelay == "" {
		cfg.Retry.MaxDelay = DefaultMaxDelay.String()
	}

	if cfg.Merge.Marker == "" {
		cfg.Merge.Marker = DefaultMarker
	}

	if cfg.Snapshot.Driver == "" {
		cfg.Snapshot.Driver = SnapshotDriverJSON
	}
	if cfg.Snapshot.Path == "" {
		if cfg.Snapshot.Driver == SnapshotDriverSQLite {
			cfg.Snapshot.Path = "presencewatch.db"
		} else {
			cfg.Snapshot.Path = DefaultSnapshotPath
		}
	}

	if n := cfg.Notify.NATS; n != nil && n.Subject == "" {
		n.Subject = DefaultNATSSubject
	}
	if w := cfg.Notify.Webhook; w != nil {
		if w.RatePerSecond <= 0 {
			w.RatePerSecond = 1
		}
		if w.Burst <= 0 {
			w.Burst = 1
		}
	}

	if r := cfg.Repository; r != nil {
		if r.Branch == "" {
			r.Branch = "main"
		}
		if r.WorkspaceDir == "" {
			r.WorkspaceDir = DefaultWorkspaceDir
		}
		if r.SnapshotPath == "" {
			r.SnapshotPath = DefaultSnapshotPath
		}
		if r.CommitMessage == "" {
			r.CommitMessage = DefaultCommitMessage
		}
		if r.AuthorName == "" {
			r.AuthorName = "presencewatch"
		}
		if r.AuthorEmail == "" {
			r.AuthorEmail = "presencewatch@localhost"
		}
		if r.Auth != nil && r.Auth.Type == "" {
			r.Auth.Type = AuthTypeToken
		}
	}

	if cfg.Daemon.Interval == "" {
		cfg.Daemon.Interval = DefaultInterval.String()
	}
	if cfg.Daemon.HTTPAddr == "" {
		cfg.Daemon.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Daemon.Debounce == "" {
		cfg.Daemon.Debounce = DefaultDebounce.String()
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

// TimeoutDuration returns the per-call HTTP timeout.
func (a APIConfig) TimeoutDuration() time.Duration { return durationOr(a.Timeout, DefaultTimeout) }

// PacingGapDuration returns the pause between the accounts and presence calls.
func (a APIConfig) PacingGapDuration() time.Duration {
	return durationOr(a.PacingGap, DefaultPacingGap)
}

func (r RetryConfig) InitialDelayDuration() time.Duration {
	return durationOr(r.InitialDelay, DefaultInitialDelay)
}

func (r RetryConfig) MaxDelayDuration() time.Duration {
	return durationOr(r.MaxDelay, DefaultMaxDelay)
}

func (d DaemonConfig) IntervalDuration() time.Duration {
	return durationOr(d.Interval, DefaultInterval)
}

func (d DaemonConfig) DebounceDuration() time.Duration {
	return durationOr(d.Debounce, DefaultDebounce)
}

func (w WebhookConfig) TimeoutDuration() time.Duration {
	return durationOr(w.Timeout, 10*time.Second)
}

func (n NATSConfig) TimeoutDuration() time.Duration {
	return durationOr(n.Timeout, 5*time.Second)
}

// durationOr parses s, returning def when s is empty or invalid. Validate has already
// rejected invalid values for loaded configs.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
