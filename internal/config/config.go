package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the run configuration. It is loaded once and passed by pointer into
// constructors; nothing mutates it after Load returns.
type Config struct {
	API        APIConfig         `yaml:"api"`
	Identities IdentitiesConfig  `yaml:"identities"`
	Retry      RetryConfig       `yaml:"retry"`
	Merge      MergeConfig       `yaml:"merge"`
	Snapshot   SnapshotConfig    `yaml:"snapshot"`
	Notify     NotifyConfig      `yaml:"notify"`
	Repository *RepositoryConfig `yaml:"repository,omitempty"`
	Daemon     DaemonConfig      `yaml:"daemon"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// APIConfig describes the account/presence upstream.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	Key       string `yaml:"key"`
	Timeout   string `yaml:"timeout"`    // per-call HTTP timeout
	PacingGap string `yaml:"pacing_gap"` // wait between the accounts and presence calls
	UserAgent string `yaml:"user_agent,omitempty"`
}

// IdentitiesConfig names where the tracked identity keys come from. When a repository is
// configured, File is resolved inside its checkout.
type IdentitiesConfig struct {
	File   string   `yaml:"file,omitempty"`
	Inline []string `yaml:"inline,omitempty"`
}

// RetryConfig controls the fetch retry state machine.
type RetryConfig struct {
	MaxAttempts  int              `yaml:"max_attempts"`
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
}

// MergeConfig controls where enrichment fields are placed in the merged record.
type MergeConfig struct {
	Marker string `yaml:"marker"`
}

// SnapshotConfig selects the snapshot store.
type SnapshotConfig struct {
	Driver SnapshotDriver `yaml:"driver"`
	Path   string         `yaml:"path"`
}

// NotifyConfig lists the notification channels. All are optional.
type NotifyConfig struct {
	Webhook  *WebhookConfig  `yaml:"webhook,omitempty"`
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`
	NATS     *NATSConfig     `yaml:"nats,omitempty"`
}

// WebhookConfig configures a Discord-compatible webhook.
type WebhookConfig struct {
	URL           string  `yaml:"url"`
	Username      string  `yaml:"username,omitempty"`
	RatePerSecond float64 `yaml:"rate_per_second,omitempty"`
	Burst         int     `yaml:"burst,omitempty"`
	Timeout       string  `yaml:"timeout,omitempty"`
}

// TelegramConfig configures delivery to a Telegram chat.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
	APIURL string `yaml:"api_url,omitempty"`
}

// NATSConfig configures publication of transitions to a NATS subject.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Timeout string `yaml:"timeout,omitempty"`
}

// RepositoryConfig describes the private git repository holding the identity list and
// receiving the published snapshot.
type RepositoryConfig struct {
	URL           string      `yaml:"url"`
	Branch        string      `yaml:"branch,omitempty"`
	Auth          *AuthConfig `yaml:"auth,omitempty"`
	WorkspaceDir  string      `yaml:"workspace_dir,omitempty"`
	SnapshotPath  string      `yaml:"snapshot_path,omitempty"` // relative to the checkout root
	Publish       bool        `yaml:"publish"`
	CommitMessage string      `yaml:"commit_message,omitempty"`
	AuthorName    string      `yaml:"author_name,omitempty"`
	AuthorEmail   string      `yaml:"author_email,omitempty"`
}

// AuthConfig represents git authentication configuration.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
}

// DaemonConfig configures the long-running mode.
type DaemonConfig struct {
	Interval        string `yaml:"interval"`
	HTTPAddr        string `yaml:"http_addr"`
	WatchIdentities bool   `yaml:"watch_identities"`
	Debounce        string `yaml:"debounce,omitempty"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

var defaultEnvFiles = []string{".env", ".env.local"}

// Load builds the configuration from an optional YAML file, .env files and the process
// environment, applies defaults and validates the result. An empty path skips the file so
// a setup driven only by API_KEY and XUIDS keeps working.
func Load(path string) (*Config, error) {
	return load(path, defaultEnvFiles)
}

func load(path string, envFiles []string) (*Config, error) {
	loadEnvFiles(envFiles)

	cfg := &Config{}
	if path != "" {
		if err := readFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return configError(fmt.Sprintf("configuration file not found: %s", path), err)
		}
		return configError("failed to read config file", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return configError("failed to unmarshal config", err)
	}
	return nil
}
