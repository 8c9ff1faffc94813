package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Example returns the configuration written by Init.
func Example() Config {
	return Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Key:       "${API_KEY}",
			Timeout:   DefaultTimeout.String(),
			PacingGap: DefaultPacingGap.String(),
		},
		Identities: IdentitiesConfig{
			File: "xuids.txt",
		},
		Retry: RetryConfig{
			MaxAttempts:  DefaultMaxAttempts,
			Backoff:      RetryBackoffExponential,
			InitialDelay: DefaultInitialDelay.String(),
			MaxDelay:     DefaultMaxDelay.String(),
		},
		Merge: MergeConfig{Marker: DefaultMarker},
		Snapshot: SnapshotConfig{
			Driver: SnapshotDriverJSON,
			Path:   DefaultSnapshotPath,
		},
		Notify: NotifyConfig{
			Webhook: &WebhookConfig{
				URL:           "${WEBHOOK_URL}",
				RatePerSecond: 1,
				Burst:         1,
			},
		},
		Daemon: DaemonConfig{
			Interval:        DefaultInterval.String(),
			HTTPAddr:        DefaultHTTPAddr,
			WatchIdentities: true,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ConfigExists(configPath)
	}

	example := Example()
	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigExists reports that Init refused to overwrite a file.
func ConfigExists(path string) error {
	return configError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path), nil)
}
