package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment override. Each variable also falls back to its
// bare name, e.g. PRESENCEWATCH_API_KEY, then API_KEY.
const EnvPrefix = "presencewatch"

type envOverrides struct {
	APIKey        string   `envconfig:"API_KEY"`
	BaseURL       string   `envconfig:"API_BASE_URL"`
	Identities    []string `envconfig:"XUIDS"`
	IdentityFile  string   `envconfig:"IDENTITIES_FILE"`
	SnapshotPath  string   `envconfig:"SNAPSHOT_PATH"`
	WebhookURL    string   `envconfig:"WEBHOOK_URL"`
	TelegramToken string   `envconfig:"TELEGRAM_TOKEN"`
	TelegramChat  int64    `envconfig:"TELEGRAM_CHAT_ID"`
	NATSURL       string   `envconfig:"NATS_URL"`
	GitToken      string   `envconfig:"GIT_TOKEN"`
	LogLevel      string   `envconfig:"LOG_LEVEL"`
}

// loadEnvFiles loads KEY=VALUE files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func loadEnvFiles(paths []string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
	}
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return configError("invalid environment override", err)
	}

	if env.APIKey != "" {
		cfg.API.Key = env.APIKey
	}
	if env.BaseURL != "" {
		cfg.API.BaseURL = env.BaseURL
	}
	if ids := trimAll(env.Identities); len(ids) > 0 {
		cfg.Identities.Inline = ids
	}
	if env.IdentityFile != "" {
		cfg.Identities.File = env.IdentityFile
	}
	if env.SnapshotPath != "" {
		cfg.Snapshot.Path = env.SnapshotPath
	}
	if env.WebhookURL != "" {
		if cfg.Notify.Webhook == nil {
			cfg.Notify.Webhook = &WebhookConfig{}
		}
		cfg.Notify.Webhook.URL = env.WebhookURL
	}
	if env.TelegramToken != "" {
		if cfg.Notify.Telegram == nil {
			cfg.Notify.Telegram = &TelegramConfig{}
		}
		cfg.Notify.Telegram.Token = env.TelegramToken
	}
	if env.TelegramChat != 0 && cfg.Notify.Telegram != nil {
		cfg.Notify.Telegram.ChatID = env.TelegramChat
	}
	if env.NATSURL != "" {
		if cfg.Notify.NATS == nil {
			cfg.Notify.NATS = &NATSConfig{}
		}
		cfg.Notify.NATS.URL = env.NATSURL
	}
	if env.GitToken != "" && cfg.Repository != nil {
		if cfg.Repository.Auth == nil {
			cfg.Repository.Auth = &AuthConfig{Type: AuthTypeToken}
		}
		cfg.Repository.Auth.Token = env.GitToken
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = LogLevel(env.LogLevel)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
