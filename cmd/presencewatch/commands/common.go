package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/presencewatch/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path; the environment alone is used when empty" env:"PRESENCEWATCH_CONFIG" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run    RunCmd    `cmd:"" default:"1" help:"Fetch presence once, notify on changes and save the snapshot"`
	Daemon DaemonCmd `cmd:"" help:"Run on a schedule and serve /metrics and /healthz"`
	Init   InitCmd   `cmd:"" help:"Write an example configuration file"`
}

// AfterApply sets up logging from the flags; commands refine it once the config is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(SetupLogging(config.LoggingConfig{}, c.Verbose, os.Stderr))
	return nil
}

// SetupLogging builds the process logger. -v forces debug level.
func SetupLogging(cfg config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch config.NormalizeLogLevel(string(cfg.Level)) {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	case config.LogLevelInfo:
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if config.NormalizeLogFormat(string(cfg.Format)) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads the configuration and installs the configured logger.
func loadConfig(root *CLI) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, nil, err
	}
	logger := SetupLogging(cfg.Logging, root.Verbose, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
