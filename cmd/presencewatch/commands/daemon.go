package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/presencewatch/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	HTTPAddr string `name:"http-addr" help:"Override the metrics and health listen address"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, logger, err := loadConfig(root)
	if err != nil {
		return err
	}
	if d.HTTPAddr != "" {
		cfg.Daemon.HTTPAddr = d.HTTPAddr
	}

	app, err := NewApp(cfg, logger, AppOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Warn("Cleanup failed", slog.String("error", cerr.Error()))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []daemon.Option{daemon.WithRegistry(app.Registry), daemon.WithLogger(logger)}
	if path := app.WatchedIdentityFile(); path != "" {
		opts = append(opts, daemon.WithIdentityFile(path))
	}
	dm := daemon.New(cfg.Daemon, func(ctx context.Context) error {
		_, err := app.Runner.Run(ctx)
		return err
	}, opts...)

	if err := dm.Run(ctx); err != nil {
		return err
	}
	logger.Info("Daemon stopped")
	return nil
}
