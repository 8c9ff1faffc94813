package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	FreshCheckout bool `help:"Clone the repository into a temporary workspace for this run"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, logger, err := loadConfig(root)
	if err != nil {
		return err
	}
	app, err := NewApp(cfg, logger, AppOptions{FreshCheckout: r.FreshCheckout})
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

	res, err := app.Runner.Run(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "%d players, %d state changes, %d notifications sent, %d failed\n",
		len(res.Records), len(res.Summary.Transitions), res.Summary.Sent, res.Summary.Failed)
	return nil
}
