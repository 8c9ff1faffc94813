package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes returned by the CLI.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitAuth       = 5
	ExitConfig     = 7
	ExitExternal   = 8
	ExitInternal   = 10
	ExitPersisting = 11
	ExitDaemon     = 12
)

// CLIErrorAdapter prints errors for humans and picks the process exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr}
}

// ExitCodeFor maps err to an exit code by category. Unclassified errors exit 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	classified, ok := AsClassified(err)
	if !ok {
		return ExitFailure
	}
	switch classified.Category() {
	case CategoryAuth:
		return ExitAuth
	case CategoryConfig:
		return ExitConfig
	case CategoryNetwork, CategoryFetch, CategoryGit, CategoryNotify, CategoryNotFound:
		return ExitExternal
	case CategorySnapshot, CategoryFileSystem:
		return ExitPersisting
	case CategoryDaemon:
		return ExitDaemon
	case CategoryInternal:
		return ExitInternal
	default:
		return ExitFailure
	}
}

// FormatError renders a one-line diagnostic naming the failing stage and endpoint when
// the error carries them. The cause is only shown in verbose mode.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	msg := "Error: " + classified.Message()
	if ctx := classified.ContextString(); ctx != "" {
		msg += " (" + ctx + ")"
	}
	if a.verbose && classified.Cause() != nil {
		msg += ": " + classified.Cause().Error()
	}
	return msg
}

// HandleError logs and prints err, then exits with ExitCodeFor(err).
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	os.Exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	for k, v := range classified.Context() {
		attrs = append(attrs, slog.Any(k, v))
	}
	if cause := classified.Cause(); cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	level := slog.LevelError
	if classified.Severity() == SeverityWarning {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}
