package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder sets fields", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NetworkError("request failed").
			WithCause(cause).
			WithContext("endpoint", "https://xbl.io/api/v2/1/presence").
			WithContext("attempt", 2).
			Build()

		if err.Category() != CategoryNetwork || err.Severity() != SeverityError {
			t.Errorf("unexpected classification %s/%s", err.Category(), err.Severity())
		}
		if !errors.Is(err, cause) {
			t.Error("expected error to wrap its cause")
		}
		if got := err.ContextString(); got != "attempt=2 endpoint=https://xbl.io/api/v2/1/presence" {
			t.Errorf("unexpected context string %q", got)
		}
		if got := err.Error(); got != "[network:error] request failed: connection refused" {
			t.Errorf("unexpected Error() %q", got)
		}
	})

	t.Run("detection through wrapping", func(t *testing.T) {
		base := ConfigRequired("api.key").Build()
		wrapped := fmt.Errorf("startup: %w", base)

		if !IsClassified(wrapped) || !HasCategory(wrapped, CategoryConfig) {
			t.Error("expected wrapped config error to be detected")
		}
		if !base.IsFatal() {
			t.Error("expected config error to be fatal")
		}
		if item, _ := base.Context().GetString("item"); item != "api.key" {
			t.Errorf("expected item=api.key, got %q", item)
		}
		if HasCategory(errors.New("plain"), CategoryConfig) {
			t.Error("plain errors carry no category")
		}
	})

	t.Run("reclassification", func(t *testing.T) {
		err := GitError("push failed").WithCategory(CategoryAuth).Fatal().Build()
		if err.Category() != CategoryAuth || !err.IsFatal() {
			t.Errorf("unexpected classification %s/%s", err.Category(), err.Severity())
		}
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := FetchError("exhausted").Build()
		derived := base.WithContext("endpoint", "presence")

		if _, ok := base.Context().Get("endpoint"); ok {
			t.Error("expected original context to be untouched")
		}
		if v, _ := derived.Context().GetString("endpoint"); v != "presence" {
			t.Errorf("expected endpoint=presence, got %q", v)
		}
		if !errors.Is(derived, base) {
			t.Error("copies compare equal by category and message")
		}
	})
}

func TestConstructorSeverities(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
	}{
		{"ConfigError", ConfigError("x"), CategoryConfig, SeverityFatal},
		{"NetworkError", NetworkError("x"), CategoryNetwork, SeverityError},
		{"FetchError", FetchError("x"), CategoryFetch, SeverityFatal},
		{"SnapshotError", SnapshotError("x"), CategorySnapshot, SeverityFatal},
		{"NotifyError", NotifyError("x"), CategoryNotify, SeverityWarning},
		{"GitError", GitError("x"), CategoryGit, SeverityError},
		{"FileSystemError", FileSystemError("x"), CategoryFileSystem, SeverityError},
		{"DaemonError", DaemonError("x"), CategoryDaemon, SeverityFatal},
		{"InternalError", InternalError("x"), CategoryInternal, SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			if err.Category() != tt.category || err.Severity() != tt.severity {
				t.Errorf("got %s/%s, want %s/%s", err.Category(), err.Severity(), tt.category, tt.severity)
			}
		})
	}
}
