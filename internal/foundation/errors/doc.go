// Package errors provides the classified error type used across presencewatch.
//
// Errors carry a category (config, fetch, snapshot, notify, git, ...), a severity and
// structured context such as the failing stage or endpoint. The CLI adapter turns them
// into a diagnostic line and a process exit code.
//
//	err := errors.FetchError("retries exhausted").
//		WithCause(lastErr).
//		WithContext("stage", "fetch").
//		WithContext("endpoint", url).
//		Build()
package errors
