package errors

// ErrorCategory groups errors by the subsystem that produced them. The CLI maps it to an
// exit code.
type ErrorCategory string

const (
	CategoryConfig   ErrorCategory = "config"
	CategoryAuth     ErrorCategory = "auth"
	CategoryNotFound ErrorCategory = "not_found"

	// Upstream API, git remote, notification endpoints.
	CategoryNetwork ErrorCategory = "network"
	CategoryFetch   ErrorCategory = "fetch"
	CategoryGit     ErrorCategory = "git"
	CategoryNotify  ErrorCategory = "notify"

	CategorySnapshot   ErrorCategory = "snapshot"
	CategoryFileSystem ErrorCategory = "filesystem"

	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity says whether a run can continue past the error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // aborts the run
	SeverityError   ErrorSeverity = "error"   // fails the current operation
	SeverityWarning ErrorSeverity = "warning" // logged, run continues
)

// ErrorContext holds structured details such as the failing stage or endpoint.
type ErrorContext map[string]any

// Set stores value under key, allocating the map on first use.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}
