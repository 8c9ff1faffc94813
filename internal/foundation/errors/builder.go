package errors

// ErrorBuilder assembles a ClassifiedError fluently.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder with error severity and no context.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
	}}
}

// WithCategory reclassifies the error, e.g. a git failure recognised as an auth problem.
func (b *ErrorBuilder) WithCategory(category ErrorCategory) *ErrorBuilder {
	b.err.category = category
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.err.severity = SeverityWarning
	return b
}

// Build returns the error. The builder must not be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

// ConfigError reports unusable configuration. Always fatal.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ConfigRequired reports a missing required item; the item name lands in the context.
func ConfigRequired(item string) *ErrorBuilder {
	return ConfigError("required configuration missing: "+item).WithContext("item", item)
}

// NetworkError reports a single failed request. Callers retry it.
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message)
}

// FetchError reports an exhausted or unusable upstream fetch.
func FetchError(message string) *ErrorBuilder {
	return NewError(CategoryFetch, message).Fatal()
}

func SnapshotError(message string) *ErrorBuilder {
	return NewError(CategorySnapshot, message).Fatal()
}

// NotifyError reports a failed delivery. Notifications are best effort.
func NotifyError(message string) *ErrorBuilder {
	return NewError(CategoryNotify, message).Warning()
}

func GitError(message string) *ErrorBuilder {
	return NewError(CategoryGit, message)
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

func DaemonError(message string) *ErrorBuilder {
	return NewError(CategoryDaemon, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
