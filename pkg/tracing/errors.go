package tracing

import "errors"

// Errors reported by the tracing package. Tracing is best-effort observability:
// none of these are ever allowed to escape into, or alter the outcome of, the
// operation being traced. They surface misconfiguration and misuse to the
// caller without touching the request path.
var (
	// ErrInvalidMaxTagSize is returned when a tracer is constructed with a
	// negative tag capacity.
	ErrInvalidMaxTagSize = errors.New("max tag size must be >= 0")

	// ErrMissingOperationName is returned when a span is started without an
	// operation name.
	ErrMissingOperationName = errors.New("operation name must not be empty")

	// ErrScopeClosed is returned when a scope is closed more than once.
	ErrScopeClosed = errors.New("scope already closed")

	// ErrScopeNotActive is returned when a scope is closed out of LIFO order,
	// i.e. while it is not the top of the active-scope stack. The stack is
	// left untouched.
	ErrScopeNotActive = errors.New("scope is not the active scope")
)
