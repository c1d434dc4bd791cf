package tracing

import (
	"context"
	"sync/atomic"
)

// scopeStackKeyType is a private type for context keys to avoid collisions.
type scopeStackKeyType struct{}

var scopeStackKey scopeStackKeyType

// scopeStack is the mutable active-scope slot of one logical execution
// context. It travels inside a context.Context, so independent contexts get
// independent stacks and never contend.
type scopeStack struct {
	top atomic.Pointer[scopeNode]
}

// scopeNode is one activation record on a context's scope stack.
type scopeNode struct {
	span          *Span
	finishOnClose bool
	prev          *scopeNode
	closed        atomic.Bool
}

func stackFromContext(ctx context.Context) *scopeStack {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeStackKey).(*scopeStack)
	return s
}

// ScopeToken is an opaque capture of a logical execution context's scope
// stack. Tokens are copyable values; the zero token denotes a context that
// never activated a scope.
type ScopeToken struct {
	stack *scopeStack
}

// Scope binds a span as the currently active one within the logical execution
// context that activated it. It must be closed by whoever activated it, in
// strict LIFO order within that context.
type Scope struct {
	manager *ScopeManager
	stack   *scopeStack
	node    *scopeNode
}

// Span returns the span bound to this scope.
func (s *Scope) Span() *Span { return s.node.span }

// Close pops this scope off its context's stack, restoring the previously
// active scope, and finishes the bound span when the scope was activated with
// finishSpanOnClose.
//
// Closing twice returns ErrScopeClosed; closing out of LIFO order returns
// ErrScopeNotActive and leaves the stack untouched. Both are reported, never
// panics, and neither corrupts the stack — other contexts' stacks are
// unreachable from here by construction.
func (s *Scope) Close() error {
	n := s.node
	if n.closed.Load() {
		s.manager.logger.Warn("scope closed more than once", ErrScopeClosed, s.manager.spanFields(n.span))
		return ErrScopeClosed
	}
	if !s.stack.top.CompareAndSwap(n, n.prev) {
		s.manager.logger.Warn("scope closed out of order", ErrScopeNotActive, s.manager.spanFields(n.span))
		return ErrScopeNotActive
	}
	n.closed.Store(true)
	if n.finishOnClose {
		n.span.Finish()
	}
	return nil
}

// ScopeManager maintains, per logical execution context, a stack of active
// spans. The stack lives in the context.Context, so concurrent contexts are
// isolated from each other without any cross-context locking: a fresh context
// has no active span, and activations in one context are invisible to every
// other.
//
// A context.Context stands in for the logical execution context only as long
// as the caller threads it along. When an asynchronous runtime resumes work
// on a different goroutine than the one it suspended on, trace continuity is
// the runtime's responsibility: it must capture the active state before
// suspension and restore it into the continuation's context after resumption:
//
//	token := manager.CaptureActive(ctx)
//	// ... hand off to another goroutine ...
//	ctx := manager.RestoreActive(context.Background(), token)
//	// active span is visible through ctx here
//
// Within one logical context, Activate and Close follow strict LIFO
// discipline, and the context must only be driven by one goroutine at a time.
type ScopeManager struct {
	logger Logger
}

// NewScopeManager creates a scope manager.
func NewScopeManager(logger Logger) *ScopeManager {
	return &ScopeManager{logger: logger}
}

// Active returns the span currently active in ctx's logical execution
// context, or nil when no scope is active there.
func (m *ScopeManager) Active(ctx context.Context) *Span {
	if s := stackFromContext(ctx); s != nil {
		if n := s.top.Load(); n != nil {
			return n.span
		}
	}
	return nil
}

// Activate pushes span onto ctx's stack as the new active scope. It returns
// the context carrying the stack — which is ctx itself unless this is the
// context's first activation — and the handle that deactivates the scope.
// When finishSpanOnClose is set, closing the scope also finishes the span.
func (m *ScopeManager) Activate(ctx context.Context, span *Span, finishSpanOnClose bool) (context.Context, *Scope) {
	s := stackFromContext(ctx)
	if s == nil {
		s = &scopeStack{}
		ctx = context.WithValue(ctx, scopeStackKey, s)
	}
	n := &scopeNode{span: span, finishOnClose: finishSpanOnClose}
	for {
		prev := s.top.Load()
		n.prev = prev
		if s.top.CompareAndSwap(prev, n) {
			return ctx, &Scope{manager: m, stack: s, node: n}
		}
	}
}

// CaptureActive snapshots ctx's scope stack as an opaque token. The token
// remains valid regardless of which goroutine later restores it.
func (m *ScopeManager) CaptureActive(ctx context.Context) ScopeToken {
	return ScopeToken{stack: stackFromContext(ctx)}
}

// RestoreActive installs a previously captured stack into ctx, giving the
// continuation the same active-scope state the capturing context had. The
// zero token returns ctx unchanged.
func (m *ScopeManager) RestoreActive(ctx context.Context, token ScopeToken) context.Context {
	if token.stack == nil {
		return ctx
	}
	return context.WithValue(ctx, scopeStackKey, token.stack)
}

func (m *ScopeManager) spanFields(span *Span) map[string]interface{} {
	return map[string]interface{}{
		"operation": span.OperationName(),
		"trace_id":  span.Context().TraceID(),
		"span_id":   span.Context().SpanID(),
	}
}
