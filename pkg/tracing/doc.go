// Package tracing provides an in-process distributed-tracing engine.
//
// The tracing package creates spans, links them into traces via parent/child
// relations, decides which traces are sampled, and fans lifecycle events out
// to pluggable listeners. It defines no wire format and ships no backends:
// header injection/extraction and concrete exporters are external
// collaborators working against SpanContext and SpanListener.
//
// Core Features:
//   - Random, collision-resistant 64- or 128-bit trace ids (no cross-process
//     coordination required)
//   - Trace-wide sampling decided once at the root and inherited by every
//     descendant, with a fail-safe wrapper around user-supplied samplers
//   - Two span variants selected at creation time: recording spans accumulate
//     tags and logs, discarded spans carry identity only (the cheap path for
//     unsampled traffic)
//   - A scope manager tracking the currently active span per logical
//     execution context, with an explicit capture/restore token for
//     asynchronous runtimes that resume work on other goroutines
//   - A listener registry that is safe to mutate while events are emitted
//   - Optional server-span squashing to avoid double-counting adjacent
//     in-process client/server hops
//
// Basic Usage:
//
//	import (
//		"github.com/weftworks/obs/pkg/logger"
//		"github.com/weftworks/obs/pkg/tracing"
//	)
//
//	// Create a logger
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//
//	// Create a tracer
//	tracer, err := tracing.NewTracer(tracing.Config{}, log)
//	if err != nil {
//		log.Fatal("cannot initiate tracer", err, nil)
//	}
//
//	// Start a root span and make it the active scope of this context
//	ctx, scope, err := tracer.BuildSpan("handle-request").
//		WithKind(tracing.SpanKindServer).
//		StartActive(ctx, true)
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
//
//	// Child spans started from the same context pick up the active span
//	// as their parent
//	span, _ := tracer.BuildSpan("query-db").Start(ctx)
//	span.SetTag("db.table", "users")
//	span.Finish()
//
// Listeners:
//
// Exporters implement SpanListener and are notified synchronously when a
// recording span starts and finishes:
//
//	tracer.AddListener(myExporter)
//	defer tracer.RemoveListener(myExporter)
//
// Asynchronous Handoff:
//
// The active-scope stack travels with the context.Context. Passing the
// context to another goroutine is usually enough; a runtime that cannot
// propagate the context itself can capture the stack as a token and graft
// it onto a fresh context on the other side:
//
//	token := tracer.Scopes().CaptureActive(ctx)
//	go func() {
//		ctx := tracer.Scopes().RestoreActive(context.Background(), token)
//		// active span is visible through ctx here
//	}()
//
// Error Handling:
//
// Tracing is best-effort observability. A failing sampler degrades to "not
// sampled", a panicking listener is recovered and skipped, and scope
// discipline violations are reported as errors without corrupting the stack.
// None of these ever alter the outcome of the operation being traced.
//
// Thread Safety:
//
// The Tracer, ListenerSet and ScopeManager are safe for concurrent use.
// Individual Span and Scope instances must only be mutated by the execution
// context that owns them at a given time.
package tracing
