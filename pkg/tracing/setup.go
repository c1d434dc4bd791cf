package tracing

import "context"

// Logger defines the interface for logging operations in the tracing package.
// This interface allows the package to use any logging implementation that
// conforms to these methods.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=tracing
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// nopLogger backs the tracer when no logger is supplied. Tracing is
// best-effort observability and must work without one.
type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}

// Tracer creates spans, links them into traces via parent/child relations,
// decides which traces are sampled, and fans lifecycle events out to
// registered listeners. It performs no blocking I/O, has no scheduler of its
// own, and runs entirely on the caller's goroutine.
//
// Tracer is safe for arbitrary concurrent use: many spans may be created,
// mutated and finished concurrently across independent execution contexts, as
// long as each individual Span/Scope instance is only mutated by the context
// owning it at a given time.
type Tracer struct {
	scopes           *ScopeManager
	sampler          Sampler // guarded, never returns an error
	listeners        *ListenerSet
	ids              IDGenerator
	logger           Logger
	maxTagSize       int
	persistLogs      bool
	squashServerSpan bool
	use128BitTraceID bool
}

// NewTracer creates and initializes a tracer from the provided configuration.
// Configuration errors (a negative MaxTagSize) are fatal to construction and
// returned here; after construction the tracer never propagates an internal
// failure into the operation being traced.
//
// Example:
//
//	tracer, err := tracing.NewTracer(tracing.Config{
//		SquashServerSpan: true,
//	}, log)
//	if err != nil {
//		log.Fatal("cannot initiate tracer", err, nil)
//	}
//
//	span, _ := tracer.BuildSpan("handle-request").WithKind(tracing.SpanKindServer).Start(ctx)
//	defer span.Finish()
func NewTracer(cfg Config, logger Logger) (*Tracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = nopLogger{}
	}

	sampler := cfg.Sampler
	if sampler == nil {
		sampler = SampleUnlessFalse()
	}
	ids := cfg.IDGenerator
	if ids == nil {
		ids = NewRandomIDGenerator()
	}

	listeners := NewListenerSet(logger)
	for _, l := range cfg.Listeners {
		listeners.Add(l)
	}

	return &Tracer{
		scopes:           NewScopeManager(logger),
		sampler:          GuardSampler(sampler, logger),
		listeners:        listeners,
		ids:              ids,
		logger:           logger,
		maxTagSize:       cfg.maxTagSize(),
		persistLogs:      cfg.PersistLogs,
		squashServerSpan: cfg.SquashServerSpan,
		use128BitTraceID: cfg.Use128BitTraceID,
	}, nil
}

// BuildSpan returns a builder for a span named operationName.
func (t *Tracer) BuildSpan(operationName string) *SpanBuilder {
	return &SpanBuilder{tracer: t, operationName: operationName}
}

// ActiveSpan returns the span active in ctx's logical execution context, or
// nil.
func (t *Tracer) ActiveSpan(ctx context.Context) *Span {
	return t.scopes.Active(ctx)
}

// Scopes returns the tracer's scope manager, for activation and for the
// capture/restore contract with asynchronous runtimes.
func (t *Tracer) Scopes() *ScopeManager {
	return t.scopes
}

// AddListener registers a lifecycle listener. Safe to call at any time,
// including while events are being emitted.
func (t *Tracer) AddListener(listener SpanListener) {
	t.listeners.Add(listener)
}

// RemoveListener deregisters a lifecycle listener.
func (t *Tracer) RemoveListener(listener SpanListener) {
	t.listeners.Remove(listener)
}

// Close detaches all listeners so a stopped application emits no further
// events. Spans already created remain usable; their finish events are simply
// no longer delivered.
func (t *Tracer) Close() {
	t.listeners.Clear()
	t.logger.Info("tracer closed, listeners detached", nil, nil)
}

// createSpan runs the span-creation algorithm: resolve the parent, compute
// identifiers and the sampling decision, construct the matching variant.
func (t *Tracer) createSpan(ctx context.Context, kind, operationName string, references []Reference,
	tags map[string]interface{}, ignoreActiveSpan bool, startMicros int64) *Span {

	maybeParent := firstChildOf(references)
	if maybeParent == nil && !ignoreActiveSpan {
		// Infer the parent from ctx's active span.
		if active := t.scopes.Active(ctx); active != nil {
			parent := active.Context()
			maybeParent = &parent
		}
	}

	var traceID, spanID, parentSpanID string
	var sampled bool
	if maybeParent != nil {
		state := maybeParent.TraceState()
		traceID = state.TraceID
		if t.squashServerSpan && kind == SpanKindServer {
			// Merge the server leg into the client leg's identity so the
			// adjacent in-process hop isn't counted twice.
			spanID = state.SpanID
			parentSpanID = state.ParentSpanID
		} else {
			spanID = t.ids.NextID()
			parentSpanID = state.SpanID
		}
		sampled = maybeParent.Sampled()
	} else {
		spanID = t.ids.NextID()
		if t.use128BitTraceID {
			traceID = t.ids.NextID() + spanID
		} else {
			traceID = spanID
		}
		sampled, _ = t.sampler(traceID, nil)
	}

	context := NewSpanContext(TraceState{
		TraceID:      traceID,
		SpanID:       spanID,
		ParentSpanID: parentSpanID,
		Sampled:      sampled,
	}, sampled)

	if !sampled {
		return newDiscardedSpan(operationName, kind, references, context)
	}

	span := newRecordingSpan(operationName, kind, references, context, tags,
		t.maxTagSize, startMicros, t.persistLogs, t.listeners, t.logger)
	t.listeners.NotifyStart(span)
	return span
}
