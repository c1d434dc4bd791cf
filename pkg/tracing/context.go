package tracing

// Span kinds. The kind describes the relationship of the span to the remote
// side of an interaction, if any. SpanKindServer participates in server-span
// squashing when enabled on the tracer.
const (
	SpanKindClient   = "client"
	SpanKindServer   = "server"
	SpanKindProducer = "producer"
	SpanKindConsumer = "consumer"
)

// RefType identifies the kind of link a new span holds to an existing span
// context.
type RefType int

const (
	// ChildOfRef marks the referenced context as the (candidate) parent of
	// the new span.
	ChildOfRef RefType = iota

	// FollowsFromRef links the new span to a context it causally follows
	// without being its child.
	FollowsFromRef
)

// String returns the OpenTracing wire name of the reference type.
func (r RefType) String() string {
	switch r {
	case ChildOfRef:
		return "child_of"
	case FollowsFromRef:
		return "follows_from"
	default:
		return "unknown"
	}
}

// TraceState is the immutable identity tuple of a span. IDs are lower-case
// hex strings: span ids are 64-bit (16 chars), trace ids 64- or 128-bit
// (16 or 32 chars) depending on tracer configuration.
//
// Within one trace, Sampled is identical for every span: the decision is made
// once at the root and inherited, never re-evaluated.
type TraceState struct {
	TraceID      string
	SpanID       string
	ParentSpanID string // empty for root spans
	Sampled      bool
}

// SpanContext is a TraceState plus the resolved sampling flag used for
// propagation. It is immutable, owned by exactly one span, and shared
// read-only with children created from it.
type SpanContext struct {
	state   TraceState
	sampled bool
}

// NewSpanContext constructs a SpanContext from a trace state and the sampling
// decision resolved for it.
func NewSpanContext(state TraceState, sampled bool) SpanContext {
	return SpanContext{state: state, sampled: sampled}
}

// TraceState returns the identity tuple.
func (c SpanContext) TraceState() TraceState { return c.state }

// TraceID returns the hex trace id.
func (c SpanContext) TraceID() string { return c.state.TraceID }

// SpanID returns the hex span id.
func (c SpanContext) SpanID() string { return c.state.SpanID }

// ParentSpanID returns the hex parent span id, or the empty string for roots.
func (c SpanContext) ParentSpanID() string { return c.state.ParentSpanID }

// Sampled reports the trace-wide sampling decision.
func (c SpanContext) Sampled() bool { return c.sampled }

// Reference is a typed link from a new span to an existing span context. A
// builder accumulates zero or more references before the span starts; the
// effective parent is the first ChildOfRef reference, if any exist.
type Reference struct {
	Type    RefType
	Context SpanContext
}
