package tracing

import (
	"context"
	"time"
)

// SpanBuilder accumulates configuration for a span before it starts. Obtain
// one from Tracer.BuildSpan; methods chain and are not safe for concurrent
// use. The span materializes on Start or StartActive; the builder may be
// reused afterwards, each start producing an independent span.
type SpanBuilder struct {
	tracer           *Tracer
	operationName    string
	kind             string
	references       []Reference
	tags             map[string]interface{}
	startMicros      int64
	hasStartMicros   bool
	ignoreActiveSpan bool
}

// AsChildOf adds a child-of reference to the given context. The first
// child-of reference becomes the span's parent.
func (b *SpanBuilder) AsChildOf(parent SpanContext) *SpanBuilder {
	return b.AddReference(ChildOfRef, parent)
}

// FollowsFrom adds a follows-from reference to the given context.
func (b *SpanBuilder) FollowsFrom(context SpanContext) *SpanBuilder {
	return b.AddReference(FollowsFromRef, context)
}

// AddReference adds a typed reference to the given context.
func (b *SpanBuilder) AddReference(refType RefType, context SpanContext) *SpanBuilder {
	b.references = append(b.references, Reference{Type: refType, Context: context})
	return b
}

// WithKind sets the span kind, e.g. SpanKindClient or SpanKindServer.
func (b *SpanBuilder) WithKind(kind string) *SpanBuilder {
	b.kind = kind
	return b
}

// WithTag pre-sets a tag on the span. The tracer's tag cap applies here as
// well: distinct keys beyond the cap are dropped silently.
func (b *SpanBuilder) WithTag(key string, value interface{}) *SpanBuilder {
	if b.tags == nil {
		b.tags = make(map[string]interface{})
	}
	setTagWithinLimit(b.tags, key, value, b.tracer.maxTagSize)
	return b
}

// WithStartTimestamp sets an explicit start time in microseconds since epoch.
// When unset, the span starts at the wall-clock time of Start.
func (b *SpanBuilder) WithStartTimestamp(startMicros int64) *SpanBuilder {
	b.startMicros = startMicros
	b.hasStartMicros = true
	return b
}

// IgnoreActiveSpan prevents ctx's active span from being used as an implicit
// parent when no child-of reference is present.
func (b *SpanBuilder) IgnoreActiveSpan() *SpanBuilder {
	b.ignoreActiveSpan = true
	return b
}

// Start materializes the span. ctx identifies the logical execution context
// whose active span becomes the implicit parent when no child-of reference is
// present. Returns ErrMissingOperationName when the builder was created with
// an empty operation name.
func (b *SpanBuilder) Start(ctx context.Context) (*Span, error) {
	if b.operationName == "" {
		return nil, ErrMissingOperationName
	}
	startMicros := b.startMicros
	if !b.hasStartMicros {
		startMicros = time.Now().UnixMicro()
	}

	// Detach the accumulated state so reusing the builder cannot alias
	// mutable state across spans.
	var references []Reference
	if len(b.references) > 0 {
		references = make([]Reference, len(b.references))
		copy(references, b.references)
	}
	var tags map[string]interface{}
	if len(b.tags) > 0 {
		tags = make(map[string]interface{}, len(b.tags))
		for k, v := range b.tags {
			tags[k] = v
		}
	}

	return b.tracer.createSpan(ctx, b.kind, b.operationName, references, tags,
		b.ignoreActiveSpan, startMicros), nil
}

// StartActive materializes the span and activates it as ctx's current scope
// in one step, returning the context carrying the activation. When
// finishSpanOnClose is set, closing the returned scope also finishes the
// span.
func (b *SpanBuilder) StartActive(ctx context.Context, finishSpanOnClose bool) (context.Context, *Scope, error) {
	span, err := b.Start(ctx)
	if err != nil {
		return ctx, nil, err
	}
	ctx, scope := b.tracer.scopes.Activate(ctx, span, finishSpanOnClose)
	return ctx, scope, nil
}

// firstChildOf resolves the effective parent from accumulated references.
func firstChildOf(references []Reference) *SpanContext {
	for i := range references {
		if references[i].Type == ChildOfRef {
			return &references[i].Context
		}
	}
	return nil
}
