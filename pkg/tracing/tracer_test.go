package tracing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"
)

// seqIDGenerator hands out deterministic, strictly increasing ids so tests
// can assert on exact identities.
type seqIDGenerator struct {
	mu   sync.Mutex
	next uint64
}

func (g *seqIDGenerator) NextID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%016x", g.next)
}

// recorderListener collects lifecycle events in order.
type recorderListener struct {
	mu     sync.Mutex
	events []string
	spans  []*Span
}

func (r *recorderListener) OnSpanStarted(span *Span) { r.record("started", span) }

func (r *recorderListener) OnSpanFinished(span *Span) { r.record("finished", span) }

func (r *recorderListener) record(event string, span *Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+":"+span.OperationName())
	r.spans = append(r.spans, span)
}

func (r *recorderListener) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func newTestTracer(t *testing.T, cfg Config) *Tracer {
	t.Helper()
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = &seqIDGenerator{}
	}
	tracer, err := NewTracer(cfg, nil)
	require.NoError(t, err)
	return tracer
}

func TestRootSpan64BitTraceID(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	span, err := tracer.BuildSpan("root").Start(context.Background())
	require.NoError(t, err)

	ctx := span.Context()
	assert.Len(t, ctx.SpanID(), 16)
	assert.Equal(t, ctx.SpanID(), ctx.TraceID())
	assert.Empty(t, ctx.ParentSpanID())
	assert.True(t, ctx.Sampled())
	assert.True(t, span.Recording())
}

func TestRootSpan128BitTraceID(t *testing.T) {
	tracer := newTestTracer(t, Config{Use128BitTraceID: true})

	span, err := tracer.BuildSpan("root").Start(context.Background())
	require.NoError(t, err)

	ctx := span.Context()
	assert.Len(t, ctx.TraceID(), 2*len(ctx.SpanID()))
	// The low 64 bits of the trace id are the span id.
	assert.Equal(t, ctx.SpanID(), ctx.TraceID()[16:])
}

func TestChildInheritsTraceAndParent(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	parent, err := tracer.BuildSpan("parent").Start(context.Background())
	require.NoError(t, err)

	child, err := tracer.BuildSpan("child").AsChildOf(parent.Context()).Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, parent.Context().TraceID(), child.Context().TraceID())
	assert.Equal(t, parent.Context().SpanID(), child.Context().ParentSpanID())
	assert.NotEqual(t, parent.Context().SpanID(), child.Context().SpanID())
}

func TestSquashServerSpanReusesClientIdentity(t *testing.T) {
	tracer := newTestTracer(t, Config{SquashServerSpan: true})

	client, err := tracer.BuildSpan("call-backend").WithKind(SpanKindClient).Start(context.Background())
	require.NoError(t, err)

	server, err := tracer.BuildSpan("handle-request").
		WithKind(SpanKindServer).
		AsChildOf(client.Context()).
		Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, client.Context().SpanID(), server.Context().SpanID())
	assert.Equal(t, client.Context().ParentSpanID(), server.Context().ParentSpanID())
	assert.Equal(t, client.Context().TraceID(), server.Context().TraceID())
}

func TestSquashOnlyAppliesToServerKind(t *testing.T) {
	tracer := newTestTracer(t, Config{SquashServerSpan: true})

	parent, err := tracer.BuildSpan("parent").WithKind(SpanKindClient).Start(context.Background())
	require.NoError(t, err)

	child, err := tracer.BuildSpan("child").
		WithKind(SpanKindConsumer).
		AsChildOf(parent.Context()).
		Start(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, parent.Context().SpanID(), child.Context().SpanID())
	assert.Equal(t, parent.Context().SpanID(), child.Context().ParentSpanID())
}

func TestSquashDisabledRecordsNewHop(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	client, err := tracer.BuildSpan("call-backend").WithKind(SpanKindClient).Start(context.Background())
	require.NoError(t, err)

	server, err := tracer.BuildSpan("handle-request").
		WithKind(SpanKindServer).
		AsChildOf(client.Context()).
		Start(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, client.Context().SpanID(), server.Context().SpanID())
	assert.Equal(t, client.Context().SpanID(), server.Context().ParentSpanID())
}

func TestSamplingDecidedOnceAtRoot(t *testing.T) {
	var calls int
	tracer := newTestTracer(t, Config{
		Sampler: func(string, *bool) (bool, error) {
			calls++
			return true, nil
		},
	})

	root, err := tracer.BuildSpan("root").Start(context.Background())
	require.NoError(t, err)
	child, err := tracer.BuildSpan("child").AsChildOf(root.Context()).Start(context.Background())
	require.NoError(t, err)
	_, err = tracer.BuildSpan("grandchild").AsChildOf(child.Context()).Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestSampledInheritedByAllDescendants(t *testing.T) {
	tracer := newTestTracer(t, Config{
		Sampler: SamplerFromPredicate(func(string) bool { return false }),
	})

	root, err := tracer.BuildSpan("root").Start(context.Background())
	require.NoError(t, err)
	child, err := tracer.BuildSpan("child").AsChildOf(root.Context()).Start(context.Background())
	require.NoError(t, err)

	assert.False(t, root.Context().Sampled())
	assert.False(t, child.Context().Sampled())
	assert.False(t, child.Recording())
}

func TestFailingSamplerNeverReachesCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockLog := NewMockLogger(ctrl)
	mockLog.EXPECT().Warn("error from sampler, defaulting to not sampled", gomock.Any(), gomock.Any()).Times(3)

	tracer, err := NewTracer(Config{
		Sampler: func(string, *bool) (bool, error) {
			return false, errors.New("sampler backend unavailable")
		},
	}, mockLog)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		span, err := tracer.BuildSpan("root").Start(context.Background())
		require.NoError(t, err)
		assert.False(t, span.Context().Sampled())
		assert.False(t, span.Recording())
	}
}

func TestPanickingSamplerNeverReachesCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockLog := NewMockLogger(ctrl)
	mockLog.EXPECT().Warn("panic from sampler, defaulting to not sampled", gomock.Any(), gomock.Any()).Times(1)

	tracer, err := NewTracer(Config{
		Sampler: func(string, *bool) (bool, error) {
			panic("boom")
		},
	}, mockLog)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		span, err := tracer.BuildSpan("root").Start(context.Background())
		require.NoError(t, err)
		assert.False(t, span.Context().Sampled())
	})
}

func TestActiveSpanBecomesImplicitParent(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	ctx, scope, err := tracer.BuildSpan("outer").StartActive(context.Background(), true)
	require.NoError(t, err)

	child, err := tracer.BuildSpan("inner").Start(ctx)
	require.NoError(t, err)

	assert.Equal(t, scope.Span().Context().SpanID(), child.Context().ParentSpanID())
	assert.Equal(t, scope.Span().Context().TraceID(), child.Context().TraceID())

	require.NoError(t, scope.Close())
	assert.Nil(t, tracer.ActiveSpan(ctx))
}

func TestActiveSpanDoesNotLeakAcrossContexts(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	ctx, scope, err := tracer.BuildSpan("outer").StartActive(context.Background(), true)
	require.NoError(t, err)
	defer func() { require.NoError(t, scope.Close()) }()

	require.NotNil(t, tracer.ActiveSpan(ctx))
	// A context that never saw an activation has no active span, and spans
	// started from it get no implicit parent.
	assert.Nil(t, tracer.ActiveSpan(context.Background()))

	detached, err := tracer.BuildSpan("elsewhere").Start(context.Background())
	require.NoError(t, err)
	assert.Empty(t, detached.Context().ParentSpanID())
	assert.NotEqual(t, scope.Span().Context().TraceID(), detached.Context().TraceID())
}

func TestConcurrentContextsKeepIndependentScopeStacks(t *testing.T) {
	tracer := newTestTracer(t, Config{IDGenerator: NewRandomIDGenerator()})

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			ctx, outer, err := tracer.BuildSpan("outer").StartActive(context.Background(), true)
			if err != nil {
				return err
			}
			innerCtx, inner, err := tracer.BuildSpan("inner").StartActive(ctx, true)
			if err != nil {
				return err
			}
			active := tracer.ActiveSpan(innerCtx)
			if active != inner.Span() {
				return errors.New("active span belongs to another goroutine's work")
			}
			if inner.Span().Context().ParentSpanID() != outer.Span().Context().SpanID() {
				return errors.New("inner span parented outside its own context")
			}
			if err := inner.Close(); err != nil {
				return err
			}
			return outer.Close()
		})
	}
	require.NoError(t, g.Wait())
}

func TestIgnoreActiveSpan(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	ctx, scope, err := tracer.BuildSpan("outer").StartActive(context.Background(), true)
	require.NoError(t, err)
	defer func() { require.NoError(t, scope.Close()) }()

	root, err := tracer.BuildSpan("detached").IgnoreActiveSpan().Start(ctx)
	require.NoError(t, err)

	assert.Empty(t, root.Context().ParentSpanID())
	assert.NotEqual(t, scope.Span().Context().TraceID(), root.Context().TraceID())
}

func TestExplicitReferenceWinsOverActiveSpan(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	ctx, scope, err := tracer.BuildSpan("active").StartActive(context.Background(), true)
	require.NoError(t, err)
	defer func() { require.NoError(t, scope.Close()) }()

	remote := NewSpanContext(TraceState{
		TraceID: "00000000000000aa",
		SpanID:  "00000000000000bb",
		Sampled: true,
	}, true)

	child, err := tracer.BuildSpan("child").AsChildOf(remote).Start(ctx)
	require.NoError(t, err)

	assert.Equal(t, "00000000000000aa", child.Context().TraceID())
	assert.Equal(t, "00000000000000bb", child.Context().ParentSpanID())
}

func TestFollowsFromAloneDoesNotParent(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	previous, err := tracer.BuildSpan("previous").Start(context.Background())
	require.NoError(t, err)

	next, err := tracer.BuildSpan("next").FollowsFrom(previous.Context()).Start(context.Background())
	require.NoError(t, err)

	assert.Empty(t, next.Context().ParentSpanID())
	assert.NotEqual(t, previous.Context().TraceID(), next.Context().TraceID())
	require.Len(t, next.References(), 1)
	assert.Equal(t, FollowsFromRef, next.References()[0].Type)
}

func TestListenerReceivesStartThenFinish(t *testing.T) {
	recorder := &recorderListener{}
	tracer := newTestTracer(t, Config{Listeners: []SpanListener{recorder}})

	span, err := tracer.BuildSpan("A").Start(context.Background())
	require.NoError(t, err)
	span.Finish()

	assert.Equal(t, []string{"started:A", "finished:A"}, recorder.Events())
}

func TestListenerAddedAfterStartStillSeesFinish(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	span, err := tracer.BuildSpan("A").Start(context.Background())
	require.NoError(t, err)

	late := &recorderListener{}
	tracer.AddListener(late)
	span.Finish()

	assert.Equal(t, []string{"finished:A"}, late.Events())
}

func TestDiscardedSpanEmitsNoEvents(t *testing.T) {
	recorder := &recorderListener{}
	tracer := newTestTracer(t, Config{
		Sampler:   SamplerFromPredicate(func(string) bool { return false }),
		Listeners: []SpanListener{recorder},
	})

	span, err := tracer.BuildSpan("quiet").Start(context.Background())
	require.NoError(t, err)
	span.SetTag("ignored", true)
	span.Finish()

	assert.Empty(t, recorder.Events())
}

func TestEmptyOperationNameRejected(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	_, err := tracer.BuildSpan("").Start(context.Background())
	assert.ErrorIs(t, err, ErrMissingOperationName)

	_, _, err = tracer.BuildSpan("").StartActive(context.Background(), true)
	assert.ErrorIs(t, err, ErrMissingOperationName)
}

func TestNegativeMaxTagSizeRejected(t *testing.T) {
	_, err := NewTracer(Config{MaxTagSize: intPtr(-1)}, nil)
	assert.ErrorIs(t, err, ErrInvalidMaxTagSize)
}

func TestStartActiveFinishesSpanOnClose(t *testing.T) {
	recorder := &recorderListener{}
	tracer := newTestTracer(t, Config{Listeners: []SpanListener{recorder}})

	ctx, scope, err := tracer.BuildSpan("A").StartActive(context.Background(), true)
	require.NoError(t, err)
	require.Same(t, scope.Span(), tracer.ActiveSpan(ctx))

	require.NoError(t, scope.Close())
	assert.True(t, scope.Span().Finished())
	assert.Equal(t, []string{"started:A", "finished:A"}, recorder.Events())
}

func TestStartActiveWithoutFinishOnClose(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	_, scope, err := tracer.BuildSpan("A").StartActive(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, scope.Close())

	assert.False(t, scope.Span().Finished())
}

func TestCloseDetachesListeners(t *testing.T) {
	recorder := &recorderListener{}
	tracer := newTestTracer(t, Config{Listeners: []SpanListener{recorder}})

	span, err := tracer.BuildSpan("A").Start(context.Background())
	require.NoError(t, err)

	tracer.Close()
	span.Finish()

	assert.Equal(t, []string{"started:A"}, recorder.Events())
}

func TestUnsampledRemoteParentInherited(t *testing.T) {
	tracer := newTestTracer(t, Config{})

	// Simulates a carrier-supplied "do not sample" flag resolved by an
	// extraction collaborator: the parent context arrives unsampled and every
	// descendant inherits that.
	remote := NewSpanContext(TraceState{
		TraceID: "00000000000000aa",
		SpanID:  "00000000000000bb",
		Sampled: false,
	}, false)

	child, err := tracer.BuildSpan("child").AsChildOf(remote).Start(context.Background())
	require.NoError(t, err)

	assert.False(t, child.Recording())
	assert.False(t, child.Context().Sampled())
}

func TestConcurrentSpanLifecycle(t *testing.T) {
	recorder := &recorderListener{}
	tracer := newTestTracer(t, Config{
		IDGenerator: NewRandomIDGenerator(),
		Listeners:   []SpanListener{recorder},
	})

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			extra := &recorderListener{}
			tracer.AddListener(extra)
			defer tracer.RemoveListener(extra)

			root, err := tracer.BuildSpan("root").Start(context.Background())
			if err != nil {
				return err
			}
			for j := 0; j < 16; j++ {
				child, err := tracer.BuildSpan("child").AsChildOf(root.Context()).Start(context.Background())
				if err != nil {
					return err
				}
				child.SetTag("index", j)
				child.Finish()
			}
			root.Finish()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// 32 roots and 32*16 children, one start and one finish each.
	assert.Len(t, recorder.Events(), 2*(32+32*16))
}
