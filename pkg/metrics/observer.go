package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/weftworks/obs/pkg/tracing"
)

// SpanObserver is a tracing.SpanListener that instruments the tracer itself:
// it counts spans started and finished and observes span durations, labelled
// by span kind. It never exports span payloads.
//
// Only recording spans emit lifecycle events, so unsampled traffic does not
// show up here by construction.
type SpanObserver struct {
	started  *prometheus.CounterVec
	finished *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSpanObserver creates the observer and registers its collectors on the
// given Metrics registry. Attach it with tracer.AddListener.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "checkout"})
//	tracer.AddListener(metrics.NewSpanObserver(m))
func NewSpanObserver(m *Metrics) *SpanObserver {
	o := &SpanObserver{
		started: createCounterVec(
			"tracing_spans_started_total",
			"Number of recording spans started.",
			[]string{"kind"},
		),
		finished: createCounterVec(
			"tracing_spans_finished_total",
			"Number of recording spans finished.",
			[]string{"kind"},
		),
		duration: createHistogramVec(
			"tracing_span_duration_seconds",
			"Duration of finished spans in seconds.",
			[]string{"kind"},
			prometheus.DefBuckets,
		),
	}

	m.Registry.MustRegister(o.started, o.finished, o.duration)
	return o
}

// OnSpanStarted implements tracing.SpanListener.
func (o *SpanObserver) OnSpanStarted(span *tracing.Span) {
	o.started.WithLabelValues(kindLabel(span)).Inc()
}

// OnSpanFinished implements tracing.SpanListener.
func (o *SpanObserver) OnSpanFinished(span *tracing.Span) {
	kind := kindLabel(span)
	o.finished.WithLabelValues(kind).Inc()
	o.duration.WithLabelValues(kind).Observe(float64(span.DurationMicros()) / 1e6)
}

// kindLabel keeps the label set closed: spans without a kind are reported as
// internal.
func kindLabel(span *tracing.Span) string {
	if kind := span.Kind(); kind != "" {
		return kind
	}
	return "internal"
}
