package tracing

import (
	"sync"
	"time"
)

// LogEntry is an ordered, timestamped set of fields attached to a span.
type LogEntry struct {
	TimestampMicros int64
	Fields          map[string]interface{}
}

// Span is one timed unit of work within a trace.
//
// A span exists in one of two variants, chosen once when the tracer creates
// it: a recording span accumulates tags and logs and emits lifecycle events,
// while a discarded span (for unsampled traces) carries identity only. The
// variant is represented by the nilable recording block rather than by
// subtyping, so every call site handles both without type inspection; use
// Recording to tell them apart.
//
// A span is mutable while started and frozen at finish: mutations after
// Finish are dropped. A span instance must only be mutated by the execution
// context that owns it at a given time.
type Span struct {
	operationName string
	kind          string
	references    []Reference
	context       SpanContext

	// nil for the discarded variant
	rec *recording
}

// recording holds the mutable state of a sampled span.
type recording struct {
	mu             sync.Mutex
	startMicros    int64
	durationMicros int64
	finished       bool
	tags           map[string]interface{}
	logs           []LogEntry
	maxTagSize     int
	persistLogs    bool
	listeners      *ListenerSet
	logger         Logger
}

func newRecordingSpan(operationName, kind string, references []Reference, context SpanContext,
	tags map[string]interface{}, maxTagSize int, startMicros int64, persistLogs bool,
	listeners *ListenerSet, logger Logger) *Span {
	if tags == nil {
		tags = make(map[string]interface{})
	}
	return &Span{
		operationName: operationName,
		kind:          kind,
		references:    references,
		context:       context,
		rec: &recording{
			startMicros: startMicros,
			tags:        tags,
			maxTagSize:  maxTagSize,
			persistLogs: persistLogs,
			listeners:   listeners,
			logger:      logger,
		},
	}
}

func newDiscardedSpan(operationName, kind string, references []Reference, context SpanContext) *Span {
	return &Span{
		operationName: operationName,
		kind:          kind,
		references:    references,
		context:       context,
	}
}

// Context returns the span's immutable context.
func (s *Span) Context() SpanContext { return s.context }

// Kind returns the span kind, or the empty string when none was set.
func (s *Span) Kind() string { return s.kind }

// Recording reports whether this is the recording variant. Discarded spans
// hold identity only: they retain no tags or logs and never notify listeners.
func (s *Span) Recording() bool { return s.rec != nil }

// References returns a copy of the span's references.
func (s *Span) References() []Reference {
	refs := make([]Reference, len(s.references))
	copy(refs, s.references)
	return refs
}

// OperationName returns the current operation name.
func (s *Span) OperationName() string {
	if s.rec == nil {
		return s.operationName
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	return s.operationName
}

// SetOperationName renames the span. Dropped on discarded or finished spans
// and for empty names.
func (s *Span) SetOperationName(operationName string) *Span {
	if s.rec == nil || operationName == "" {
		return s
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	if s.rec.finished {
		return s
	}
	s.operationName = operationName
	return s
}

// SetTag attaches a tag to the span. On a recording span the number of
// distinct tags is capped at the tracer's max tag size; once the cap is
// reached further keys are dropped silently, bounding memory under misuse.
// Overwriting an existing key is always allowed. Discarded and finished spans
// drop all tags.
func (s *Span) SetTag(key string, value interface{}) *Span {
	if s.rec == nil {
		return s
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	if s.rec.finished {
		return s
	}
	setTagWithinLimit(s.rec.tags, key, value, s.rec.maxTagSize)
	return s
}

// setTagWithinLimit inserts key into tags unless doing so would grow the map
// beyond maxTagSize distinct keys.
func setTagWithinLimit(tags map[string]interface{}, key string, value interface{}, maxTagSize int) {
	if _, exists := tags[key]; !exists && len(tags) >= maxTagSize {
		return
	}
	tags[key] = value
}

// Tags returns a copy of the span's tags. Nil for discarded spans.
func (s *Span) Tags() map[string]interface{} {
	if s.rec == nil {
		return nil
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	tags := make(map[string]interface{}, len(s.rec.tags))
	for k, v := range s.rec.tags {
		tags[k] = v
	}
	return tags
}

// Log attaches a timestamped log entry to the span. Entries are retained only
// when the tracer was configured with PersistLogs; otherwise they are dropped
// without error. Discarded and finished spans drop all entries.
func (s *Span) Log(fields map[string]interface{}) *Span {
	return s.LogAt(time.Now().UnixMicro(), fields)
}

// LogAt is Log with an explicit timestamp in microseconds since epoch.
func (s *Span) LogAt(timestampMicros int64, fields map[string]interface{}) *Span {
	if s.rec == nil || len(fields) == 0 {
		return s
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	if s.rec.finished || !s.rec.persistLogs {
		return s
	}
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.rec.logs = append(s.rec.logs, LogEntry{TimestampMicros: timestampMicros, Fields: copied})
	return s
}

// Logs returns a copy of the persisted log entries, in order. Nil for
// discarded spans or when logs are not persisted.
func (s *Span) Logs() []LogEntry {
	if s.rec == nil {
		return nil
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	if s.rec.logs == nil {
		return nil
	}
	logs := make([]LogEntry, len(s.rec.logs))
	copy(logs, s.rec.logs)
	return logs
}

// StartTimestampMicros returns the start time in microseconds since epoch, or
// 0 for discarded spans.
func (s *Span) StartTimestampMicros() int64 {
	if s.rec == nil {
		return 0
	}
	return s.rec.startMicros
}

// DurationMicros returns the span duration in microseconds, or 0 while the
// span is unfinished and for discarded spans.
func (s *Span) DurationMicros() int64 {
	if s.rec == nil {
		return 0
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	return s.rec.durationMicros
}

// Finished reports whether Finish has been called. Discarded spans do no
// finish bookkeeping and always report false.
func (s *Span) Finished() bool {
	if s.rec == nil {
		return false
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	return s.rec.finished
}

// Finish freezes the span and, for the recording variant, notifies the
// tracer's listeners. Finishing twice is a usage error: it is logged as a
// warning and the first finish's data is kept.
func (s *Span) Finish() {
	s.FinishAt(time.Now().UnixMicro())
}

// FinishAt is Finish with an explicit timestamp in microseconds since epoch.
func (s *Span) FinishAt(timestampMicros int64) {
	if s.rec == nil {
		return
	}

	s.rec.mu.Lock()
	if s.rec.finished {
		s.rec.mu.Unlock()
		s.rec.logger.Warn("span finished more than once", nil, map[string]interface{}{
			"operation": s.operationName,
			"trace_id":  s.context.TraceID(),
			"span_id":   s.context.SpanID(),
		})
		return
	}
	s.rec.finished = true
	if d := timestampMicros - s.rec.startMicros; d > 0 {
		s.rec.durationMicros = d
	}
	s.rec.mu.Unlock()

	// Listeners may read the span back; notify outside the lock.
	s.rec.listeners.NotifyFinish(s)
}
