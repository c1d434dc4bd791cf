package tracing

import (
	"sync"
	"sync/atomic"
)

// SpanListener observes span lifecycle events. Callbacks are invoked
// synchronously on the goroutine that started or finished the span and must
// not block. Only recording spans emit events; discarded spans are invisible
// to listeners.
type SpanListener interface {
	OnSpanStarted(span *Span)
	OnSpanFinished(span *Span)
}

// ListenerSet is a mutable registry of SpanListeners that is safe to modify
// while events are being emitted. Mutation copies the listener slice under a
// lock; emission iterates an immutable snapshot taken when it begins, so a
// listener added mid-emission does not observe the in-flight event but does
// observe all subsequent ones.
//
// A panicking listener is recovered and logged; delivery continues to the
// remaining listeners.
type ListenerSet struct {
	mu       sync.Mutex
	snapshot atomic.Value // []SpanListener
	logger   Logger
}

// NewListenerSet creates an empty listener set.
func NewListenerSet(logger Logger) *ListenerSet {
	s := &ListenerSet{logger: logger}
	s.snapshot.Store([]SpanListener{})
	return s
}

// Add registers a listener. Nil listeners are ignored.
func (s *ListenerSet) Add(listener SpanListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot.Load().([]SpanListener)
	next := make([]SpanListener, len(current), len(current)+1)
	copy(next, current)
	s.snapshot.Store(append(next, listener))
}

// Remove deregisters the first listener equal to the given one. Listeners are
// compared by interface equality, so register and remove the same value.
func (s *ListenerSet) Remove(listener SpanListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot.Load().([]SpanListener)
	for i, l := range current {
		if l == listener {
			next := make([]SpanListener, 0, len(current)-1)
			next = append(next, current[:i]...)
			next = append(next, current[i+1:]...)
			s.snapshot.Store(next)
			return
		}
	}
}

// Len reports the number of registered listeners.
func (s *ListenerSet) Len() int {
	return len(s.snapshot.Load().([]SpanListener))
}

// Clear deregisters all listeners.
func (s *ListenerSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Store([]SpanListener{})
}

// NotifyStart delivers the start event to the snapshot of listeners.
func (s *ListenerSet) NotifyStart(span *Span) {
	for _, l := range s.snapshot.Load().([]SpanListener) {
		s.deliver(l, span, "started", SpanListener.OnSpanStarted)
	}
}

// NotifyFinish delivers the finish event to the snapshot of listeners.
func (s *ListenerSet) NotifyFinish(span *Span) {
	for _, l := range s.snapshot.Load().([]SpanListener) {
		s.deliver(l, span, "finished", SpanListener.OnSpanFinished)
	}
}

func (s *ListenerSet) deliver(l SpanListener, span *Span, event string, notify func(SpanListener, *Span)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("panic from span listener, continuing delivery", nil, map[string]interface{}{
				"event":    event,
				"trace_id": span.Context().TraceID(),
				"span_id":  span.Context().SpanID(),
				"panic":    r,
			})
		}
	}()
	notify(l, span)
}
