package tracing

// Sampler decides whether the trace identified by traceID should be recorded.
// requested is the sampling flag requested by the caller (for example carried
// in from an upstream hop), or nil when no explicit request was made.
//
// The decision is computed exactly once, at the span that has no resolvable
// parent; every descendant inherits it unmodified.
type Sampler func(traceID string, requested *bool) (bool, error)

// SampleUnlessFalse is the default sampling policy: sample unless explicitly
// told not to. A non-nil requested flag wins; otherwise the trace is sampled.
func SampleUnlessFalse() Sampler {
	return func(_ string, requested *bool) (bool, error) {
		return requested == nil || *requested, nil
	}
}

// SamplerFromPredicate adapts a unary predicate over the trace id into a
// Sampler. A non-nil requested flag still overrides the predicate.
func SamplerFromPredicate(pred func(traceID string) bool) Sampler {
	return func(traceID string, requested *bool) (bool, error) {
		if requested != nil {
			return *requested, nil
		}
		return pred(traceID), nil
	}
}

// GuardSampler wraps a sampler so that a failure can never reach the traced
// operation. A returned error or a panic is logged as a warning and degrades
// the decision to not sampled. The returned sampler never returns an error.
func GuardSampler(s Sampler, logger Logger) Sampler {
	return func(traceID string, requested *bool) (sampled bool, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("panic from sampler, defaulting to not sampled", nil, map[string]interface{}{
					"trace_id": traceID,
					"panic":    r,
				})
				sampled, err = false, nil
			}
		}()

		decision, sErr := s(traceID, requested)
		if sErr != nil {
			logger.Warn("error from sampler, defaulting to not sampled", sErr, map[string]interface{}{
				"trace_id": traceID,
			})
			return false, nil
		}
		return decision, nil
	}
}
