package tracing

// DefaultMaxTagSize is the tag capacity used when none is configured.
const DefaultMaxTagSize = 16

// Config defines the configuration structure for the tracer.
type Config struct {
	// Sampler decides, once per trace, whether the trace is recorded.
	// Defaults to SampleUnlessFalse. The tracer wraps whatever is configured
	// here with GuardSampler, so implementations don't need to self-protect.
	Sampler Sampler `yaml:"-"`

	// MaxTagSize caps the number of distinct tags a recording span may hold;
	// further tag writes are dropped silently. Must be >= 0; 0 means no tags
	// are ever retained. Leave nil for the default of 16.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "max_tag_size" key
	//   - Environment variable TRACING_MAX_TAG_SIZE
	MaxTagSize *int `yaml:"max_tag_size" envconfig:"TRACING_MAX_TAG_SIZE"`

	// PersistLogs keeps log entries in the span object. This is necessary
	// when using listeners that send the span to a backend on finish; off by
	// default to avoid retaining log payloads nobody reads.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "persist_logs" key
	//   - Environment variable TRACING_PERSIST_LOGS
	//
	// Default: false
	PersistLogs bool `yaml:"persist_logs" envconfig:"TRACING_PERSIST_LOGS"`

	// SquashServerSpan makes server-kind spans reuse the span id of their
	// client-side parent instead of recording a new hop, merging the two
	// adjacent in-process legs into one identity.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "squash_server_span" key
	//   - Environment variable TRACING_SQUASH_SERVER_SPAN
	//
	// Default: false
	SquashServerSpan bool `yaml:"squash_server_span" envconfig:"TRACING_SQUASH_SERVER_SPAN"`

	// Use128BitTraceID widens trace ids to 128 bits (32 hex chars), formed by
	// concatenating two independent 64-bit draws.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "use_128_bit_trace_id" key
	//   - Environment variable TRACING_USE_128_BIT_TRACE_ID
	//
	// Default: false
	Use128BitTraceID bool `yaml:"use_128_bit_trace_id" envconfig:"TRACING_USE_128_BIT_TRACE_ID"`

	// Listeners are registered before the tracer is returned. More can be
	// added or removed at any time via AddListener/RemoveListener.
	Listeners []SpanListener `yaml:"-"`

	// IDGenerator overrides the id source. Leave nil for the default random
	// generator; mainly an injection point for tests.
	IDGenerator IDGenerator `yaml:"-"`
}

// Validate checks the configuration for values that are fatal to tracer
// construction.
func (c Config) Validate() error {
	if c.MaxTagSize != nil && *c.MaxTagSize < 0 {
		return ErrInvalidMaxTagSize
	}
	return nil
}

func (c Config) maxTagSize() int {
	if c.MaxTagSize == nil {
		return DefaultMaxTagSize
	}
	return *c.MaxTagSize
}
