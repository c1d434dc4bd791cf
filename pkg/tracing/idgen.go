package tracing

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand"
)

// IDGenerator produces collision-resistant identifiers for spans and traces.
// Implementations must be safe for concurrent use and should avoid shared
// contended state on the hot path.
type IDGenerator interface {
	// NextID returns a 64-bit identifier encoded as 16 lower-case hex chars.
	NextID() string
}

// randomIDGenerator draws ids from math/rand's top-level generator, which is
// automatically seeded and safe for concurrent use.
type randomIDGenerator struct{}

// NewRandomIDGenerator returns the default IDGenerator.
//
// Random draws are deliberate: if ids came from a counter, an independent
// process also using a counter could end up synchronized with this one and
// produce overlapping sequences. Randomness needs no cross-process
// coordination; uniqueness is probabilistic only.
func NewRandomIDGenerator() IDGenerator {
	return randomIDGenerator{}
}

func (randomIDGenerator) NextID() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], rand.Uint64())
	return hex.EncodeToString(b[:])
}
