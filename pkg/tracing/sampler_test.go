package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSampleUnlessFalse(t *testing.T) {
	sampler := SampleUnlessFalse()

	sampled, err := sampler("abc", nil)
	require.NoError(t, err)
	assert.True(t, sampled)

	sampled, err = sampler("abc", boolPtr(true))
	require.NoError(t, err)
	assert.True(t, sampled)

	sampled, err = sampler("abc", boolPtr(false))
	require.NoError(t, err)
	assert.False(t, sampled)
}

func TestSamplerFromPredicate(t *testing.T) {
	sampler := SamplerFromPredicate(func(traceID string) bool {
		return traceID == "keep"
	})

	sampled, err := sampler("keep", nil)
	require.NoError(t, err)
	assert.True(t, sampled)

	sampled, err = sampler("drop", nil)
	require.NoError(t, err)
	assert.False(t, sampled)

	// An explicit request always wins over the predicate.
	sampled, err = sampler("drop", boolPtr(true))
	require.NoError(t, err)
	assert.True(t, sampled)

	sampled, err = sampler("keep", boolPtr(false))
	require.NoError(t, err)
	assert.False(t, sampled)
}

func TestGuardSamplerPassesThroughDecision(t *testing.T) {
	guarded := GuardSampler(SampleUnlessFalse(), nopLogger{})

	sampled, err := guarded("abc", nil)
	require.NoError(t, err)
	assert.True(t, sampled)
}

func TestGuardSamplerDegradesErrorToNotSampled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockLog := NewMockLogger(ctrl)
	mockLog.EXPECT().Warn("error from sampler, defaulting to not sampled", gomock.Any(), gomock.Any()).Times(1)

	guarded := GuardSampler(func(string, *bool) (bool, error) {
		return true, errors.New("decision store timeout")
	}, mockLog)

	sampled, err := guarded("abc", nil)
	require.NoError(t, err)
	assert.False(t, sampled)
}

func TestGuardSamplerRecoversPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockLog := NewMockLogger(ctrl)
	mockLog.EXPECT().Warn("panic from sampler, defaulting to not sampled", gomock.Any(), gomock.Any()).Times(1)

	guarded := GuardSampler(func(string, *bool) (bool, error) {
		panic("nil map write")
	}, mockLog)

	require.NotPanics(t, func() {
		sampled, err := guarded("abc", nil)
		require.NoError(t, err)
		assert.False(t, sampled)
	})
}
