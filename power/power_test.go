package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRange(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())

	_, ok := f.Filter(2001)
	assert.False(t, ok, "2001 W is above the default ceiling")

	v, ok := f.Filter(2000)
	require.True(t, ok)
	assert.Equal(t, 2000.0, v)

	_, ok = f.Filter(-1)
	assert.False(t, ok)
}

func TestFilterSpikeAnchor(t *testing.T) {
	f := NewFilter(FilterConfig{MinWatts: 0, MaxWatts: 2000, MaxDelta: 200})

	// First sample is always accepted.
	_, ok := f.Filter(200)
	require.True(t, ok)

	// A 300 W jump is rejected and must not move the anchor.
	_, ok = f.Filter(500)
	assert.False(t, ok)

	// Next sample is compared against 200, not 500.
	_, ok = f.Filter(390)
	assert.True(t, ok)
	_, ok = f.Filter(591)
	assert.False(t, ok)
}

func TestFilterResetForgetsAnchor(t *testing.T) {
	f := NewFilter(FilterConfig{MinWatts: 0, MaxWatts: 2000, MaxDelta: 50})
	_, ok := f.Filter(100)
	require.True(t, ok)
	f.Reset()
	_, ok = f.Filter(900)
	assert.True(t, ok, "first sample after reset is always accepted")
}

func TestRollingAverageWindow(t *testing.T) {
	r := NewRollingAverage(3)

	inputs := []float64{200, 220, 240, 260}
	want := []float64{200, 210, 220, 240}
	fullAt := []bool{false, false, true, true}

	for i, in := range inputs {
		avg, ok := r.Add(in)
		require.True(t, ok)
		assert.InDelta(t, want[i], avg, 1e-9, "sample %d", i)
		assert.Equal(t, fullAt[i], r.Full(), "fullness after sample %d", i)
	}
}

func TestRollingAverageEmpty(t *testing.T) {
	r := NewRollingAverage(3)
	_, ok := r.Average()
	assert.False(t, ok)

	r.Add(100)
	r.Reset()
	_, ok = r.Average()
	assert.False(t, ok)
}

func TestNormalizedPowerSteadyThenStep(t *testing.T) {
	np := NewNPCalculator()

	var v float64
	var ok bool
	for i := 0; i < 30; i++ {
		v, ok = np.Add(200)
	}
	require.True(t, ok, "NP available once the 30 s window fills")
	assert.InDelta(t, 200, v, 1, "steady 200 W gives NP within 1 W of 200")

	for i := 0; i < 30; i++ {
		v, ok = np.Add(300)
	}
	require.True(t, ok)
	assert.Greater(t, v, 200.0, "harder second half raises NP above 200")
}

func TestNormalizedPowerBeforeWindowFills(t *testing.T) {
	np := NewNPCalculator()
	for i := 0; i < NPWindowSeconds-1; i++ {
		_, ok := np.Add(250)
		assert.False(t, ok)
	}
	_, ok := np.Value()
	assert.False(t, ok)
}
