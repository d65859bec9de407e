package cp

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/pdc"
)

// syntheticCurve samples P(t) = 250 + 20000/t at the given durations.
func syntheticCurve(durations ...uint32) pdc.Curve {
	points := make([]pdc.Point, 0, len(durations))
	for _, d := range durations {
		watts := 250.0 + 20000.0/float64(d)
		points = append(points, pdc.Point{
			DurationSecs: d,
			Watts:        uint16(math.Round(watts)),
		})
	}
	return pdc.New(points)
}

func TestFitRecoversSyntheticModel(t *testing.T) {
	m, err := Fit(syntheticCurve(180, 720, 1200), DefaultOptions())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, m.CP, uint16(245))
	assert.LessOrEqual(t, m.CP, uint16(255))
	assert.GreaterOrEqual(t, m.WPrime, uint32(19000))
	assert.LessOrEqual(t, m.WPrime, uint32(21000))
	assert.Greater(t, m.RSquared, 0.95)
}

func TestFitRequiresThreePoints(t *testing.T) {
	_, err := Fit(syntheticCurve(180, 720), DefaultOptions())

	var insufficient *trainsci.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Count)
	assert.NotEmpty(t, insufficient.Guidance)
}

func TestFitRequiresPointInWindow(t *testing.T) {
	// Three points, all outside 120-1200 s.
	c := pdc.New([]pdc.Point{
		{DurationSecs: 5, Watts: 900},
		{DurationSecs: 30, Watts: 600},
		{DurationSecs: 3600, Watts: 240},
	})
	_, err := Fit(c, DefaultOptions())
	assert.True(t, errors.Is(err, trainsci.ErrInvalidDurationRange))
}

func TestFitRejectsNonPhysicalModel(t *testing.T) {
	// Power rising with duration drives the work-line intercept negative.
	c := pdc.New([]pdc.Point{
		{DurationSecs: 180, Watts: 100},
		{DurationSecs: 600, Watts: 260},
		{DurationSecs: 1200, Watts: 300},
	})
	_, err := Fit(c, DefaultOptions())

	var fitting *trainsci.FittingError
	assert.ErrorAs(t, err, &fitting)
}

func TestTimeToExhaustionAndInverse(t *testing.T) {
	m := Model{CP: 250, WPrime: 20000}

	_, ok := m.TimeToExhaustion(250)
	assert.False(t, ok, "CP itself is sustainable indefinitely")

	tte, ok := m.TimeToExhaustion(300)
	require.True(t, ok)
	assert.Equal(t, 400.0, tte)

	assert.Equal(t, 300.0, m.PowerAtDuration(400))
	assert.Equal(t, 250.0, m.PowerAtDuration(0), "zero duration collapses to CP")
}

func TestWPrimeRemaining(t *testing.T) {
	m := Model{CP: 250, WPrime: 20000}

	assert.Equal(t, 20000.0, m.WPrimeRemaining(200, 600), "sub-CP work spends nothing")
	assert.Equal(t, 10000.0, m.WPrimeRemaining(300, 200))
	assert.Equal(t, -5000.0, m.WPrimeRemaining(300, 500), "negative signals depletion past capacity")
}
