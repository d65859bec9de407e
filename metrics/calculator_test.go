package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velolab/trainsci/power"
)

func fp(v float64) *float64 { return &v }

func newTestCalculator(ftp float64) *Calculator {
	return NewCalculator(power.DefaultFilterConfig(), DefaultZoneBounds(), ftp)
}

// replay feeds n seconds of steady readings starting at start.
func replay(c *Calculator, start time.Time, n int, watts float64) Snapshot {
	var snap Snapshot
	for i := 0; i < n; i++ {
		snap = c.Process(Reading{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			PowerW:    fp(watts),
		})
	}
	return snap
}

func TestProcessAggregatesPower(t *testing.T) {
	c := newTestCalculator(250)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	snap := replay(c, start, 60, 200)

	assert.Equal(t, 200.0, snap.PowerW)
	assert.InDelta(t, 200, snap.Power3sW, 1e-9)
	assert.InDelta(t, 200, snap.Power30sW, 1e-9)
	assert.True(t, snap.HasNormalized)
	assert.InDelta(t, 200, snap.NormalizedW, 1)
	assert.Equal(t, 200.0, snap.AvgPowerW)
	assert.Equal(t, 200.0, snap.MaxPowerW)
	assert.InDelta(t, 60*200.0/1000.0, snap.Calories, 1e-9)
	assert.InDelta(t, 59, snap.ElapsedSeconds, 1e-9, "elapsed runs from the first reading")
}

func TestProcessComputesStress(t *testing.T) {
	c := newTestCalculator(250)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	// One hour at steady 250 W: IF 1.0, TSS ~100.
	snap := replay(c, start, 3601, 250)

	assert.InDelta(t, 1.0, snap.IF, 1e-9)
	assert.InDelta(t, 100, snap.TSS, 0.5)
}

func TestStressUnavailableWithoutFTP(t *testing.T) {
	c := newTestCalculator(0)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	snap := replay(c, start, 60, 200)
	assert.Equal(t, 0.0, snap.IF)
	assert.Equal(t, 0.0, snap.TSS)
}

func TestZoneFrom3sAverage(t *testing.T) {
	c := newTestCalculator(250)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	snap := replay(c, start, 10, 200) // 80% of FTP
	require.True(t, snap.InZone)
	assert.Equal(t, "Z3 Tempo", snap.Zone.Name)

	snap = replay(c, start.Add(time.Minute), 10, 130) // 52%
	assert.Equal(t, "Z1 Active Recovery", snap.Zone.Name)
}

func TestRejectedPowerDoesNotPolluteAggregates(t *testing.T) {
	c := newTestCalculator(250)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	replay(c, start, 5, 200)
	snap := c.Process(Reading{
		Timestamp: start.Add(5 * time.Second),
		PowerW:    fp(5000), // out of range
	})

	assert.Equal(t, 200.0, snap.AvgPowerW)
	assert.Equal(t, 200.0, snap.MaxPowerW)
	assert.InDelta(t, 5*200.0/1000.0, snap.Calories, 1e-9)
}

func TestAncillaryChannelsUpdateUnfiltered(t *testing.T) {
	c := newTestCalculator(250)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	c.Process(Reading{Timestamp: start, HRBPM: fp(120), CadenceRPM: fp(90), SpeedMPS: fp(8), DistanceM: fp(100)})
	snap := c.Process(Reading{Timestamp: start.Add(time.Second), HRBPM: fp(140), CadenceRPM: fp(94), SpeedMPS: fp(9), DistanceM: fp(109)})

	assert.Equal(t, 140.0, snap.HRBPM)
	assert.Equal(t, 130.0, snap.AvgHRBPM)
	assert.Equal(t, 140.0, snap.MaxHRBPM)
	assert.Equal(t, 92.0, snap.AvgCadence)
	assert.Equal(t, 94.0, snap.MaxCadence)
	assert.Equal(t, 9.0, snap.SpeedMPS)
	assert.Equal(t, 8.5, snap.AvgSpeed)
	assert.Equal(t, 9.0, snap.MaxSpeed)
	assert.InDelta(t, 9, snap.DistanceM, 1e-9, "distance accumulates from deltas")
}

func TestDistanceIgnoresBackwardsJumps(t *testing.T) {
	c := newTestCalculator(250)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	c.Process(Reading{Timestamp: start, DistanceM: fp(500)})
	c.Process(Reading{Timestamp: start.Add(time.Second), DistanceM: fp(40)}) // sensor reset
	snap := c.Process(Reading{Timestamp: start.Add(2 * time.Second), DistanceM: fp(55)})

	assert.InDelta(t, 15, snap.DistanceM, 1e-9)
}

func TestSetFTPRecalculatesZonesNotSums(t *testing.T) {
	c := newTestCalculator(250)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	replay(c, start, 40, 200)
	before := c.Snapshot()

	c.SetFTP(300)
	after := c.Snapshot()

	assert.Equal(t, before.AvgPowerW, after.AvgPowerW)
	assert.Equal(t, before.Calories, after.Calories)
	assert.NotEqual(t, before.IF, after.IF, "IF follows the new FTP immediately")

	snap := c.Process(Reading{Timestamp: start.Add(41 * time.Second), PowerW: fp(200)})
	require.True(t, snap.InZone)
	assert.Equal(t, "Z2 Endurance", snap.Zone.Name, "200 W is 67% of the new FTP")
}

func TestResetClearsEverything(t *testing.T) {
	c := newTestCalculator(250)
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	replay(c, start, 60, 220)
	c.Reset()

	snap := c.Snapshot()
	assert.Equal(t, Snapshot{}, snap)

	snap = c.Process(Reading{Timestamp: start.Add(time.Hour), PowerW: fp(180)})
	assert.Equal(t, 0.0, snap.ElapsedSeconds, "timer restarts at the first reading of the new ride")
	assert.Equal(t, 180.0, snap.AvgPowerW)
}
