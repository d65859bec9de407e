package metrics

import (
	"time"

	"github.com/velolab/trainsci/power"
)

// Reading is one sensor sample. Nil fields were not reported this sample.
// Timestamp may be zero for live readings, in which case the wall clock is
// used.
type Reading struct {
	Timestamp  time.Time `json:"timestamp,omitempty"`
	PowerW     *float64  `json:"power_w,omitempty"`
	HRBPM      *float64  `json:"hr_bpm,omitempty"`
	CadenceRPM *float64  `json:"cadence_rpm,omitempty"`
	SpeedMPS   *float64  `json:"speed_mps,omitempty"`
	DistanceM  *float64  `json:"distance_m,omitempty"`
}

// Snapshot is the per-instant aggregate view. It is a plain value copied out
// of the calculator; fields are stable for serialization.
type Snapshot struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	PowerW        float64 `json:"power_w"`
	Power3sW      float64 `json:"power_3s_w"`
	Power30sW     float64 `json:"power_30s_w"`
	NormalizedW   float64 `json:"normalized_power_w"`
	AvgPowerW     float64 `json:"avg_power_w"`
	MaxPowerW     float64 `json:"max_power_w"`
	HasNormalized bool    `json:"has_normalized_power"`

	HRBPM      float64 `json:"hr_bpm"`
	AvgHRBPM   float64 `json:"avg_hr_bpm"`
	MaxHRBPM   float64 `json:"max_hr_bpm"`
	CadenceRPM float64 `json:"cadence_rpm"`
	AvgCadence float64 `json:"avg_cadence_rpm"`
	MaxCadence float64 `json:"max_cadence_rpm"`
	SpeedMPS   float64 `json:"speed_mps"`
	AvgSpeed   float64 `json:"avg_speed_mps"`
	MaxSpeed   float64 `json:"max_speed_mps"`

	DistanceM float64 `json:"distance_m"`
	Calories  float64 `json:"calories_kcal"`
	IF        float64 `json:"intensity_factor"`
	TSS       float64 `json:"training_stress_score"`
	Zone      Zone    `json:"zone"`
	InZone    bool    `json:"in_zone"`
}

// Calculator owns all per-ride aggregation state. It is mutated only by its
// single owner on the ride processing path.
type Calculator struct {
	filter     *power.Filter
	avg3s      *power.RollingAverage
	avg30s     *power.RollingAverage
	np         *power.NPCalculator
	zoneBounds []ZoneBound
	zones      Zones
	ftpWatts   float64

	started bool
	startAt time.Time
	lastAt  time.Time

	snap Snapshot

	powerSum   float64
	powerCount int
	hrSum      float64
	hrCount    int
	cadSum     float64
	cadCount   int
	speedSum   float64
	speedCount int
	lastDist   float64
	haveDist   bool

	nowFn func() time.Time
}

// NewCalculator wires a calculator from a power filter config, a zone table
// and the athlete's FTP.
func NewCalculator(filterCfg power.FilterConfig, bounds []ZoneBound, ftpWatts float64) *Calculator {
	c := &Calculator{
		filter:     power.NewFilter(filterCfg),
		avg3s:      power.NewRollingAverage(3),
		avg30s:     power.NewRollingAverage(30),
		np:         power.NewNPCalculator(),
		zoneBounds: bounds,
		zones:      BuildZones(bounds, ftpWatts),
		ftpWatts:   ftpWatts,
		nowFn:      time.Now,
	}
	return c
}

// Process folds one reading into the ride state and returns the updated
// snapshot.
func (c *Calculator) Process(r Reading) Snapshot {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = c.nowFn()
	}
	if !c.started {
		c.started = true
		c.startAt = ts
	}
	c.lastAt = ts
	c.snap.ElapsedSeconds = c.lastAt.Sub(c.startAt).Seconds()

	if r.PowerW != nil {
		if watts, ok := c.filter.Filter(*r.PowerW); ok {
			c.acceptPower(watts)
		}
	}

	// Heart rate, cadence and speed are not power-filtered; they update
	// independently and unconditionally.
	if r.HRBPM != nil {
		c.snap.HRBPM = *r.HRBPM
		c.hrSum += *r.HRBPM
		c.hrCount++
		c.snap.AvgHRBPM = c.hrSum / float64(c.hrCount)
		if *r.HRBPM > c.snap.MaxHRBPM {
			c.snap.MaxHRBPM = *r.HRBPM
		}
	}
	if r.CadenceRPM != nil {
		c.snap.CadenceRPM = *r.CadenceRPM
		c.cadSum += *r.CadenceRPM
		c.cadCount++
		c.snap.AvgCadence = c.cadSum / float64(c.cadCount)
		if *r.CadenceRPM > c.snap.MaxCadence {
			c.snap.MaxCadence = *r.CadenceRPM
		}
	}
	if r.SpeedMPS != nil {
		c.snap.SpeedMPS = *r.SpeedMPS
		c.speedSum += *r.SpeedMPS
		c.speedCount++
		c.snap.AvgSpeed = c.speedSum / float64(c.speedCount)
		if *r.SpeedMPS > c.snap.MaxSpeed {
			c.snap.MaxSpeed = *r.SpeedMPS
		}
	}
	if r.DistanceM != nil {
		if c.haveDist {
			if delta := *r.DistanceM - c.lastDist; delta > 0 {
				c.snap.DistanceM += delta
			}
		}
		c.lastDist = *r.DistanceM
		c.haveDist = true
	}

	c.recomputeStress()
	return c.snap
}

func (c *Calculator) acceptPower(watts float64) {
	c.snap.PowerW = watts

	if avg, ok := c.avg3s.Add(watts); ok {
		c.snap.Power3sW = avg
		if zone, ok := c.zones.Lookup(avg); ok {
			c.snap.Zone = zone
			c.snap.InZone = true
		} else {
			c.snap.Zone = Zone{}
			c.snap.InZone = false
		}
	}
	if avg, ok := c.avg30s.Add(watts); ok {
		c.snap.Power30sW = avg
	}
	if np, ok := c.np.Add(watts); ok {
		c.snap.NormalizedW = np
		c.snap.HasNormalized = true
	}

	c.powerSum += watts
	c.powerCount++
	c.snap.AvgPowerW = c.powerSum / float64(c.powerCount)
	if watts > c.snap.MaxPowerW {
		c.snap.MaxPowerW = watts
	}

	// 1 Hz samples make the watt sum a joule count; 1 kJ of work is close
	// enough to 1 kcal burned at typical cycling efficiency.
	c.snap.Calories = c.powerSum / 1000
}

// recomputeStress refreshes IF and TSS whenever both NP and FTP are usable.
func (c *Calculator) recomputeStress() {
	if !c.snap.HasNormalized || c.ftpWatts <= 0 {
		return
	}
	intensity := c.snap.NormalizedW / c.ftpWatts
	c.snap.IF = intensity
	elapsedHours := c.snap.ElapsedSeconds / 3600
	c.snap.TSS = elapsedHours * intensity * intensity * 100
}

// Snapshot returns a copy of the current aggregate state.
func (c *Calculator) Snapshot() Snapshot {
	return c.snap
}

// SetFTP updates the FTP and recalculates the zone table. Already
// aggregated sums are never retroactively altered.
func (c *Calculator) SetFTP(ftpWatts float64) {
	c.ftpWatts = ftpWatts
	c.zones = BuildZones(c.zoneBounds, ftpWatts)
	c.recomputeStress()
}

// FTP returns the FTP in use.
func (c *Calculator) FTP() float64 {
	return c.ftpWatts
}

// Reset clears all internal state for a new ride.
func (c *Calculator) Reset() {
	c.filter.Reset()
	c.avg3s.Reset()
	c.avg30s.Reset()
	c.np.Reset()
	c.started = false
	c.startAt = time.Time{}
	c.lastAt = time.Time{}
	c.snap = Snapshot{}
	c.powerSum = 0
	c.powerCount = 0
	c.hrSum = 0
	c.hrCount = 0
	c.cadSum = 0
	c.cadCount = 0
	c.speedSum = 0
	c.speedCount = 0
	c.lastDist = 0
	c.haveDist = false
}
