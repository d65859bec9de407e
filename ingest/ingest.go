// Package ingest decodes activity FIT files into the sample streams the
// engine consumes: replayable sensor readings and a gap-filled 1 Hz power
// series for best-effort and normalized power math.
package ingest

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tormoder/fit"

	"github.com/velolab/trainsci/metrics"
	"github.com/velolab/trainsci/pdc"
)

// Ride is one decoded activity.
type Ride struct {
	Sport        string
	Start        time.Time
	End          time.Time
	Readings     []metrics.Reading
	PowerSamples []float64 // 1 Hz, short gaps held at the last value
}

// DecodeFile reads and decodes an activity FIT file.
func DecodeFile(path string) (*Ride, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes an activity FIT stream.
func Decode(r io.Reader) (*Ride, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	ride := buildRide(activity.Records)
	if len(activity.Sessions) > 0 {
		ride.Sport = fmt.Sprint(activity.Sessions[0].Sport)
	}
	log.Debug().
		Int("readings", len(ride.Readings)).
		Int("power_samples", len(ride.PowerSamples)).
		Str("sport", ride.Sport).
		Msg("decoded activity")
	return ride, nil
}

// maxGapFillSeconds bounds how long a recording dropout is held at the last
// power value; longer gaps are treated as a stop.
const maxGapFillSeconds = 30

func buildRide(records []*fit.RecordMsg) *Ride {
	ride := &Ride{}
	rows := make([]*fit.RecordMsg, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		rows = append(rows, rec)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	var (
		lastTS      time.Time
		haveLastTS  bool
		lastPower   float64
		haveLastPwr bool
	)

	for _, rec := range rows {
		ts := validTime(rec.Timestamp)
		if !ts.IsZero() {
			if ride.Start.IsZero() {
				ride.Start = ts
			}
			ride.End = ts
		}

		reading := metrics.Reading{Timestamp: ts}
		power, hasPower := recordPower(rec)
		if hasPower {
			reading.PowerW = &power
		}
		if hr, ok := recordHeartRate(rec); ok {
			reading.HRBPM = &hr
		}
		if cad, ok := recordCadence(rec); ok {
			reading.CadenceRPM = &cad
		}
		if speed, ok := recordSpeed(rec); ok {
			reading.SpeedMPS = &speed
		}
		if dist := rec.GetDistanceScaled(); isFinite(dist) && dist > 0 {
			d := dist
			reading.DistanceM = &d
		}
		ride.Readings = append(ride.Readings, reading)

		if hasPower {
			if haveLastTS && haveLastPwr && !ts.IsZero() && ts.After(lastTS) {
				missing := int(math.Round(ts.Sub(lastTS).Seconds())) - 1
				if missing > 0 && missing <= maxGapFillSeconds {
					for i := 0; i < missing; i++ {
						ride.PowerSamples = append(ride.PowerSamples, lastPower)
					}
				}
			}
			ride.PowerSamples = append(ride.PowerSamples, power)
			lastPower = power
			haveLastPwr = true
		}
		if !ts.IsZero() {
			lastTS = ts
			haveLastTS = true
		}
	}
	return ride
}

// Curve derives the ride's best-effort power-duration curve.
func (r *Ride) Curve(durations []uint32) pdc.Curve {
	return pdc.FromSamples(r.PowerSamples, durations)
}

func recordPower(rec *fit.RecordMsg) (float64, bool) {
	if rec.Power == math.MaxUint16 {
		return 0, false
	}
	return float64(rec.Power), true
}

func recordHeartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

func recordCadence(rec *fit.RecordMsg) (float64, bool) {
	cad := rec.GetCadence256Scaled()
	if isFinite(cad) && cad > 0 {
		return cad, true
	}
	if rec.Cadence == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.Cadence), true
}

func recordSpeed(rec *fit.RecordMsg) (float64, bool) {
	speed := rec.GetEnhancedSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	speed = rec.GetSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	return 0, false
}

func validTime(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
