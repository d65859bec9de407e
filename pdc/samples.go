package pdc

import "math"

// StandardDurations are the effort durations a curve is built at when
// deriving best efforts from ride samples.
var StandardDurations = []uint32{1, 5, 15, 30, 60, 180, 300, 600, 1200, 2700, 3600}

// FromSamples derives a best-effort curve from a 1 Hz power series. Each
// duration gets the highest rolling average the ride sustained; durations
// longer than the ride are skipped.
func FromSamples(samples []float64, durations []uint32) Curve {
	if len(durations) == 0 {
		durations = StandardDurations
	}
	points := make([]Point, 0, len(durations))
	for _, d := range durations {
		best, ok := bestRollingPower(samples, int(d))
		if !ok || best <= 0 {
			continue
		}
		points = append(points, Point{
			DurationSecs: d,
			Watts:        narrowWatts(best),
		})
	}
	return New(points)
}

// bestRollingPower finds the highest windowed average via a running sum.
func bestRollingPower(samples []float64, window int) (float64, bool) {
	if window <= 0 || len(samples) < window {
		return 0, false
	}
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += samples[i]
	}
	best := sum
	for i := window; i < len(samples); i++ {
		sum += samples[i] - samples[i-window]
		if sum > best {
			best = sum
		}
	}
	return best / float64(window), true
}

// narrowWatts rounds half away from zero and narrows to uint16.
func narrowWatts(v float64) uint16 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(r)
}
