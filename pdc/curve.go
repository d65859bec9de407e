// Package pdc models the power-duration curve: the best recorded power for
// each effort duration. Consumers assume best power is non-increasing with
// duration; the curve records what upstream supplies and does not enforce
// that shape.
package pdc

import (
	"math"
	"sort"
)

// Point is one best-effort record. Durations are unique within a curve.
type Point struct {
	DurationSecs uint32 `json:"duration_secs"`
	Watts        uint16 `json:"power_watts"`
}

// Curve is an ordered set of best-effort points keyed by duration.
type Curve struct {
	points []Point
}

// New builds a curve from points, sorting by duration and keeping the
// highest power when a duration repeats.
func New(points []Point) Curve {
	byDur := make(map[uint32]uint16, len(points))
	for _, p := range points {
		if p.Watts > byDur[p.DurationSecs] {
			byDur[p.DurationSecs] = p.Watts
		}
	}
	out := make([]Point, 0, len(byDur))
	for d, w := range byDur {
		out = append(out, Point{DurationSecs: d, Watts: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DurationSecs < out[j].DurationSecs })
	return Curve{points: out}
}

// Points returns the curve points in duration order.
func (c Curve) Points() []Point {
	return c.points
}

// Len returns the number of points.
func (c Curve) Len() int {
	return len(c.points)
}

// PowerAt returns the best power at the given duration. Between recorded
// points it interpolates linearly; beyond the longest effort it extrapolates
// with a hyperbolic decay fitted to the last two points; below the shortest
// effort it clamps. ok is false on an empty curve or zero duration.
func (c Curve) PowerAt(durationSecs uint32) (uint16, bool) {
	if len(c.points) == 0 || durationSecs == 0 {
		return 0, false
	}
	first, last := c.points[0], c.points[len(c.points)-1]
	if durationSecs <= first.DurationSecs {
		return first.Watts, true
	}
	if durationSecs >= last.DurationSecs {
		return c.extrapolateTail(durationSecs), true
	}
	idx := sort.Search(len(c.points), func(i int) bool {
		return c.points[i].DurationSecs >= durationSecs
	})
	hi := c.points[idx]
	if hi.DurationSecs == durationSecs {
		return hi.Watts, true
	}
	lo := c.points[idx-1]
	frac := float64(durationSecs-lo.DurationSecs) / float64(hi.DurationSecs-lo.DurationSecs)
	watts := float64(lo.Watts) + frac*(float64(hi.Watts)-float64(lo.Watts))
	return uint16(math.Round(watts)), true
}

// extrapolateTail extends the curve past its longest recorded effort with a
// two-point hyperbolic fit, P(t) = cp + w/t, the decay shape the critical
// power model assumes. Holding the last power flat instead would credit a
// short best effort to arbitrarily long durations. Degenerate tails (a
// single point, or no decay between the last two) fall back to the last
// recorded power.
func (c Curve) extrapolateTail(durationSecs uint32) uint16 {
	last := c.points[len(c.points)-1]
	if durationSecs == last.DurationSecs || len(c.points) < 2 {
		return last.Watts
	}
	prev := c.points[len(c.points)-2]
	t1, t2 := float64(prev.DurationSecs), float64(last.DurationSecs)
	p1, p2 := float64(prev.Watts), float64(last.Watts)
	w := (p1 - p2) / (1/t1 - 1/t2)
	if w <= 0 {
		return last.Watts
	}
	watts := (p2 - w/t2) + w/float64(durationSecs)
	if watts < 0 {
		return 0
	}
	return uint16(math.Round(watts))
}

// PowerAtActual returns the power of the recorded effort nearest the given
// duration within tolerance; it never interpolates.
func (c Curve) PowerAtActual(durationSecs, toleranceSecs uint32) (uint16, bool) {
	bestDiff := int64(toleranceSecs) + 1
	var bestWatts uint16
	found := false
	for _, p := range c.points {
		diff := int64(p.DurationSecs) - int64(durationSecs)
		if diff < 0 {
			diff = -diff
		}
		if diff <= int64(toleranceSecs) && diff < bestDiff {
			bestDiff = diff
			bestWatts = p.Watts
			found = true
		}
	}
	return bestWatts, found
}

// HasDataNear reports whether a recorded effort exists within tolerance of
// the duration.
func (c Curve) HasDataNear(durationSecs, toleranceSecs uint32) bool {
	_, ok := c.PowerAtActual(durationSecs, toleranceSecs)
	return ok
}

// Merge combines two curves pointwise, keeping the higher power per duration.
func (c Curve) Merge(other Curve) Curve {
	return New(append(append([]Point(nil), c.points...), other.points...))
}
