// Package cp fits the two-parameter critical power model to a
// power-duration curve. The linearized form is work vs time: for each point
// (t, P) the total work P*t = W' + CP*t, so an ordinary least-squares line
// through (t, P*t) gives CP as the slope and W' as the intercept.
package cp

import (
	"math"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/pdc"
)

// Options bounds the durations the fit considers. Efforts much shorter than
// two minutes are dominated by neuromuscular power and efforts past twenty
// minutes by fueling, so both ends are excluded by default.
type Options struct {
	MinDurationSecs uint32
	MaxDurationSecs uint32
}

// DefaultOptions fits over 120-1200 s.
func DefaultOptions() Options {
	return Options{MinDurationSecs: 120, MaxDurationSecs: 1200}
}

// Model is an immutable fitted critical power model. Re-fitting produces a
// new Model; an existing one is never mutated.
type Model struct {
	CP       uint16  `json:"cp"`
	WPrime   uint32  `json:"w_prime"`
	RSquared float64 `json:"r_squared"`
}

const minFitPoints = 3

// Fit runs the regression over curve points inside the duration window.
func Fit(curve pdc.Curve, opts Options) (Model, error) {
	if opts.MaxDurationSecs <= opts.MinDurationSecs {
		opts = DefaultOptions()
	}
	all := curve.Points()
	if len(all) < minFitPoints {
		return Model{}, &trainsci.InsufficientDataError{
			Count:    len(all),
			Guidance: "record at least three maximal efforts between 2 and 20 minutes",
		}
	}

	var xs, ys []float64
	for _, p := range all {
		if p.DurationSecs < opts.MinDurationSecs || p.DurationSecs > opts.MaxDurationSecs {
			continue
		}
		t := float64(p.DurationSecs)
		xs = append(xs, t)
		ys = append(ys, float64(p.Watts)*t)
	}
	if len(xs) == 0 {
		return Model{}, trainsci.ErrInvalidDurationRange
	}

	slope, intercept, r2, ok := leastSquares(xs, ys)
	if !ok {
		return Model{}, &trainsci.FittingError{Reason: "degenerate design: all durations identical"}
	}
	if slope <= 0 || intercept <= 0 {
		return Model{}, &trainsci.FittingError{Reason: "non-physical fit: CP and W' must both be positive"}
	}

	return Model{
		CP:       uint16(math.Round(slope)),
		WPrime:   uint32(math.Round(intercept)),
		RSquared: r2,
	}, nil
}

// leastSquares fits y = slope*x + intercept and reports R^2 against the mean
// of y. ok is false for a near-singular design (n*Σx² - (Σx)² ≈ 0).
func leastSquares(xs, ys []float64) (slope, intercept, r2 float64, ok bool) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	det := n*sumXX - sumX*sumX
	if math.Abs(det) < 1e-9 {
		return 0, 0, 0, false
	}

	slope = (n*sumXY - sumX*sumY) / det
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i := range xs {
		pred := slope*xs[i] + intercept
		ssRes += (ys[i] - pred) * (ys[i] - pred)
		ssTot += (ys[i] - meanY) * (ys[i] - meanY)
	}
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	} else {
		r2 = 1
	}
	return slope, intercept, r2, true
}

// TimeToExhaustion returns the seconds the model predicts the power can be
// held. Power at or below CP is sustainable indefinitely: ok is false.
func (m Model) TimeToExhaustion(watts float64) (float64, bool) {
	cp := float64(m.CP)
	if watts <= cp {
		return 0, false
	}
	return float64(m.WPrime) / (watts - cp), true
}

// PowerAtDuration returns the highest power the model predicts for the
// duration. Non-positive durations collapse to CP.
func (m Model) PowerAtDuration(seconds float64) float64 {
	if seconds <= 0 {
		return float64(m.CP)
	}
	return float64(m.CP) + float64(m.WPrime)/seconds
}

// WPrimeRemaining returns the anaerobic capacity left after holding the
// power for the duration. A negative value signals depletion past capacity.
func (m Model) WPrimeRemaining(watts, seconds float64) float64 {
	over := watts - float64(m.CP)
	if over < 0 {
		over = 0
	}
	return float64(m.WPrime) - over*seconds
}
