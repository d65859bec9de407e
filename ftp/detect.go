// Package ftp estimates functional threshold power from the power-duration
// curve. Methods are tried in priority order and each is independently
// sufficient; the critical power model can seed an estimate as well but is
// applied by callers, not auto-chained.
package ftp

import (
	"context"
	"math"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/cp"
	"github.com/velolab/trainsci/pdc"
)

// Method tags how an estimate was produced.
type Method string

const (
	MethodExtendedDuration Method = "extended_duration"
	MethodTwentyMinute     Method = "twenty_minute"
	MethodCriticalPower    Method = "critical_power"
	MethodRemote           Method = "remote"
)

// Effort is one (duration, power) pair that backed an estimate.
type Effort struct {
	DurationSecs uint32 `json:"duration_secs"`
	Watts        uint16 `json:"power_watts"`
}

// Estimate is a point-in-time FTP estimate. Whether it is accepted as the
// athlete's FTP is persisted separately by the caller.
type Estimate struct {
	Watts      uint16              `json:"ftp_watts"`
	Method     Method              `json:"method"`
	Confidence trainsci.Confidence `json:"confidence"`
	Supporting []Effort            `json:"supporting_data,omitempty"`
}

const (
	hourEffortSecs      = 3600
	fortyFiveMinSecs    = 2700
	twentyMinSecs       = 1200
	extendedTolerance   = 300
	shortProofTolerance = 60
	twentyMinFactor     = 0.95

	// DefaultChangeThreshold is the relative change that counts as a new FTP.
	DefaultChangeThreshold = 0.05
)

const maxSupportingEfforts = 5

// Detect tries the extended-duration method first, then the twenty-minute
// method. It fails only when the curve has no usable 20-minute power.
func Detect(curve pdc.Curve) (Estimate, error) {
	if est, ok := detectExtendedDuration(curve); ok {
		return est, nil
	}
	if est, ok := detectTwentyMinute(curve); ok {
		return est, nil
	}
	return Estimate{}, &trainsci.InsufficientDataError{
		Count:    curve.Len(),
		Guidance: "ride a hard 20 minute effort so FTP can be estimated",
	}
}

// detectExtendedDuration looks for actual (non-extrapolated) efforts near 45
// and 60 minutes. Both present averages them at high confidence; only the
// 45-minute effort alone is medium.
func detectExtendedDuration(curve pdc.Curve) (Estimate, bool) {
	p45, has45 := curve.PowerAtActual(fortyFiveMinSecs, extendedTolerance)
	p60, has60 := curve.PowerAtActual(hourEffortSecs, extendedTolerance)

	switch {
	case has45 && has60:
		avg := (float64(p45) + float64(p60)) / 2
		return Estimate{
			Watts:      narrowWatts(avg),
			Method:     MethodExtendedDuration,
			Confidence: trainsci.ConfidenceHigh,
			Supporting: supportingEfforts(curve),
		}, true
	case has45:
		return Estimate{
			Watts:      p45,
			Method:     MethodExtendedDuration,
			Confidence: trainsci.ConfidenceMedium,
			Supporting: supportingEfforts(curve),
		}, true
	default:
		return Estimate{}, false
	}
}

// detectTwentyMinute takes 95% of the 20-minute power, extrapolated if
// necessary. Confidence is medium only when actual 5 and 10 minute efforts
// prove the curve is not purely extrapolated.
func detectTwentyMinute(curve pdc.Curve) (Estimate, bool) {
	p20, ok := curve.PowerAt(twentyMinSecs)
	if !ok || p20 == 0 {
		return Estimate{}, false
	}

	confidence := trainsci.ConfidenceLow
	if curve.HasDataNear(300, shortProofTolerance) && curve.HasDataNear(600, shortProofTolerance) {
		confidence = trainsci.ConfidenceMedium
	}

	return Estimate{
		Watts:      narrowWatts(float64(p20) * twentyMinFactor),
		Method:     MethodTwentyMinute,
		Confidence: confidence,
		Supporting: supportingEfforts(curve),
	}, true
}

// FromModel derives an FTP estimate from a fitted critical power model,
// grading confidence on the fit quality.
func FromModel(m cp.Model) Estimate {
	confidence := trainsci.ConfidenceLow
	switch {
	case m.RSquared > 0.95:
		confidence = trainsci.ConfidenceHigh
	case m.RSquared > 0.85:
		confidence = trainsci.ConfidenceMedium
	}
	return Estimate{
		Watts:      m.CP,
		Method:     MethodCriticalPower,
		Confidence: confidence,
	}
}

// IsSignificantChange reports whether the estimate differs from the current
// FTP by more than the threshold, relatively. A current FTP of zero is
// always significant (relative change 1.0).
func IsSignificantChange(currentWatts uint16, est Estimate, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultChangeThreshold
	}
	if currentWatts == 0 {
		return true
	}
	change := math.Abs(float64(est.Watts)-float64(currentWatts)) / float64(currentWatts)
	return change > threshold
}

// supportingEfforts truncates the curve to its first five points in curve
// order. Downstream display depends on this exact (non-selective) ordering.
func supportingEfforts(curve pdc.Curve) []Effort {
	pts := curve.Points()
	if len(pts) > maxSupportingEfforts {
		pts = pts[:maxSupportingEfforts]
	}
	out := make([]Effort, len(pts))
	for i, p := range pts {
		out[i] = Effort{DurationSecs: p.DurationSecs, Watts: p.Watts}
	}
	return out
}

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

// RemotePredictor is the optional remote estimation capability. A nil
// predictor or any error selects the local detector transparently.
type RemotePredictor interface {
	PredictFTP(ctx context.Context, curve pdc.Curve) (Estimate, error)
}

// DetectWith consults the remote predictor first and falls back to the local
// detector exactly once.
func DetectWith(ctx context.Context, rp RemotePredictor, curve pdc.Curve) (Estimate, error) {
	if rp != nil {
		if est, err := rp.PredictFTP(ctx, curve); err == nil {
			return est, nil
		}
	}
	return Detect(curve)
}
