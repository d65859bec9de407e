// Package forecast projects chronic training load forward: trend and
// plateau classification over the recent history, weekly projections with a
// widening uncertainty band, detraining risk staging, and readiness against
// a dated goal.
package forecast

import (
	"context"
	"math"
	"time"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/history"
)

// Trend classifies the recent CTL slope.
type Trend string

const (
	Improving Trend = "improving"
	Stable    Trend = "stable"
	Declining Trend = "declining"
)

// Risk stages the likelihood that fitness is actively decaying.
type Risk string

const (
	RiskNone   Risk = "none"
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// WeekPoint is one projected week with its symmetric uncertainty band.
type WeekPoint struct {
	Week  int     `json:"week"`
	CTL   float64 `json:"ctl"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Readiness compares the projected CTL at an event date against its target.
type Readiness struct {
	EventDate           time.Time `json:"event_date"`
	ProjectedCTL        float64   `json:"projected_ctl"`
	TargetCTL           float64   `json:"target_ctl"`
	Gap                 float64   `json:"gap"`
	OnTrack             bool      `json:"on_track"`
	RequiredTSSIncrease float64   `json:"required_tss_increase_pct"`
}

// Projection is the derived forecast output; immutable once built.
type Projection struct {
	ProjectedAt time.Time       `json:"projected_at"`
	Source      trainsci.Source `json:"source"`
	Trend       Trend           `json:"trend"`
	Slope       float64         `json:"slope_ctl_per_day"`
	Plateau     bool            `json:"plateau"`
	Weekly      []WeekPoint     `json:"weekly"`
	Risk        Risk            `json:"detraining_risk"`
	Readiness   *Readiness      `json:"readiness,omitempty"`
}

const (
	trendWindowDays    = 30
	trendSlopeBound    = 0.5
	bandPctPerWeek     = 0.10
	maxRequiredBumpPct = 30.0
)

// Forecast builds a projection over the given number of weeks. History must
// hold at least two days so a slope exists; risk for an empty history is
// available through DetrainingRisk directly.
func Forecast(days []history.Day, weeks int, goal *trainsci.Goal, now time.Time) (Projection, error) {
	if len(days) < 2 {
		return Projection{}, &trainsci.InsufficientDataError{
			Count:    len(days),
			Guidance: "at least two days of load history are needed to project a trend",
		}
	}
	if weeks < 1 {
		weeks = 1
	}

	window := history.Tail(days, trendWindowDays)
	slope := ctlSlope(window)
	latest, _ := history.Latest(days)

	p := Projection{
		ProjectedAt: now,
		Source:      trainsci.SourceLocal,
		Trend:       classifyTrend(slope),
		Slope:       slope,
		Plateau:     isPlateau(slope, window),
		Weekly:      project(latest.CTL, slope, weeks),
		Risk:        DetrainingRisk(days),
	}
	if goal != nil && goal.TargetDate != nil {
		r := readiness(latest.CTL, slope, *goal, now)
		p.Readiness = &r
	}
	return p, nil
}

// ctlSlope fits CTL against sample index over the window, chronological.
func ctlSlope(window []history.Day) float64 {
	n := float64(len(window))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, d := range window {
		x := float64(i)
		sumX += x
		sumY += d.CTL
		sumXY += x * d.CTL
		sumXX += x * x
	}
	det := n*sumXX - sumX*sumX
	if math.Abs(det) < 1e-9 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / det
}

func classifyTrend(slope float64) Trend {
	switch {
	case slope > trendSlopeBound:
		return Improving
	case slope < -trendSlopeBound:
		return Declining
	default:
		return Stable
	}
}

// isPlateau flags a flat CTL despite continued training: at least half the
// window carries real load.
func isPlateau(slope float64, window []history.Day) bool {
	if math.Abs(slope) >= trendSlopeBound {
		return false
	}
	trained := 0
	for _, d := range window {
		if d.TSS > history.TrainingDayThreshold {
			trained++
		}
	}
	return trained*2 >= len(window)
}

// project extrapolates CTL weekly, clamped at zero, with a band of
// ±10% per week of horizon around the projected value.
func project(ctl, slope float64, weeks int) []WeekPoint {
	out := make([]WeekPoint, 0, weeks)
	for w := 1; w <= weeks; w++ {
		projected := ctl + slope*float64(w*7)
		if projected < 0 {
			projected = 0
		}
		band := bandPctPerWeek * float64(w) * projected
		out = append(out, WeekPoint{
			Week:  w,
			CTL:   projected,
			Lower: projected - band,
			Upper: projected + band,
		})
	}
	return out
}

// DetrainingRisk stages risk from training frequency over the last week and
// the 14-day CTL slope. An empty history is always high risk.
func DetrainingRisk(days []history.Day) Risk {
	if len(days) == 0 {
		return RiskHigh
	}
	trained := history.CountTrainingDays(days, 7)
	slope := ctlSlope(history.Tail(days, 14))

	switch {
	case trained == 0 || slope < -1.0:
		return RiskHigh
	case trained <= 2 || slope < -0.5:
		return RiskMedium
	case trained <= 3 || slope < 0:
		return RiskLow
	default:
		return RiskNone
	}
}

// readiness projects CTL to the event date and, when behind, computes the
// weekly TSS increase needed, clamped at 30%.
func readiness(ctl, slope float64, goal trainsci.Goal, now time.Time) Readiness {
	daysToEvent := goal.TargetDate.Sub(now).Hours() / 24
	if daysToEvent < 0 {
		daysToEvent = 0
	}
	projected := ctl + slope*daysToEvent
	if projected < 0 {
		projected = 0
	}

	target := ctl * 1.1
	if goal.TargetCTL != nil {
		target = *goal.TargetCTL
	}

	gap := projected - target
	r := Readiness{
		EventDate:    *goal.TargetDate,
		ProjectedCTL: projected,
		TargetCTL:    target,
		Gap:          gap,
		OnTrack:      gap >= 0,
	}
	if gap < 0 {
		weeksToEvent := daysToEvent / 7
		if weeksToEvent > 0 && ctl > 0 {
			bump := -gap / weeksToEvent / ctl * 100
			if bump > maxRequiredBumpPct {
				bump = maxRequiredBumpPct
			}
			r.RequiredTSSIncrease = bump
		}
	}
	return r
}

// RemoteForecaster is the optional remote projection capability.
type RemoteForecaster interface {
	ProjectPerformance(ctx context.Context, days []history.Day, weeks int) (Projection, error)
}

// ForecastWith consults the remote forecaster first and falls back to the
// local projection exactly once.
func ForecastWith(ctx context.Context, rf RemoteForecaster, days []history.Day, weeks int, goal *trainsci.Goal, now time.Time) (Projection, error) {
	if rf != nil {
		if p, err := rf.ProjectPerformance(ctx, days, weeks); err == nil {
			return p, nil
		}
	}
	return Forecast(days, weeks, goal, now)
}
