// Package plan turns the daily load history into a weekly training
// recommendation. The decision core is the acute:chronic workload ratio
// (ACWR = ATL/CTL) run through an ordered threshold table.
package plan

import (
	"context"
	"strings"
	"time"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/history"
)

// Direction is the recommended load adjustment.
type Direction string

const (
	Increase Direction = "increase"
	Maintain Direction = "maintain"
	Decrease Direction = "decrease"
)

// Distribution splits weekly training time across intensity bands, in
// percent.
type Distribution struct {
	Name        string  `json:"name"`
	LowPct      float64 `json:"low_pct"`
	ModeratePct float64 `json:"moderate_pct"`
	HighPct     float64 `json:"high_pct"`
}

// Preset intensity distributions selected by goal type.
var (
	Polarized      = Distribution{Name: "polarized", LowPct: 80, ModeratePct: 5, HighPct: 15}
	Pyramidal      = Distribution{Name: "pyramidal", LowPct: 70, ModeratePct: 20, HighPct: 10}
	ThresholdFocus = Distribution{Name: "threshold_focus", LowPct: 65, ModeratePct: 25, HighPct: 10}
)

// WeekStructure is the day-count shape of the coming week.
type WeekStructure struct {
	Pattern      string `json:"pattern"`
	TrainingDays int    `json:"training_days"`
	HardDays     int    `json:"hard_days"`
	RestDays     int    `json:"rest_days"`
}

var (
	recoveryWeek = WeekStructure{Pattern: "recovery", TrainingDays: 4, HardDays: 1, RestDays: 3}
	buildWeek    = WeekStructure{Pattern: "build", TrainingDays: 5, HardDays: 2, RestDays: 2}
	standardWeek = WeekStructure{Pattern: "standard", TrainingDays: 5, HardDays: 2, RestDays: 2}
)

// Model holds the per-athlete parameters the engine adapts over time. Only
// Update mutates it, and only with at least 28 days of history.
type Model struct {
	RecoveryRate     float64      `json:"recovery_rate"`
	OptimalWeeklyTSS float64      `json:"optimal_weekly_tss"`
	Preferred        Distribution `json:"preferred_distribution"`
	FatigueTolerance float64      `json:"fatigue_tolerance"`
}

// DefaultModel is a reasonable starting point for a trained amateur.
func DefaultModel() Model {
	return Model{
		RecoveryRate:     1.0,
		OptimalWeeklyTSS: 400,
		Preferred:        Pyramidal,
		FatigueTolerance: 1.3,
	}
}

// Recommendation is a derived, disposable output; never mutated after
// construction.
type Recommendation struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	Source       trainsci.Source `json:"source"`
	ACWR         float64         `json:"acwr"`
	Direction    Direction       `json:"direction"`
	Percent      float64         `json:"percent"`
	TargetTSS    float64         `json:"target_weekly_tss"`
	Distribution Distribution    `json:"distribution"`
	Structure    WeekStructure   `json:"structure"`
	Confidence   float64         `json:"confidence"`
	Rationale    string          `json:"rationale"`
}

// ACWR returns the acute:chronic workload ratio for the latest day. A zero
// CTL reads as the neutral ratio 1.0.
func ACWR(days []history.Day) float64 {
	latest, ok := history.Latest(days)
	if !ok || latest.CTL == 0 {
		return 1.0
	}
	return latest.ATL / latest.CTL
}

const (
	minUpdateDays      = 28
	lowRecentFraction  = 0.7
	optimalBlendWeight = 0.1
	optimalDecayFactor = 0.95
)

// Recommend builds the weekly load recommendation from history, the
// athlete's adaptation model and their active goals.
func Recommend(days []history.Day, model Model, goals []trainsci.Goal, now time.Time) (Recommendation, error) {
	if len(days) == 0 {
		return Recommendation{}, &trainsci.InsufficientDataError{
			Count:    0,
			Guidance: "log a few rides so training load can be assessed",
		}
	}

	acwr := ACWR(days)
	recent7 := history.SumTSS(days, 7)

	direction, pct, status, reason := adjustment(acwr, recent7, model.OptimalWeeklyTSS)

	base := recent7
	if base == 0 {
		base = model.OptimalWeeklyTSS
	}
	signed := pct
	if direction == Decrease {
		signed = -pct
	}

	rec := Recommendation{
		GeneratedAt:  now,
		Source:       trainsci.SourceLocal,
		ACWR:         acwr,
		Direction:    direction,
		Percent:      pct,
		TargetTSS:    base * (1 + signed/100),
		Distribution: distributionFor(goals, model),
		Structure:    structureFor(acwr, direction),
		Confidence:   confidence(days),
		Rationale:    rationale(status, reason, goals),
	}
	return rec, nil
}

// adjustment is the ACWR decision table; first match wins. Percentages are
// magnitudes, the direction carries the sign.
func adjustment(acwr, recent7, optimalWeekly float64) (Direction, float64, string, string) {
	switch {
	case acwr >= 1.5:
		return Decrease, 20, "Acute load is far above chronic fitness.",
			"Cutting volume 20% to contain fatigue risk."
	case acwr > 1.3:
		return Decrease, 10, "Acute load is running ahead of chronic fitness.",
			"Trimming volume 10% before fatigue accumulates."
	case acwr < 0.8 && recent7 < lowRecentFraction*optimalWeekly:
		return Increase, 15, "Training load is well below what you can absorb.",
			"Adding 15% volume to rebuild toward your optimal week."
	case acwr >= 0.8 && acwr <= 1.3:
		return Maintain, 0, "Load and fitness are balanced.",
			"Holding volume steady."
	default:
		return Maintain, 0, "Load is appropriate for the current buildup.",
			"Holding volume steady."
	}
}

// distributionFor selects the intensity split from the first matching active
// goal, else the model's stored preference.
func distributionFor(goals []trainsci.Goal, model Model) Distribution {
	for _, g := range goals {
		if !g.Active {
			continue
		}
		switch g.Type {
		case trainsci.GoalVO2Max:
			return Polarized
		case trainsci.GoalEndurance:
			return Pyramidal
		case trainsci.GoalThreshold:
			return ThresholdFocus
		}
	}
	return model.Preferred
}

func structureFor(acwr float64, direction Direction) WeekStructure {
	switch {
	case acwr > 1.3:
		return recoveryWeek
	case direction == Increase:
		return buildWeek
	default:
		return standardWeek
	}
}

// confidence blends data volume (days out of 90) and consistency (training
// days out of 20 in the last 28) at equal weight.
func confidence(days []history.Day) float64 {
	volume := float64(len(days)) / 90
	if volume > 1 {
		volume = 1
	}
	consistency := float64(history.CountTrainingDays(days, 28)) / 20
	if consistency > 1 {
		consistency = 1
	}
	return 0.5*volume + 0.5*consistency
}

// rationale concatenates the ACWR status sentence, the adjustment reason and
// the active goal names.
func rationale(status, reason string, goals []trainsci.Goal) string {
	var b strings.Builder
	b.WriteString(status)
	b.WriteString(" ")
	b.WriteString(reason)

	var names []string
	for _, g := range goals {
		if g.Active && g.Name != "" {
			names = append(names, g.Name)
		}
	}
	if len(names) > 0 {
		b.WriteString(" Active goals: ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(".")
	}
	return b.String()
}

// Update adapts the model's optimal weekly TSS from observed performance
// change. It requires at least 28 days of history and mutates nothing else.
func (m *Model) Update(days []history.Day, performanceChange float64) error {
	if len(days) < minUpdateDays {
		return &trainsci.InsufficientDataError{
			Count:    len(days),
			Guidance: "at least 28 days of load history are needed before the model adapts",
		}
	}
	recentWeekly := history.SumTSS(days, 7)
	switch {
	case performanceChange > 0:
		m.OptimalWeeklyTSS += optimalBlendWeight * (recentWeekly - m.OptimalWeeklyTSS)
	case performanceChange < -0.05:
		m.OptimalWeeklyTSS *= optimalDecayFactor
	}
	return nil
}

// RemoteAdvisor is the optional remote recommendation capability.
type RemoteAdvisor interface {
	RecommendLoad(ctx context.Context, days []history.Day, goals []trainsci.Goal) (Recommendation, error)
}

// RecommendWith consults the remote advisor first and falls back to the
// local table exactly once.
func RecommendWith(ctx context.Context, ra RemoteAdvisor, days []history.Day, model Model, goals []trainsci.Goal, now time.Time) (Recommendation, error) {
	if ra != nil {
		if rec, err := ra.RecommendLoad(ctx, days, goals); err == nil {
			return rec, nil
		}
	}
	return Recommend(days, model, goals, now)
}
