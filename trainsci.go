// Package trainsci holds the shared value types and typed failure modes of
// the training science analytics engine. The actual algorithms live in the
// subpackages (power, metrics, pdc, cp, ftp, rider, plan, forecast).
package trainsci

import (
	"errors"
	"fmt"
	"time"
)

// Confidence grades an estimate. The ordering is total: High > Medium > Low.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// ParseConfidence maps a label back to a Confidence, defaulting to low.
func ParseConfidence(s string) Confidence {
	switch s {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Source records whether a derived output came from the remote prediction
// service or the local deterministic algorithm.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// GoalType categorizes a training goal.
type GoalType string

const (
	GoalVO2Max    GoalType = "vo2max"
	GoalEndurance GoalType = "endurance"
	GoalThreshold GoalType = "threshold"
	GoalEvent     GoalType = "event"
)

// Goal is a read-only view of an athlete goal as exposed by the goal store.
type Goal struct {
	Name       string     `json:"name" yaml:"name"`
	Type       GoalType   `json:"type" yaml:"type"`
	Active     bool       `json:"active" yaml:"active"`
	TargetDate *time.Time `json:"target_date,omitempty" yaml:"target_date,omitempty"`
	TargetCTL  *float64   `json:"target_ctl,omitempty" yaml:"target_ctl,omitempty"`
}

// InsufficientDataError reports fewer data points than an algorithm needs.
// Guidance is a user-facing hint about what to record next.
type InsufficientDataError struct {
	Count    int
	Guidance string
}

func (e *InsufficientDataError) Error() string {
	if e.Guidance == "" {
		return fmt.Sprintf("insufficient data: %d points", e.Count)
	}
	return fmt.Sprintf("insufficient data: %d points (%s)", e.Count, e.Guidance)
}

// FittingError reports numerical degeneracy or a non-physical fit result.
type FittingError struct {
	Reason string
}

func (e *FittingError) Error() string {
	return "fitting failed: " + e.Reason
}

// ErrInvalidDurationRange means no curve point fell inside the fitting window.
var ErrInvalidDurationRange = errors.New("no power-duration points in fitting window")
