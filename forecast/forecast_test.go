package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/history"
)

var testNow = time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

// ramp builds n days with CTL moving by slope per day from start, all with
// the given daily TSS.
func ramp(n int, startCTL, slope, dailyTSS float64) []history.Day {
	days := make([]history.Day, n)
	base := testNow.AddDate(0, 0, -n)
	for i := range days {
		days[i] = history.Day{
			Date: base.AddDate(0, 0, i),
			TSS:  dailyTSS,
			CTL:  startCTL + slope*float64(i),
		}
	}
	return days
}

func TestTrendClassification(t *testing.T) {
	p, err := Forecast(ramp(30, 40, 1.0, 60), 4, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, Improving, p.Trend)
	assert.InDelta(t, 1.0, p.Slope, 1e-9)
	assert.False(t, p.Plateau)

	p, err = Forecast(ramp(30, 70, -1.0, 60), 4, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, Declining, p.Trend)

	p, err = Forecast(ramp(30, 50, 0.1, 60), 4, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, Stable, p.Trend)
}

func TestPlateauNeedsContinuedTraining(t *testing.T) {
	// Flat CTL with real load is a plateau.
	p, err := Forecast(ramp(30, 50, 0.0, 60), 4, nil, testNow)
	require.NoError(t, err)
	assert.True(t, p.Plateau)

	// Flat CTL while barely riding is not.
	p, err = Forecast(ramp(30, 50, 0.0, 10), 4, nil, testNow)
	require.NoError(t, err)
	assert.False(t, p.Plateau)
}

func TestProjectionBandWidensWithHorizon(t *testing.T) {
	p, err := Forecast(ramp(30, 40, 1.0, 60), 8, nil, testNow)
	require.NoError(t, err)
	require.Len(t, p.Weekly, 8)

	w1, w8 := p.Weekly[0], p.Weekly[7]
	assert.Equal(t, 1, w1.Week)
	assert.Equal(t, 8, w8.Week)
	assert.Greater(t, w8.Upper-w8.Lower, w1.Upper-w1.Lower, "band strictly widens with horizon")

	latestCTL := 40 + 1.0*29
	assert.InDelta(t, latestCTL+7, w1.CTL, 1e-9)
	assert.InDelta(t, w1.CTL+w1.CTL*0.10, w1.Upper, 1e-9)
	assert.InDelta(t, w1.CTL-w1.CTL*0.10, w1.Lower, 1e-9)
}

func TestProjectionClampsAtZero(t *testing.T) {
	p, err := Forecast(ramp(30, 20, -1.0, 60), 8, nil, testNow)
	require.NoError(t, err)
	for _, w := range p.Weekly {
		assert.GreaterOrEqual(t, w.CTL, 0.0, "week %d", w.Week)
	}
	last := p.Weekly[7]
	assert.Equal(t, 0.0, last.CTL)
	assert.Equal(t, 0.0, last.Upper-last.Lower, "band collapses with a zero projection")
}

func TestDetrainingRiskStages(t *testing.T) {
	assert.Equal(t, RiskHigh, DetrainingRisk(nil), "empty history is always high")

	// No training in the last week.
	assert.Equal(t, RiskHigh, DetrainingRisk(ramp(14, 50, 0, 0)))

	// Steep CTL decline trumps frequency.
	assert.Equal(t, RiskHigh, DetrainingRisk(ramp(14, 70, -1.5, 60)))

	// Two training days a week.
	days := ramp(14, 50, 0.2, 0)
	days[len(days)-2].TSS = 60
	days[len(days)-5].TSS = 60
	assert.Equal(t, RiskMedium, DetrainingRisk(days))

	// Daily training, gently declining CTL.
	assert.Equal(t, RiskMedium, DetrainingRisk(ramp(14, 60, -0.7, 60)))
	assert.Equal(t, RiskLow, DetrainingRisk(ramp(14, 60, -0.2, 60)))
	assert.Equal(t, RiskNone, DetrainingRisk(ramp(14, 60, 0.5, 60)))
}

func TestReadinessOnTrack(t *testing.T) {
	eventDate := testNow.AddDate(0, 0, 28)
	target := 70.0
	goal := &trainsci.Goal{
		Name:       "Spring classic",
		Type:       trainsci.GoalEvent,
		Active:     true,
		TargetDate: &eventDate,
		TargetCTL:  &target,
	}

	p, err := Forecast(ramp(30, 40, 1.0, 60), 4, goal, testNow)
	require.NoError(t, err)
	require.NotNil(t, p.Readiness)

	r := p.Readiness
	assert.InDelta(t, 69+28, r.ProjectedCTL, 1e-9)
	assert.Equal(t, 70.0, r.TargetCTL)
	assert.True(t, r.OnTrack)
	assert.Equal(t, 0.0, r.RequiredTSSIncrease)
}

func TestReadinessBehindComputesRequiredBump(t *testing.T) {
	eventDate := testNow.AddDate(0, 0, 28)
	target := 80.0
	goal := &trainsci.Goal{TargetDate: &eventDate, TargetCTL: &target}

	p, err := Forecast(ramp(30, 21, 0.0, 60), 4, goal, testNow)
	require.NoError(t, err)
	require.NotNil(t, p.Readiness)

	r := p.Readiness
	assert.False(t, r.OnTrack)
	assert.InDelta(t, -59, r.Gap, 1e-9)
	// -gap / weeks / ctl * 100 = 59/4/21*100 = 70%, clamped at 30.
	assert.Equal(t, 30.0, r.RequiredTSSIncrease)
}

func TestReadinessDefaultTarget(t *testing.T) {
	eventDate := testNow.AddDate(0, 0, 14)
	goal := &trainsci.Goal{TargetDate: &eventDate}

	p, err := Forecast(ramp(30, 50, 0.0, 60), 4, goal, testNow)
	require.NoError(t, err)
	require.NotNil(t, p.Readiness)
	assert.InDelta(t, 55.0, p.Readiness.TargetCTL, 1e-9, "default target is 110% of current CTL")
}

func TestForecastInsufficientHistory(t *testing.T) {
	_, err := Forecast(ramp(1, 50, 0, 60), 4, nil, testNow)

	var insufficient *trainsci.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.NotEmpty(t, insufficient.Guidance)
}

type stubForecaster struct {
	p   Projection
	err error
}

func (s stubForecaster) ProjectPerformance(_ context.Context, _ []history.Day, _ int) (Projection, error) {
	return s.p, s.err
}

func TestForecastWithRemoteFallback(t *testing.T) {
	days := ramp(30, 40, 0.5, 60)

	remote := stubForecaster{p: Projection{Source: trainsci.SourceRemote}}
	p, err := ForecastWith(context.Background(), remote, days, 4, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, trainsci.SourceRemote, p.Source)

	failing := stubForecaster{err: errors.New("timeout")}
	p, err = ForecastWith(context.Background(), failing, days, 4, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, trainsci.SourceLocal, p.Source)

	p, err = ForecastWith(context.Background(), nil, days, 4, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, trainsci.SourceLocal, p.Source)
}
