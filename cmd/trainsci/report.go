package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/velolab/trainsci/forecast"
	"github.com/velolab/trainsci/metrics"
	"github.com/velolab/trainsci/plan"
	"github.com/velolab/trainsci/rider"
)

func analysisReport(a *rideAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ride: %s", a.File)
	if a.Sport != "" {
		fmt.Fprintf(&b, " (%s)", a.Sport)
	}
	b.WriteString("\n")
	if !a.Start.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", a.Start.Format("2006-01-02 15:04:05"))
	}

	s := a.Snapshot
	fmt.Fprintf(
		&b,
		"Duration %s | Power %.0f avg / %.0f max W | Work %.0f kJ\n",
		formatDuration(s.ElapsedSeconds),
		s.AvgPowerW,
		s.MaxPowerW,
		s.Calories,
	)
	if s.HasNormalized {
		fmt.Fprintf(&b, "NP %.0f W | IF %.2f | TSS %.0f\n", s.NormalizedW, s.IF, s.TSS)
	} else {
		b.WriteString("NP/IF/TSS unavailable (ride shorter than the normalization window)\n")
	}
	if s.AvgHRBPM > 0 {
		fmt.Fprintf(&b, "HR %.0f avg / %.0f max bpm | Cadence %.0f avg / %.0f max rpm\n", s.AvgHRBPM, s.MaxHRBPM, s.AvgCadence, s.MaxCadence)
	}
	if s.AvgSpeed > 0 {
		fmt.Fprintf(&b, "Speed %.1f avg / %.1f max km/h\n", s.AvgSpeed*3.6, s.MaxSpeed*3.6)
	}

	if len(a.Curve) > 0 {
		b.WriteString("\nBest Efforts\n")
		for _, p := range a.Curve {
			fmt.Fprintf(&b, "- %8s: %4d W\n", formatDuration(float64(p.DurationSecs)), p.Watts)
		}
	}

	if a.Model != nil {
		fmt.Fprintf(
			&b,
			"\nCritical Power: %d W | W': %.1f kJ | fit R² %.3f\n",
			a.Model.CP,
			float64(a.Model.WPrime)/1000,
			a.Model.RSquared,
		)
	}

	if a.Estimate != nil {
		fmt.Fprintf(
			&b,
			"FTP estimate: %d W (%s, %s confidence)\n",
			a.Estimate.Watts,
			a.Estimate.Method,
			a.Estimate.Confidence,
		)
		if a.NewFTP {
			b.WriteString("FTP note: this estimate differs enough from your configured FTP to update it.\n")
		}
	}

	if a.Profile != nil {
		p := a.Profile
		fmt.Fprintf(
			&b,
			"\nRider Profile (%% of FTP): 5s %.0f | 1m %.0f | 5m %.0f\n",
			p.Neuromuscular,
			p.Anaerobic,
			p.VO2Max,
		)
		if a.RiderType != rider.Unknown {
			info := rider.InfoFor(a.RiderType)
			fmt.Fprintf(&b, "Rider type: %s. %s\n", a.RiderType, info.Description)
			fmt.Fprintf(&b, "Training focus: %s\n", info.TrainingFocus)
		}
	}
	return b.String()
}

func recommendationReport(r plan.Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Load Recommendation (%s)\n", r.Source)
	fmt.Fprintf(&b, "ACWR %.2f | %s", r.ACWR, r.Direction)
	if r.Percent > 0 {
		fmt.Fprintf(&b, " %.0f%%", r.Percent)
	}
	fmt.Fprintf(&b, " | target %.0f TSS next week\n", r.TargetTSS)
	fmt.Fprintf(
		&b,
		"Distribution: %s (%.0f/%.0f/%.0f low/mod/high)\n",
		r.Distribution.Name,
		r.Distribution.LowPct,
		r.Distribution.ModeratePct,
		r.Distribution.HighPct,
	)
	fmt.Fprintf(
		&b,
		"Week: %s, %d training days (%d hard, %d rest)\n",
		r.Structure.Pattern,
		r.Structure.TrainingDays,
		r.Structure.HardDays,
		r.Structure.RestDays,
	)
	fmt.Fprintf(&b, "Confidence %.0f%% | %s\n", r.Confidence*100, r.Rationale)
	return b.String()
}

func projectionReport(p forecast.Projection, weeks int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Fitness Forecast, %d weeks (%s)\n", weeks, p.Source)
	fmt.Fprintf(&b, "Trend: %s (%+.2f CTL/day)", p.Trend, p.Slope)
	if p.Plateau {
		b.WriteString(" | plateau: consistent load without fitness gain")
	}
	b.WriteString("\n")
	if p.Risk != forecast.RiskNone {
		fmt.Fprintf(&b, "Detraining risk: %s\n", p.Risk)
	}

	b.WriteString("\nWeek   CTL    Range\n")
	for _, w := range p.Weekly {
		fmt.Fprintf(&b, "%4d  %5.1f  %5.1f-%.1f\n", w.Week, w.CTL, w.Lower, w.Upper)
	}

	if p.Readiness != nil {
		r := p.Readiness
		fmt.Fprintf(
			&b,
			"\nEvent %s: projected CTL %.1f vs target %.1f",
			r.EventDate.Format("2006-01-02"),
			r.ProjectedCTL,
			r.TargetCTL,
		)
		if r.OnTrack {
			b.WriteString(" | on track\n")
		} else {
			fmt.Fprintf(&b, " | behind, roughly +%.0f%% weekly TSS needed\n", r.RequiredTSSIncrease)
		}
	}
	return b.String()
}

func liveLine(s metrics.Snapshot) string {
	zone := "-"
	if s.InZone {
		zone = s.Zone.Name
	}
	return fmt.Sprintf(
		"%s | %4.0f W (3s %4.0f, 30s %4.0f) | NP %4.0f | HR %3.0f | %s\n",
		formatDuration(s.ElapsedSeconds),
		s.PowerW,
		s.Power3sW,
		s.Power30sW,
		s.NormalizedW,
		s.HRBPM,
		zone,
	)
}

func liveSummary(s metrics.Snapshot) string {
	var b strings.Builder
	b.WriteString("Session Summary\n")
	fmt.Fprintf(&b, "Duration %s | Avg %.0f W | Max %.0f W | Work %.0f kJ\n",
		formatDuration(s.ElapsedSeconds), s.AvgPowerW, s.MaxPowerW, s.Calories)
	if s.HasNormalized {
		fmt.Fprintf(&b, "NP %.0f W | IF %.2f | TSS %.0f\n", s.NormalizedW, s.IF, s.TSS)
	}
	return b.String()
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
