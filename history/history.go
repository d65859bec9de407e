// Package history holds the daily training-load series the planning and
// forecasting components consume. The series is produced upstream by an
// EWMA recursion; this package reads it, appends to it, and persists it as
// parquet snapshots.
package history

import (
	"sort"
	"time"
)

// Day is one calendar day of training load. Read-only to the engine.
type Day struct {
	Date time.Time `json:"date"`
	TSS  float64   `json:"tss"`
	ATL  float64   `json:"atl"`
	CTL  float64   `json:"ctl"`
	TSB  float64   `json:"tsb"`
}

// EWMA time constants for the load recursion (days).
const (
	ctlTimeConstant = 42.0
	atlTimeConstant = 7.0
)

// Accumulate appends one day's TSS to the series, rolling CTL and ATL
// forward with the standard exponential recursion and filling any calendar
// gap with zero-load days. The input slice is not modified.
func Accumulate(days []Day, date time.Time, tss float64) []Day {
	out := append([]Day(nil), days...)
	date = date.Truncate(24 * time.Hour)

	var ctl, atl float64
	if len(out) > 0 {
		last := out[len(out)-1]
		ctl, atl = last.CTL, last.ATL
		for d := last.Date.AddDate(0, 0, 1); d.Before(date); d = d.AddDate(0, 0, 1) {
			ctl += (0 - ctl) * (2.0 / (ctlTimeConstant + 1))
			atl += (0 - atl) * (2.0 / (atlTimeConstant + 1))
			out = append(out, Day{Date: d, CTL: ctl, ATL: atl, TSB: ctl - atl})
		}
	}

	ctl += (tss - ctl) * (2.0 / (ctlTimeConstant + 1))
	atl += (tss - atl) * (2.0 / (atlTimeConstant + 1))
	out = append(out, Day{Date: date, TSS: tss, CTL: ctl, ATL: atl, TSB: ctl - atl})
	return out
}

// Sort orders the series chronologically in place.
func Sort(days []Day) {
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
}

// Tail returns the last n days (or fewer).
func Tail(days []Day, n int) []Day {
	if len(days) <= n {
		return days
	}
	return days[len(days)-n:]
}

// SumTSS totals TSS over the last n days.
func SumTSS(days []Day, n int) float64 {
	total := 0.0
	for _, d := range Tail(days, n) {
		total += d.TSS
	}
	return total
}

// TrainingDayThreshold is the TSS above which a day counts as trained rather
// than incidental movement.
const TrainingDayThreshold = 20.0

// CountTrainingDays counts days with TSS above the training threshold in the
// last n days.
func CountTrainingDays(days []Day, n int) int {
	count := 0
	for _, d := range Tail(days, n) {
		if d.TSS > TrainingDayThreshold {
			count++
		}
	}
	return count
}

// Latest returns the most recent day; ok is false for an empty series.
func Latest(days []Day) (Day, bool) {
	if len(days) == 0 {
		return Day{}, false
	}
	return days[len(days)-1], true
}
