package power

import "math"

// NPWindowSeconds is the rolling window normalized power is defined over.
const NPWindowSeconds = 30

// NPCalculator computes normalized power incrementally: a 30 s rolling
// average whose 4th power is accumulated once the window is full.
// NP = (mean of accumulated 4th powers)^0.25.
type NPCalculator struct {
	rolling  *RollingAverage
	fourthPw float64
	count    int
}

// NewNPCalculator returns an empty normalized power accumulator.
func NewNPCalculator() *NPCalculator {
	return &NPCalculator{rolling: NewRollingAverage(NPWindowSeconds)}
}

// Add feeds one 1 Hz power sample and returns the current NP in whole watts.
// ok is false until the 30 s window has filled.
func (n *NPCalculator) Add(watts float64) (float64, bool) {
	avg, _ := n.rolling.Add(watts)
	if !n.rolling.Full() {
		return 0, false
	}
	n.fourthPw += avg * avg * avg * avg
	n.count++
	return roundWatts(math.Pow(n.fourthPw/float64(n.count), 0.25)), true
}

// Value returns the latest NP without adding a sample.
func (n *NPCalculator) Value() (float64, bool) {
	if n.count == 0 {
		return 0, false
	}
	return roundWatts(math.Pow(n.fourthPw/float64(n.count), 0.25)), true
}

// Reset clears all accumulated state for a new ride.
func (n *NPCalculator) Reset() {
	n.rolling.Reset()
	n.fourthPw = 0
	n.count = 0
}

// roundWatts rounds half away from zero to a whole watt.
func roundWatts(v float64) float64 {
	return math.Round(v)
}
