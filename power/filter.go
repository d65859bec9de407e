// Package power contains the per-sample stream transforms applied to raw
// power readings before aggregation: range/spike filtering, fixed-window
// rolling averages and normalized power.
package power

// FilterConfig bounds acceptable power samples. MaxDelta of 0 disables spike
// rejection.
type FilterConfig struct {
	MinWatts float64
	MaxWatts float64
	MaxDelta float64
}

// DefaultFilterConfig accepts 0-2000 W with spike rejection off.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{MinWatts: 0, MaxWatts: 2000}
}

// Filter rejects out-of-range and spiking power samples. It is owned by a
// single calculator and never shared.
type Filter struct {
	cfg       FilterConfig
	lastValid float64
	haveLast  bool
}

// NewFilter returns a filter for the given bounds.
func NewFilter(cfg FilterConfig) *Filter {
	if cfg.MaxWatts <= cfg.MinWatts {
		cfg = DefaultFilterConfig()
	}
	return &Filter{cfg: cfg}
}

// Filter returns the sample and true when accepted. A rejected sample does
// not move the spike anchor: the next sample is compared against the last
// accepted value.
func (f *Filter) Filter(watts float64) (float64, bool) {
	if watts < f.cfg.MinWatts || watts > f.cfg.MaxWatts {
		return 0, false
	}
	if f.cfg.MaxDelta > 0 && f.haveLast {
		delta := watts - f.lastValid
		if delta < 0 {
			delta = -delta
		}
		if delta > f.cfg.MaxDelta {
			return 0, false
		}
	}
	f.lastValid = watts
	f.haveLast = true
	return watts, true
}

// Reset forgets the spike anchor for a new ride.
func (f *Filter) Reset() {
	f.lastValid = 0
	f.haveLast = false
}
