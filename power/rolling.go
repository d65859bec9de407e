package power

// RollingAverage maintains a fixed-size window with a running sum. The 3 s
// window smooths display power; the 30 s window feeds normalized power.
type RollingAverage struct {
	buf   []float64
	size  int
	count int
	head  int
	sum   float64
}

// NewRollingAverage returns an empty window of the given size.
func NewRollingAverage(window int) *RollingAverage {
	if window < 1 {
		window = 1
	}
	return &RollingAverage{
		buf:  make([]float64, window),
		size: window,
	}
}

// Add appends a sample, evicting the oldest once the window overflows, and
// returns the current average. ok is false only for an empty window, which
// cannot happen after an Add.
func (r *RollingAverage) Add(v float64) (float64, bool) {
	if r.count == r.size {
		r.sum -= r.buf[r.head]
	} else {
		r.count++
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % r.size
	r.sum += v
	return r.sum / float64(r.count), true
}

// Average returns the current mean; ok is false when the window is empty.
func (r *RollingAverage) Average() (float64, bool) {
	if r.count == 0 {
		return 0, false
	}
	return r.sum / float64(r.count), true
}

// Full reports whether the window has reached its configured size.
func (r *RollingAverage) Full() bool {
	return r.count == r.size
}

// Len returns the number of buffered samples.
func (r *RollingAverage) Len() int {
	return r.count
}

// Reset empties the window.
func (r *RollingAverage) Reset() {
	r.count = 0
	r.head = 0
	r.sum = 0
}
