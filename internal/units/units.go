// Package units defines the millisecond granularity shared by every
// availability calculation.
package units

import "time"

// All values are milliseconds.
const (
	Millisecond int64 = 1
	Second            = 1000 * Millisecond
	Minute            = 60 * Second
	Hour              = 60 * Minute
	Day               = 24 * Hour

	// TimeStep is the length of one schedule block.
	TimeStep = 15 * Minute
)

// Duration converts milliseconds to a time.Duration.
func Duration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Range returns the values start, start+step, ... below stop.
// It returns nil when step is not positive or the range is empty.
func Range(start, stop, step int64) []int64 {
	if step <= 0 || stop <= start {
		return nil
	}
	n := (stop - start + step - 1) / step
	out := make([]int64, n)
	for i := range out {
		out[i] = start + int64(i)*step
	}
	return out
}

// SteppedFloor rounds n down to a multiple of step.
func SteppedFloor(n, step int64) int64 {
	return FloorDiv(n, step) * step
}

// SteppedCeil rounds n up to a multiple of step.
func SteppedCeil(n, step int64) int64 {
	return -FloorDiv(-n, step) * step
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(n, d int64) int64 {
	q := n / d
	if (n%d != 0) && ((n < 0) != (d < 0)) {
		q--
	}
	return q
}

// FloorMod is the remainder matching FloorDiv; it has the sign of d.
func FloorMod(n, d int64) int64 {
	return n - FloorDiv(n, d)*d
}
