// Package indicator computes standard technical indicators over a daily
// price series. Every function is pure and deterministic: identical input
// yields identical output.
//
// Derived columns have the same length as the source series. Positions
// inside an indicator's warm-up window carry Valid=false; downstream
// consumers must never read them as zero.
package indicator

import "math"

// Point is one position of a derived series. Valid is false while the
// rolling window has insufficient history.
type Point struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Series is a derived column aligned index-for-index with its source bars.
type Series []Point

// DefinedCount returns the number of valid positions.
func (s Series) DefinedCount() int {
	n := 0
	for _, p := range s {
		if p.Valid {
			n++
		}
	}
	return n
}

// Last returns the most recent valid point, searching backwards.
func (s Series) Last() (Point, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i], true
		}
	}
	return Point{}, false
}

// valid wraps a defined value.
func valid(v float64) Point {
	return Point{Value: v, Valid: true}
}

// rollingMean computes the trailing arithmetic mean over window raw values.
// Positions with fewer than window prior points are invalid.
func rollingMean(values []float64, window int) Series {
	out := make(Series, len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = valid(sum / float64(window))
		}
	}
	return out
}

// rollingMeanPoints is rollingMean over an optional series: a position is
// valid only when the entire trailing window is valid.
func rollingMeanPoints(values Series, window int) Series {
	out := make(Series, len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if !values[j].Valid {
				ok = false
				break
			}
			sum += values[j].Value
		}
		if ok {
			out[i] = valid(sum / float64(window))
		}
	}
	return out
}

// rollingStdDev computes the trailing sample standard deviation (n-1
// denominator, matching the convention used by Bollinger bands here).
func rollingStdDev(values []float64, window int) Series {
	out := make(Series, len(values))
	if window < 2 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		mean := sum / float64(window)

		var sq float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			sq += d * d
		}
		out[i] = valid(math.Sqrt(sq / float64(window-1)))
	}
	return out
}

// rollingMin computes the trailing minimum over window values.
func rollingMin(values []float64, window int) Series {
	return rollingExtreme(values, window, func(a, b float64) bool { return a < b })
}

// rollingMax computes the trailing maximum over window values.
func rollingMax(values []float64, window int) Series {
	return rollingExtreme(values, window, func(a, b float64) bool { return a > b })
}

func rollingExtreme(values []float64, window int, better func(a, b float64) bool) Series {
	out := make(Series, len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		best := values[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if better(values[j], best) {
				best = values[j]
			}
		}
		out[i] = valid(best)
	}
	return out
}
