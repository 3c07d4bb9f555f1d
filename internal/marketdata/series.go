// Package marketdata defines the normalized daily price schema shared by the
// source adapters, the fetch pipeline, and the indicator engine.
package marketdata

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoData indicates a source returned no usable rows for the request.
var ErrNoData = errors.New("no data")

// Bar is one trading day's OHLCV record. Date carries no time-of-day; it is
// normalized to midnight UTC.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is an ordered sequence of daily bars, ascending by date.
type Series []Bar

// FetchRequest describes one price-history fetch.
type FetchRequest struct {
	Symbol string
	Years  int // lookback window in whole years
}

// Validate checks the request parameters.
func (r FetchRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if r.Years <= 0 {
		return fmt.Errorf("lookback years must be positive, got %d", r.Years)
	}
	return nil
}

// IsKoreanCode reports whether symbol looks like a domestic (KRX) stock code:
// purely numeric, e.g. "005930".
func IsKoreanCode(symbol string) bool {
	if symbol == "" {
		return false
	}
	for _, r := range symbol {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Day truncates t to a calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate reports whether the series is usable: non-empty with strictly
// ascending, unique dates.
func (s Series) Validate() error {
	if len(s) == 0 {
		return ErrNoData
	}
	for i := 1; i < len(s); i++ {
		if !s[i-1].Date.Before(s[i].Date) {
			return fmt.Errorf("bars out of order at %s", s[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Normalize sorts bars ascending by date and drops duplicate dates, keeping
// the last occurrence. Returns a new series.
func (s Series) Normalize() Series {
	if len(s) == 0 {
		return s
	}

	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:1]
	for _, b := range out[1:] {
		if b.Date.Equal(dedup[len(dedup)-1].Date) {
			dedup[len(dedup)-1] = b
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}

// Filter returns the bars with dates in [from, to], inclusive.
func (s Series) Filter(from, to time.Time) Series {
	var out Series
	for _, b := range s {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high column.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low column.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Latest returns the most recent bar. The second return is false for an
// empty series.
func (s Series) Latest() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}
