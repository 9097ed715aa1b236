// Package domain defines the core value types shared across presscount:
// article-count observations, calendar ranges, and filled daily series.
package domain

import "time"

// Observation is one (newspaper, day, article count) row of the source CSV.
type Observation struct {
	Group string
	Day   time.Time // UTC midnight
	Count int64
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	First time.Time
	Last  time.Time
}

// Days returns the number of calendar days in the range, counting both ends.
func (r DateRange) Days() int {
	if r.Last.Before(r.First) {
		return 0
	}
	return int(r.Last.Sub(r.First).Hours()/24) + 1
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.First) && !day.After(r.Last)
}

// Point is a single day of a DailySeries. Observed is false for values that
// were synthesized by interpolation or extrapolation.
type Point struct {
	Day      time.Time
	Value    float64
	Observed bool
}

// DailySeries holds exactly one Point per calendar day of its range, ordered
// by day.
type DailySeries struct {
	Name   string
	Points []Point
}

// Synthesized returns how many points were filled in rather than observed.
func (s DailySeries) Synthesized() int {
	n := 0
	for _, p := range s.Points {
		if !p.Observed {
			n++
		}
	}
	return n
}

// Total returns the sum of all values in the series.
func (s DailySeries) Total() float64 {
	var sum float64
	for _, p := range s.Points {
		sum += p.Value
	}
	return sum
}

// AggregateName is the series name used for the all-newspapers total.
const AggregateName = "All Newspapers"
