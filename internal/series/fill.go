// Package series turns sparse daily observations into complete daily series:
// one value per calendar day, per newspaper and in aggregate, with missing
// days estimated by quadratic interpolation.
package series

import (
	"errors"
	"math"
	"time"

	"presscount/internal/domain"
	"presscount/internal/util"
)

// ErrEmptyInput is returned when there are no observations to derive a date
// range from.
var ErrEmptyInput = errors.New("no observations in input")

// Options tunes gap filling.
type Options struct {
	Boundary Boundary
}

func (o Options) boundary() Boundary {
	if o.Boundary == "" {
		return BoundaryTrend
	}
	return o.Boundary
}

// RangeOf returns the smallest DateRange covering every observation.
func RangeOf(obs []domain.Observation) (domain.DateRange, error) {
	if len(obs) == 0 {
		return domain.DateRange{}, ErrEmptyInput
	}
	first, last := util.Day(obs[0].Day), util.Day(obs[0].Day)
	for _, o := range obs[1:] {
		d := util.Day(o.Day)
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return domain.DateRange{First: first, Last: last}, nil
}

// Groups returns the distinct groups in order of first appearance.
func Groups(obs []domain.Observation) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, o := range obs {
		if !seen[o.Group] {
			seen[o.Group] = true
			groups = append(groups, o.Group)
		}
	}
	return groups
}

// Fill builds the series called name over rng. known maps days to source
// values; days outside rng are ignored and every other day is estimated.
func Fill(name string, known map[time.Time]float64, rng domain.DateRange, opts Options) domain.DailySeries {
	days := util.EachDay(rng.First, rng.Last)

	values := make([]float64, len(days))
	observed := make([]bool, len(days))
	for i, d := range days {
		if v, ok := known[d]; ok {
			values[i] = v
			observed[i] = true
		} else {
			values[i] = math.NaN()
		}
	}

	filled := Interpolate(values, opts.boundary())

	points := make([]domain.Point, len(days))
	for i, d := range days {
		points[i] = domain.Point{Day: d, Value: filled[i], Observed: observed[i]}
	}
	return domain.DailySeries{Name: name, Points: points}
}

// FillGroups fills one series per distinct group over rng. Several rows for
// the same group and day are summed.
func FillGroups(obs []domain.Observation, rng domain.DateRange, opts Options) []domain.DailySeries {
	byGroup := make(map[string]map[time.Time]float64)
	for _, o := range obs {
		known, ok := byGroup[o.Group]
		if !ok {
			known = make(map[time.Time]float64)
			byGroup[o.Group] = known
		}
		known[util.Day(o.Day)] += float64(o.Count)
	}

	groups := Groups(obs)
	out := make([]domain.DailySeries, 0, len(groups))
	for _, g := range groups {
		out = append(out, Fill(g, byGroup[g], rng, opts))
	}
	return out
}

// Aggregate sums raw counts across groups for each day that has any rows and
// fills the remaining days independently. The result is not reconciled with
// the per-group series: a day missing for one paper contributes nothing to
// the raw sum rather than that paper's interpolated value.
func Aggregate(obs []domain.Observation, rng domain.DateRange, opts Options) domain.DailySeries {
	known := make(map[time.Time]float64)
	for _, o := range obs {
		known[util.Day(o.Day)] += float64(o.Count)
	}
	return Fill(domain.AggregateName, known, rng, opts)
}

// Result bundles everything derived from one set of observations.
type Result struct {
	Range     domain.DateRange
	Groups    []domain.DailySeries
	Aggregate domain.DailySeries
}

// Build derives the global range, the per-group series and the aggregate.
func Build(obs []domain.Observation, opts Options) (*Result, error) {
	rng, err := RangeOf(obs)
	if err != nil {
		return nil, err
	}
	return &Result{
		Range:     rng,
		Groups:    FillGroups(obs, rng, opts),
		Aggregate: Aggregate(obs, rng, opts),
	}, nil
}

// Duplicates counts observations sharing a (group, day) with an earlier row.
func Duplicates(obs []domain.Observation) int {
	type key struct {
		group string
		day   time.Time
	}
	seen := make(map[key]bool, len(obs))
	n := 0
	for _, o := range obs {
		k := key{o.Group, util.Day(o.Day)}
		if seen[k] {
			n++
		}
		seen[k] = true
	}
	return n
}
