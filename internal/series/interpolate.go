package series

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Boundary selects how days before the first or after the last known value
// are estimated.
type Boundary string

const (
	// BoundaryTrend extends the line through the two nearest known points.
	BoundaryTrend Boundary = "trend"
	// BoundaryHold repeats the nearest known value.
	BoundaryHold Boundary = "hold"
)

// Interpolate returns a copy of values with every NaN replaced by an
// estimate. Index i stands for day i of the series. Interior gaps use the
// quadratic through three neighbouring known points; with only two known
// points the estimate is linear, and with one it is that value everywhere.
// Known values are returned unchanged and estimates are never negative.
// A slice with no known values is returned as-is.
func Interpolate(values []float64, boundary Boundary) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	var xs, ys []float64
	for i, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}

	switch len(xs) {
	case 0:
		return out
	case 1:
		for i := range out {
			if math.IsNaN(out[i]) {
				out[i] = ys[0]
			}
		}
		return out
	}

	last := len(xs) - 1
	for i := range out {
		if !math.IsNaN(out[i]) {
			continue
		}
		x := float64(i)

		var v float64
		switch {
		case x < xs[0]:
			v = extrapolate(x, xs[0], ys[0], xs[1], ys[1], boundary)
		case x > xs[last]:
			v = extrapolate(x, xs[last], ys[last], xs[last-1], ys[last-1], boundary)
		case len(xs) == 2:
			v = line(x, xs[0], ys[0], xs[1], ys[1])
		default:
			v = quadratic(x, xs, ys)
		}
		out[i] = math.Max(v, 0)
	}
	return out
}

// extrapolate estimates x outside the known range from the nearest known
// point (x0, y0) and its neighbour (x1, y1).
func extrapolate(x, x0, y0, x1, y1 float64, boundary Boundary) float64 {
	if boundary == BoundaryHold {
		return y0
	}
	return line(x, x0, y0, x1, y1)
}

// line evaluates at x the straight line through (x0, y0) and (x1, y1).
func line(x, x0, y0, x1, y1 float64) float64 {
	alpha, beta := stat.LinearRegression([]float64{x0, x1}, []float64{y0, y1}, nil, false)
	return alpha + beta*x
}

// quadratic evaluates at x the second-degree polynomial through the two
// known points bracketing x and whichever outer neighbour lies closer. xs
// must have at least three entries and x must lie strictly inside them.
func quadratic(x float64, xs, ys []float64) float64 {
	right := sort.SearchFloat64s(xs, x)
	left := right - 1

	var third int
	switch {
	case left == 0:
		third = right + 1
	case right == len(xs)-1:
		third = left - 1
	case x-xs[left-1] <= xs[right+1]-x:
		third = left - 1
	default:
		third = right + 1
	}

	return lagrange(x,
		[3]float64{xs[left], xs[right], xs[third]},
		[3]float64{ys[left], ys[right], ys[third]},
	)
}

func lagrange(x float64, px, py [3]float64) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		term := py[i]
		for j := 0; j < 3; j++ {
			if i != j {
				term *= (x - px[j]) / (px[i] - px[j])
			}
		}
		sum += term
	}
	return sum
}
