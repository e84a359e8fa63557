package uniformity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// spread returns the mean, sample standard deviation and max-min range of
// a non-empty sample. A single sample has an SD of 0.
func spread(values []float64) (mean, sd, rng float64) {
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		sd = stat.StdDev(values, nil)
	}
	if math.IsNaN(sd) {
		sd = 0
	}
	rng = floats.Max(values) - floats.Min(values)
	return mean, sd, rng
}

// straightness is the R² of an ordinary least squares fit of thickness
// against position, clamped to [0, 1]. It is 0 with two or fewer samples,
// with no spread in position, or when R² is undefined (flat thickness).
func straightness(positions, values []float64) float64 {
	if len(values) <= 2 || stat.Variance(positions, nil) <= 0 {
		return 0
	}
	alpha, beta := stat.LinearRegression(positions, values, nil, false)
	r2 := stat.RSquared(positions, values, nil, alpha, beta)
	switch {
	case math.IsNaN(r2), r2 < 0:
		return 0
	case r2 > 1:
		return 1
	}
	return r2
}

// symmetry compares the mean thickness on either side of the median
// position. Samples at the median count as left. The result is floored at
// 0 and is 0 when either side is empty.
func symmetry(positions, values []float64) float64 {
	med := median(positions)
	var leftSum, rightSum float64
	var leftN, rightN int
	for i, p := range positions {
		if p <= med {
			leftSum += values[i]
			leftN++
		} else {
			rightSum += values[i]
			rightN++
		}
	}
	if leftN == 0 || rightN == 0 {
		return 0
	}
	left := leftSum / float64(leftN)
	right := rightSum / float64(rightN)
	overall := (left + right) / 2
	if overall <= 0 {
		return 0
	}
	return math.Max(1-math.Abs(left-right)/overall, 0)
}

// median returns the middle value of xs, averaging the two middle values
// for an even count. xs is not modified.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
