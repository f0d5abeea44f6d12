// Package metrics scores predictions against observed targets. These are
// the fitness ingredients an evolutionary caller combines; the evaluation
// core itself never looks at them.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MSE returns the mean squared error between predictions x and targets y.
// Slices must have equal nonzero length.
func MSE(x, y []float64) float64 {
	diff := make([]float64, len(x))
	floats.SubTo(diff, x, y)
	return floats.Dot(diff, diff) / float64(len(x))
}

// RMSE returns the root mean squared error.
func RMSE(x, y []float64) float64 {
	return math.Sqrt(MSE(x, y))
}

// NMSE returns the mean squared error normalized by the variance of the
// targets. A constant predictor at the target mean scores 1.
func NMSE(x, y []float64) float64 {
	v := stat.Variance(y, nil)
	if v == 0 {
		return math.Inf(1)
	}
	return MSE(x, y) / v
}

// RSquared returns the squared Pearson correlation between predictions and
// targets, in [0, 1]. NaN when either side has zero variance.
func RSquared(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	return r * r
}
