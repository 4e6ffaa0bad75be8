// Package epi holds the case-series statistics the stringency scores are
// compared against: moving averages, interval growth rates and score/case
// correlation. All functions take values on a contiguous daily axis and keep
// positional alignment, padding undefined positions with NaN.
package epi

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/covidnpi/stringency-etl/internal/domain"
)

// MovingAverage returns the trailing w-day average of x. Positions with
// fewer than w trailing samples are NaN.
func MovingAverage(x []float64, w int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < w-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - w + 1; j <= i; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(w)
	}
	return out
}

// GrowthRate returns the percentage growth of the days-day moving average
// against itself days earlier: (ma(t)/ma(t-days) - 1) * 100. Undefined
// positions and divisions by zero come out NaN.
func GrowthRate(x []float64, days int) []float64 {
	ma := MovingAverage(x, days)
	out := make([]float64, len(x))
	for i := range out {
		out[i] = (ratioAt(ma, i, days) - 1) * 100
	}
	return out
}

// LogGrowthRate returns ln(ma(t)/ma(t-days)), the log-scale counterpart of
// GrowthRate.
func LogGrowthRate(x []float64, days int) []float64 {
	ma := MovingAverage(x, days)
	out := make([]float64, len(x))
	for i := range out {
		lr := math.Log(ratioAt(ma, i, days))
		if math.IsInf(lr, 0) {
			lr = math.NaN()
		}
		out[i] = lr
	}
	return out
}

// ratioAt computes ma[i]/ma[i-lag] with NaN for out-of-range, NaN operands
// or division blowups.
func ratioAt(ma []float64, i, lag int) float64 {
	if i < lag {
		return math.NaN()
	}
	cur, prev := ma[i], ma[i-lag]
	if math.IsNaN(cur) || math.IsNaN(prev) || prev == 0 {
		return math.NaN()
	}
	return cur / prev
}

// Correlation returns the Pearson correlation of two aligned series,
// ignoring positions where either side is NaN. NaN when fewer than two
// valid pairs remain.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// SeriesValues flattens a daily series into its chronological dates and
// values, the layout the slice-based statistics above expect.
func SeriesValues(s domain.Series) ([]string, []float64) {
	dates := s.Dates()
	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = s[d]
	}
	return dates, values
}
