package stats

import (
	"math"
	"sort"
)

// #region wilson
// WilsonBounds is a binomial confidence interval for a proportion.
type WilsonBounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Wilson computes the Wilson score interval for successes out of trials at
// the given z score. Zero trials yields {0, 0}; the bracket is meaningless
// there, and callers guard the proportion itself separately.
func Wilson(successes, trials int, z float64) WilsonBounds {
	if trials <= 0 {
		return WilsonBounds{}
	}
	n := float64(trials)
	p := float64(successes) / n
	z2 := z * z

	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	margin := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / denom

	lower := center - margin
	upper := center + margin
	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}
	return WilsonBounds{Lower: lower, Upper: upper}
}

// #endregion wilson

// #region pearson
// PearsonSums accumulates the running sums needed for a correlation without
// retaining samples. Merge-friendly for parallel trial loops.
type PearsonSums struct {
	N                   int
	SumX, SumY          float64
	SumXY, SumX2, SumY2 float64
}

// Add accumulates one (x, y) observation.
func (s *PearsonSums) Add(x, y float64) {
	s.N++
	s.SumX += x
	s.SumY += y
	s.SumXY += x * y
	s.SumX2 += x * x
	s.SumY2 += y * y
}

// Merge folds another accumulator into this one.
func (s *PearsonSums) Merge(o PearsonSums) {
	s.N += o.N
	s.SumX += o.SumX
	s.SumY += o.SumY
	s.SumXY += o.SumXY
	s.SumX2 += o.SumX2
	s.SumY2 += o.SumY2
}

// Correlation returns the Pearson correlation and whether it is defined.
// Undefined when fewer than two observations or either variance is zero;
// a raw NaN never escapes.
func (s PearsonSums) Correlation() (float64, bool) {
	if s.N < 2 {
		return 0, false
	}
	n := float64(s.N)
	cov := s.SumXY - s.SumX*s.SumY/n
	varX := s.SumX2 - s.SumX*s.SumX/n
	varY := s.SumY2 - s.SumY*s.SumY/n
	if varX <= 0 || varY <= 0 {
		return 0, false
	}
	r := cov / math.Sqrt(varX*varY)
	// Clamp float drift at the boundaries.
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r, true
}

// #endregion pearson

// #region quartiles
// Quartiles computes Q1 and Q3 by the median-of-halves method: the median
// splits the sorted sample, excluding itself for odd sizes, and each half's
// median is the quartile. Handles even and odd sizes.
func Quartiles(values []float64) (q1, q3 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	lower := sorted[:n/2]
	upper := sorted[(n+1)/2:]
	return median(lower), median(upper)
}

// median of an already-sorted slice. Empty yields 0.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// #endregion quartiles

// #region ratios
// SafeRatio returns num/denom, or 0 when denom is 0. Used for presence and
// count ratios where "no evidence" is a meaningful zero.
func SafeRatio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// #endregion ratios
