package xicor

import (
	"errors"
	"math"
	"sort"
)

// PValueNoTies returns the one-sided asymptotic p-value testing xi > 0
// against independence, assuming the theoretical variance 2/5. The
// assumption only holds when the target has (approximately) no repeated
// values; with ties the estimate is biased and PValueTieCorrected should be
// used instead.
func (e *Engine) PValueNoTies() (float64, error) {
	if err := e.compute(); err != nil {
		return 0, err
	}
	n := float64(len(e.x))
	return 1 - normalCDF(math.Sqrt(n)*e.xi/math.Sqrt(2.0/5.0)), nil
}

// PValueTieCorrected returns the one-sided asymptotic p-value using the
// tie-corrected variance derived from rank moment statistics. The formula is
// valid with or without ties in the target, at the cost of an extra sort.
func (e *Engine) PValueTieCorrected() (float64, error) {
	if err := e.compute(); err != nil {
		return 0, err
	}

	n := len(e.x)
	fn := float64(n)

	sortedF := make([]float64, n)
	copy(sortedF, e.fOrdered)
	sort.Float64s(sortedF)

	// ind2[i] = 2n - 2(i+1) + 1 weights the sorted ranks by position.
	var a, c float64
	for i, f := range sortedF {
		ind2 := 2*fn - 2*float64(i+1) + 1
		a += ind2 * f * f
		c += ind2 * f
	}
	a /= fn * fn
	c /= fn * fn

	var cq, b float64
	for i, f := range sortedF {
		cq += f
		m := (cq + (fn-float64(i+1))*f) / fn
		b += m * m
	}
	b /= fn

	v := (a - 2*b + c*c) / (e.gMean * e.gMean)
	if v < degenerateEps {
		return 0, ErrDegenerateVariance
	}

	return 1 - normalCDF(math.Sqrt(fn)*e.xi/math.Sqrt(v)), nil
}

// PValuePermutation estimates the one-sided p-value by recomputing the
// coefficient for nperm random permutations of the target and counting how
// often the permuted coefficient reaches the observed one. Slower than the
// closed-form estimates but free of asymptotic assumptions.
func (e *Engine) PValuePermutation(nperm int) (float64, error) {
	if nperm <= 0 {
		return 0, errors.New("xicor: permutation count must be positive")
	}
	if err := e.compute(); err != nil {
		return 0, err
	}

	n := len(e.y)
	permY := make([]float64, n)
	hits := 0
	for p := 0; p < nperm; p++ {
		for i, j := range e.rng.Perm(n) {
			permY[i] = e.y[j]
		}
		xi, _, _, err := statistics(e.x, permY, e.rng)
		if err != nil {
			return 0, err
		}
		if xi >= e.xi {
			hits++
		}
	}
	return float64(hits) / float64(nperm), nil
}
