// Package xicor computes the generalized correlation coefficient of
// Chatterjee (2019, arxiv.org/abs/1909.10140) for a pair of aligned samples,
// together with asymptotic and permutation-based significance estimates.
//
// The coefficient is intentionally asymmetric: it measures whether y is a
// function of x, not merely whether the two variables are associated. It is
// close to 1 when y = f(x) and close to 0 in expectation when x and y are
// independent.
package xicor

import (
	"errors"
	"math"
	"math/rand"

	"github.com/sebhaan/selectio/internal/rank"
)

// DefaultSubsampleThreshold is the sample size above which NewSubsampled
// restricts the input to a random paired subset before any ranking happens.
const DefaultSubsampleThreshold = 1000

// Degenerate inputs are surfaced as value-level errors rather than letting
// NaN or Inf propagate into downstream score vectors.
var (
	ErrLengthMismatch     = errors.New("xicor: x and y must have equal length")
	ErrSampleTooSmall     = errors.New("xicor: sample must contain at least two observations")
	ErrDegenerateTarget   = errors.New("xicor: target variable has zero variance")
	ErrDegenerateVariance = errors.New("xicor: tie-corrected variance is not positive")
)

const degenerateEps = 1e-12

// Engine computes the coefficient and its significance for one (x, y) pair.
// It is single-use and not safe for concurrent access; a batch caller builds
// one engine per feature column with an independently seeded rng.
type Engine struct {
	x, y []float64
	rng  *rand.Rand

	computed bool
	fOrdered []float64 // f ranks of y reordered by the x ordering
	gMean    float64   // mean of g*(1-g), g the descending max rank of y
	xi       float64
}

// New builds an engine over the full sample. The rng drives the randomized
// tie-break of the x ranks; fix its seed for reproducible results.
func New(x, y []float64, rng *rand.Rand) (*Engine, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	if len(x) < 2 {
		return nil, ErrSampleTooSmall
	}
	return &Engine{x: x, y: y, rng: rng}, nil
}

// NewSubsampled builds an engine over a random paired subset of size
// threshold when the sample is larger than threshold, bounding the cost of
// the O(n log n) ranking stages. At or below the threshold the full sample is
// used. The draw is a single shared selection so x and y stay index-aligned.
func NewSubsampled(x, y []float64, threshold int, rng *rand.Rand) (*Engine, error) {
	if threshold <= 0 {
		return nil, errors.New("xicor: subsample threshold must be positive")
	}
	e, err := New(x, y, rng)
	if err != nil {
		return nil, err
	}
	if len(e.x) > threshold {
		e.x, e.y = pairedSubsample(e.x, e.y, threshold, rng)
	}
	return e, nil
}

func pairedSubsample(x, y []float64, size int, rng *rand.Rand) ([]float64, []float64) {
	idx := rng.Perm(len(x))[:size]
	xs := make([]float64, size)
	ys := make([]float64, size)
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// SampleSize returns the number of observations actually used, after any
// subsampling.
func (e *Engine) SampleSize() int { return len(e.x) }

// Correlation returns the xi coefficient. The value lies in [-1, 1] in
// theory; small negative values occur under sampling noise. A constant
// target yields ErrDegenerateTarget.
func (e *Engine) Correlation() (float64, error) {
	if err := e.compute(); err != nil {
		return 0, err
	}
	return e.xi, nil
}

func (e *Engine) compute() error {
	if e.computed {
		return nil
	}
	xi, gMean, fOrdered, err := statistics(e.x, e.y, e.rng)
	if err != nil {
		return err
	}
	e.xi = xi
	e.gMean = gMean
	e.fOrdered = fOrdered
	e.computed = true
	return nil
}

// statistics runs the full pipeline for one pair: ordinal x ranks with
// randomized tie-break, max-scaled y ranks, the cross rank increment mean and
// the xi coefficient.
func statistics(x, y []float64, rng *rand.Rand) (xi, gMean float64, fOrdered []float64, err error) {
	n := len(x)
	fn := float64(n)

	xRank := rank.Ordinal(x, rng)
	f := rank.MaxScaled(y)

	// xRank is a permutation of 1..n, so the ascending order of the x ranks
	// can be inverted directly instead of sorting.
	fOrdered = make([]float64, n)
	for i, r := range xRank {
		fOrdered[r-1] = f[i]
	}

	var sumAbs float64
	for i := 0; i < n-1; i++ {
		sumAbs += math.Abs(fOrdered[i+1] - fOrdered[i])
	}
	meanAbsolute := sumAbs / float64(n-1) * float64(n-1) / (2 * fn)

	g := rank.MaxScaledDesc(y)
	for _, gi := range g {
		gMean += gi * (1 - gi)
	}
	gMean /= fn

	if gMean < degenerateEps {
		return 0, 0, nil, ErrDegenerateTarget
	}

	return 1 - meanAbsolute/gMean, gMean, fOrdered, nil
}

func normalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}
