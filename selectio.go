// Package selectio ranks candidate feature columns against a target variable
// using the generalized correlation coefficient of Chatterjee (2019,
// arxiv.org/abs/1909.10140). The coefficient is asymmetric on purpose: it
// measures whether the target is a function of a feature, catching
// non-monotonic and non-linear dependence that Pearson or Spearman miss.
// Columns whose asymptotic significance does not clear the configured cutoff
// score exactly zero.
package selectio

import (
	"context"

	"github.com/sebhaan/selectio/internal/importance"
)

// Re-exported scoring API. The implementation lives in internal/importance.
type (
	Options   = importance.Options
	Scorer    = importance.Scorer
	Estimator = importance.Estimator
	Tracker   = importance.Tracker
)

const (
	EstimatorTieCorrected = importance.EstimatorTieCorrected
	EstimatorNoTies       = importance.EstimatorNoTies
	EstimatorPermutation  = importance.EstimatorPermutation
)

// DefaultOptions returns the documented defaults: significance cutoff 0.01,
// subsample threshold 1000, permutation budget 1000, tie-corrected estimator.
func DefaultOptions() Options {
	return importance.DefaultOptions()
}

// NewScorer validates opts and returns a reusable Scorer. tracker may be nil.
func NewScorer(opts Options, tracker Tracker) (*Scorer, error) {
	return importance.NewScorer(opts, tracker)
}

// FactorImportance scores every column of the row-major (n, k) matrix X
// against y with default options and a wall-clock seed. Fix Options.Seed via
// NewScorer for reproducible results.
func FactorImportance(ctx context.Context, X [][]float64, y []float64, normalize bool) ([]float64, error) {
	s, err := NewScorer(DefaultOptions(), nil)
	if err != nil {
		return nil, err
	}
	return s.FactorImportance(ctx, X, y, normalize)
}
