// Package importance scores candidate feature columns against a target by
// the generalized correlation coefficient, zeroing columns whose asymptotic
// significance does not clear the configured cutoff. Columns are independent
// and are scored concurrently, each with its own deterministic random stream.
package importance

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sebhaan/selectio/internal/xicor"
)

// Estimator selects which significance formula the scorer applies per column.
type Estimator string

const (
	// EstimatorTieCorrected uses the tie-aware asymptotic variance. Always
	// statistically valid; the default.
	EstimatorTieCorrected Estimator = "tie_corrected"
	// EstimatorNoTies uses the fixed 2/5 variance, cheaper but biased when
	// the target has repeated values.
	EstimatorNoTies Estimator = "no_ties"
	// EstimatorPermutation uses a permutation test with Options.Permutations
	// draws.
	EstimatorPermutation Estimator = "permutation"
)

// Options configures a Scorer. Zero values are filled in by Validate where a
// documented default exists.
type Options struct {
	// Alpha is the significance cutoff: columns with p > Alpha score 0.
	Alpha float64
	// SubsampleThreshold bounds per-column cost; samples larger than this
	// are reduced to a random paired subset of exactly this size.
	SubsampleThreshold int
	// Permutations is the draw budget for EstimatorPermutation.
	Permutations int
	// Estimator selects the p-value formula.
	Estimator Estimator
	// Workers caps concurrent column scoring; 0 means GOMAXPROCS.
	Workers int
	// Seed is the batch seed. Column j derives its own stream from it, so a
	// fixed seed makes the whole batch bit-reproducible regardless of
	// scheduling. 0 means seed from the wall clock.
	Seed int64
}

// DefaultOptions returns the documented defaults: cutoff 0.01, subsample
// threshold 1000, permutation budget 1000, tie-corrected estimator.
func DefaultOptions() Options {
	return Options{
		Alpha:              0.01,
		SubsampleThreshold: xicor.DefaultSubsampleThreshold,
		Permutations:       1000,
		Estimator:          EstimatorTieCorrected,
	}
}

// Validate fails fast on configuration that would otherwise surface later as
// a mid-batch computation error.
func (o *Options) Validate() error {
	if o.Alpha <= 0 || o.Alpha >= 1 {
		return fmt.Errorf("importance: alpha must be in (0, 1), got %f", o.Alpha)
	}
	if o.SubsampleThreshold <= 0 {
		return fmt.Errorf("importance: subsample threshold must be positive, got %d", o.SubsampleThreshold)
	}
	if o.Permutations <= 0 {
		return fmt.Errorf("importance: permutation count must be positive, got %d", o.Permutations)
	}
	switch o.Estimator {
	case EstimatorTieCorrected, EstimatorNoTies, EstimatorPermutation:
	case "":
		o.Estimator = EstimatorTieCorrected
	default:
		return fmt.Errorf("importance: unknown estimator %q", o.Estimator)
	}
	if o.Workers < 0 {
		return fmt.Errorf("importance: workers must be non-negative, got %d", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return nil
}

// Tracker receives scoring events. The metrics package provides a Prometheus
// implementation; a nil tracker disables tracking.
type Tracker interface {
	ColumnScored(d time.Duration)
	ColumnDegenerate()
	SubsampleApplied()
	BatchCompleted(columns int)
}

type noopTracker struct{}

func (noopTracker) ColumnScored(time.Duration) {}
func (noopTracker) ColumnDegenerate()          {}
func (noopTracker) SubsampleApplied()          {}
func (noopTracker) BatchCompleted(int)         {}

// Scorer runs FactorImportance batches with a fixed configuration.
type Scorer struct {
	opts    Options
	tracker Tracker
}

// NewScorer validates opts and returns a Scorer. tracker may be nil.
func NewScorer(opts Options, tracker Tracker) (*Scorer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = noopTracker{}
	}
	return &Scorer{opts: opts, tracker: tracker}, nil
}

// FactorImportance scores every column of X against y. X is row-major with
// shape (n, k); y has length n. Non-significant columns (p > Alpha) score
// exactly 0, degenerate columns are skipped with a warning and score 0, and
// when normalize is set the result is rescaled to sum to 1 unless every
// entry is 0. The returned error is non-nil only for invalid input shapes or
// a cancelled context; per-column failures never abort the batch.
func (s *Scorer) FactorImportance(ctx context.Context, X [][]float64, y []float64, normalize bool) ([]float64, error) {
	n := len(X)
	if n != len(y) {
		return nil, fmt.Errorf("importance: X has %d rows but y has %d values", n, len(y))
	}
	if n < 2 {
		return nil, fmt.Errorf("importance: need at least two observations, got %d", n)
	}
	k := len(X[0])
	for i, row := range X {
		if len(row) != k {
			return nil, fmt.Errorf("importance: row %d has %d columns, expected %d", i, len(row), k)
		}
	}
	if k == 0 {
		return nil, fmt.Errorf("importance: X has no columns")
	}

	scores := make([]float64, k)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Workers)
	for j := 0; j < k; j++ {
		j := j
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			col := make([]float64, n)
			for i := range col {
				col[i] = X[i][j]
			}
			score, err := s.scoreColumn(col, y, j)
			if err != nil {
				// Feature selection stays robust to a single bad column.
				log.Warn().Err(err).Int("column", j).Msg("skipping column")
				s.tracker.ColumnDegenerate()
				return nil
			}
			scores[j] = score
			s.tracker.ColumnScored(time.Since(start))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if normalize {
		var sum float64
		for _, v := range scores {
			sum += v
		}
		if sum > 0 {
			for j := range scores {
				scores[j] /= sum
			}
		}
	}

	s.tracker.BatchCompleted(k)
	return scores, nil
}

func (s *Scorer) scoreColumn(col, y []float64, j int) (float64, error) {
	// Independently seeded stream per column, derived from the batch seed so
	// concurrent scoring stays reproducible.
	rng := rand.New(rand.NewSource(s.opts.Seed + int64(j+1)*0x9E3779B9))

	engine, err := xicor.NewSubsampled(col, y, s.opts.SubsampleThreshold, rng)
	if err != nil {
		return 0, err
	}
	if engine.SampleSize() < len(col) {
		s.tracker.SubsampleApplied()
	}

	xi, err := engine.Correlation()
	if err != nil {
		return 0, err
	}

	var p float64
	switch s.opts.Estimator {
	case EstimatorNoTies:
		p, err = engine.PValueNoTies()
	case EstimatorPermutation:
		p, err = engine.PValuePermutation(s.opts.Permutations)
	default:
		p, err = engine.PValueTieCorrected()
	}
	if err != nil {
		return 0, err
	}

	if p > s.opts.Alpha {
		return 0, nil
	}
	return xi, nil
}
