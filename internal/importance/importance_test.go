package importance

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"
)

// MockTracker records scoring events for assertions.
type MockTracker struct {
	mu              sync.Mutex
	ScoredCalls     int
	DegenerateCalls int
	SubsampleCalls  int
	BatchCalls      int
	LastBatchSize   int
}

func (m *MockTracker) ColumnScored(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScoredCalls++
}

func (m *MockTracker) ColumnDegenerate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DegenerateCalls++
}

func (m *MockTracker) SubsampleApplied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubsampleCalls++
}

func (m *MockTracker) BatchCompleted(columns int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchCalls++
	m.LastBatchSize = columns
}

// buildMatrix returns a row-major (n, k) matrix from column slices.
func buildMatrix(cols ...[]float64) [][]float64 {
	n := len(cols[0])
	X := make([][]float64, n)
	for i := range X {
		row := make([]float64, len(cols))
		for j, col := range cols {
			row[j] = col[i]
		}
		X[i] = row
	}
	return X
}

func noise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()
	}
	return v
}

func testOptions() Options {
	o := DefaultOptions()
	o.Seed = 12345
	o.Workers = 2
	return o
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"zero alpha", func(o *Options) { o.Alpha = 0 }, true},
		{"alpha one", func(o *Options) { o.Alpha = 1 }, true},
		{"zero threshold", func(o *Options) { o.SubsampleThreshold = 0 }, true},
		{"negative threshold", func(o *Options) { o.SubsampleThreshold = -5 }, true},
		{"zero permutations", func(o *Options) { o.Permutations = 0 }, true},
		{"unknown estimator", func(o *Options) { o.Estimator = "bogus" }, true},
		{"empty estimator defaults", func(o *Options) { o.Estimator = "" }, false},
		{"negative workers", func(o *Options) { o.Workers = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOptions()
			tt.mutate(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactorImportance_ShapeErrors(t *testing.T) {
	t.Parallel()

	s, err := NewScorer(testOptions(), nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	ctx := context.Background()

	if _, err := s.FactorImportance(ctx, [][]float64{{1}, {2}}, []float64{1}, false); err == nil {
		t.Error("expected error for row/target length mismatch")
	}
	if _, err := s.FactorImportance(ctx, [][]float64{{1}}, []float64{1}, false); err == nil {
		t.Error("expected error for fewer than two observations")
	}
	if _, err := s.FactorImportance(ctx, [][]float64{{1, 2}, {3}}, []float64{1, 2}, false); err == nil {
		t.Error("expected error for ragged rows")
	}
	if _, err := s.FactorImportance(ctx, [][]float64{{}, {}}, []float64{1, 2}, false); err == nil {
		t.Error("expected error for zero columns")
	}
}

func TestFactorImportance_DependentColumnDominates(t *testing.T) {
	t.Parallel()

	n := 500
	y := noise(n, 1)
	informative := append([]float64(nil), y...) // y is a function of this column
	X := buildMatrix(informative, noise(n, 2), noise(n, 3))

	tracker := &MockTracker{}
	s, err := NewScorer(testOptions(), tracker)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}

	scores, err := s.FactorImportance(context.Background(), X, y, true)
	if err != nil {
		t.Fatalf("FactorImportance: %v", err)
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("normalized scores sum to %v, want 1", sum)
	}
	if scores[0] < 0.5 {
		t.Errorf("informative column scored %v, want the dominant share", scores[0])
	}
	for j := 1; j < 3; j++ {
		if scores[j] > 0.2 {
			t.Errorf("noise column %d scored %v, want near 0 after the cutoff", j, scores[j])
		}
	}
	if tracker.BatchCalls != 1 || tracker.LastBatchSize != 3 {
		t.Errorf("tracker batch calls = %d size = %d, want 1 batch of 3", tracker.BatchCalls, tracker.LastBatchSize)
	}
	if tracker.ScoredCalls != 3 {
		t.Errorf("tracker scored calls = %d, want 3", tracker.ScoredCalls)
	}
}

func TestFactorImportance_InsignificantColumnsZero(t *testing.T) {
	t.Parallel()

	n := 1000
	y := noise(n, 41)
	X := buildMatrix(noise(n, 42), noise(n, 43), noise(n, 44))

	s, err := NewScorer(testOptions(), nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	scores, err := s.FactorImportance(context.Background(), X, y, false)
	if err != nil {
		t.Fatalf("FactorImportance: %v", err)
	}

	zeros := 0
	for j, v := range scores {
		if v == 0 {
			zeros++
		}
		if v > 0.15 {
			t.Errorf("independent column %d scored %v, want < 0.15", j, v)
		}
	}
	if zeros < 2 {
		t.Errorf("only %d of 3 independent columns were zeroed by the cutoff", zeros)
	}
}

func TestFactorImportance_DegenerateTargetSkipsAll(t *testing.T) {
	t.Parallel()

	n := 100
	y := make([]float64, n) // constant target degenerates every column
	X := buildMatrix(noise(n, 7), noise(n, 8))

	tracker := &MockTracker{}
	s, err := NewScorer(testOptions(), tracker)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	scores, err := s.FactorImportance(context.Background(), X, y, true)
	if err != nil {
		t.Fatalf("FactorImportance: %v", err)
	}

	// No significant feature: normalization must leave all entries at zero.
	for j, v := range scores {
		if v != 0 {
			t.Errorf("column %d scored %v for a constant target, want 0", j, v)
		}
	}
	if tracker.DegenerateCalls != 2 {
		t.Errorf("tracker degenerate calls = %d, want 2", tracker.DegenerateCalls)
	}
	if tracker.ScoredCalls != 0 {
		t.Errorf("tracker scored calls = %d, want 0", tracker.ScoredCalls)
	}
}

func TestFactorImportance_Deterministic(t *testing.T) {
	t.Parallel()

	n := 300
	y := noise(n, 9)
	X := buildMatrix(append([]float64(nil), y...), noise(n, 10), noise(n, 11), noise(n, 12))

	run := func() []float64 {
		s, err := NewScorer(testOptions(), nil)
		if err != nil {
			t.Fatalf("NewScorer: %v", err)
		}
		scores, err := s.FactorImportance(context.Background(), X, y, true)
		if err != nil {
			t.Fatalf("FactorImportance: %v", err)
		}
		return scores
	}

	first := run()
	second := run()
	for j := range first {
		if first[j] != second[j] {
			t.Errorf("column %d differs across runs under fixed seed: %v vs %v", j, first[j], second[j])
		}
	}
}

func TestFactorImportance_SubsamplingLargeInput(t *testing.T) {
	t.Parallel()

	n := 1500 // past the default threshold of 1000
	y := noise(n, 20)
	X := buildMatrix(append([]float64(nil), y...))

	tracker := &MockTracker{}
	s, err := NewScorer(testOptions(), tracker)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	scores, err := s.FactorImportance(context.Background(), X, y, false)
	if err != nil {
		t.Fatalf("FactorImportance: %v", err)
	}

	if tracker.SubsampleCalls != 1 {
		t.Errorf("tracker subsample calls = %d, want 1", tracker.SubsampleCalls)
	}
	// Pairing survives the subsample, so the dependent column stays strong.
	if scores[0] < 0.9 {
		t.Errorf("dependent column scored %v after subsampling, want >= 0.9", scores[0])
	}
}

func TestFactorImportance_CancelledContext(t *testing.T) {
	t.Parallel()

	n := 200
	y := noise(n, 30)
	X := buildMatrix(noise(n, 31), noise(n, 32))

	s, err := NewScorer(testOptions(), nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.FactorImportance(ctx, X, y, false); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFactorImportance_EstimatorModes(t *testing.T) {
	t.Parallel()

	n := 200
	y := noise(n, 50)
	X := buildMatrix(append([]float64(nil), y...), noise(n, 51))

	for _, est := range []Estimator{EstimatorTieCorrected, EstimatorNoTies, EstimatorPermutation} {
		o := testOptions()
		o.Estimator = est
		o.Permutations = 100
		s, err := NewScorer(o, nil)
		if err != nil {
			t.Fatalf("NewScorer(%s): %v", est, err)
		}
		scores, err := s.FactorImportance(context.Background(), X, y, false)
		if err != nil {
			t.Fatalf("FactorImportance(%s): %v", est, err)
		}
		if scores[0] < 0.9 {
			t.Errorf("estimator %s: dependent column scored %v, want >= 0.9", est, scores[0])
		}
	}
}
