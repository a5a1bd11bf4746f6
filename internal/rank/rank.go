// Package rank implements the ordinal and max-based rank transforms used by
// the dependence engine. All functions are pure; randomness is taken from an
// explicit *rand.Rand so callers control reproducibility.
package rank

import (
	"math/rand"
	"sort"
)

// Ordinal returns the 1-based ordinal ranks of v, a permutation of 1..n.
// Ties are broken by a uniformly random permutation of the tied positions,
// not by original array order: the positions of v are shuffled first, the
// shuffled copy is ranked with a strict ordinal method, and the result is
// mapped back to the original index order. A first-seen tie-break here would
// bias the correlation statistic under ties.
func Ordinal(v []float64, rng *rand.Rand) []int {
	n := len(v)
	perm := rng.Perm(n)

	shuffled := make([]float64, n)
	for i, p := range perm {
		shuffled[i] = v[p]
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return shuffled[idx[a]] < shuffled[idx[b]]
	})

	// ranks[i] is the strict ordinal rank of shuffled[i]
	ranks := make([]int, n)
	for r, i := range idx {
		ranks[i] = r + 1
	}

	out := make([]int, n)
	for i, p := range perm {
		out[p] = ranks[i]
	}
	return out
}

// MaxScaled returns, for each index i, the number of j with v[j] <= v[i]
// divided by n. Tied elements all receive the rank of the largest member of
// their tie group, so values lie in (0,1]. A constant sequence yields 1.0
// everywhere.
func MaxScaled(v []float64) []float64 {
	n := len(v)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return v[idx[a]] < v[idx[b]]
	})

	out := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && v[idx[j]] == v[idx[i]] {
			j++
		}
		// j is one past the tie group, so j is the max rank of the group
		r := float64(j) / float64(n)
		for k := i; k < j; k++ {
			out[idx[k]] = r
		}
		i = j
	}
	return out
}

// MaxScaledDesc is MaxScaled applied to the negated sequence: for each i, the
// number of j with v[j] >= v[i], divided by n.
func MaxScaledDesc(v []float64) []float64 {
	neg := make([]float64, len(v))
	for i, x := range v {
		neg[i] = -x
	}
	return MaxScaled(neg)
}
