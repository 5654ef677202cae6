package clustering

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// silhouetteSampler scores labellings on a fixed subset of points. The subset and
// its pairwise distances are computed once and reused for every candidate k.
type silhouetteSampler struct {
	indices []int
	dist    [][]float64
}

func newSilhouetteSampler(data [][]float64, sampleSize int, seed uint64) *silhouetteSampler {
	n := len(data)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if sampleSize > 0 && sampleSize < n {
		rng := rand.New(rand.NewPCG(seed, 0))
		indices = rng.Perm(n)[:sampleSize]
		slices.Sort(indices)
	}

	m := len(indices)
	dist := make([][]float64, m)
	for i := range dist {
		dist[i] = make([]float64, m)
	}
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			d := floats.Distance(data[indices[i]], data[indices[j]], 2)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return &silhouetteSampler{indices: indices, dist: dist}
}

// score returns the mean silhouette coefficient of labels over the sample.
// Points alone in their cluster score 0; fewer than two clusters scores -1.
func (s *silhouetteSampler) score(labels []int) float64 {
	m := len(s.indices)
	sampleLabels := make([]int, m)
	k := 0
	for i, idx := range s.indices {
		sampleLabels[i] = labels[idx]
		k = max(k, labels[idx]+1)
	}

	sizes := make([]int, k)
	for _, l := range sampleLabels {
		sizes[l]++
	}
	present := 0
	for _, sz := range sizes {
		if sz > 0 {
			present++
		}
	}
	if present < 2 {
		return -1
	}

	total := 0.0
	sums := make([]float64, k)
	for i := 0; i < m; i++ {
		own := sampleLabels[i]
		if sizes[own] < 2 {
			continue
		}
		clear(sums)
		for j := 0; j < m; j++ {
			if j != i {
				sums[sampleLabels[j]] += s.dist[i][j]
			}
		}

		a := sums[own] / float64(sizes[own]-1)
		b := -1.0
		for c, sz := range sizes {
			if c == own || sz == 0 {
				continue
			}
			if mean := sums[c] / float64(sz); b < 0 || mean < b {
				b = mean
			}
		}
		if denom := max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(m)
}
