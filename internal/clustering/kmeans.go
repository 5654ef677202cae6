package clustering

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// kmeansParams configures one mini-batch k-means fit
type kmeansParams struct {
	k         int
	batchSize int
	maxIter   int
	restarts  int
	seed      uint64
}

// convergenceTol stops a restart early once no center moves more than this (squared)
const convergenceTol = 1e-10

// normalizeRows returns L2-normalized copies of the vectors. Zero vectors stay zero.
func normalizeRows(vectors [][]float64) [][]float64 {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		copy(row, v)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		out[i] = row
	}
	return out
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// nearest returns the index of the closest center and its squared distance
func nearest(x []float64, centers [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(x, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

// fitMiniBatch runs mini-batch k-means restarts times and keeps the labelling
// with the lowest inertia. Every cluster in the result is non-empty when k <= len(data).
func fitMiniBatch(data [][]float64, p kmeansParams) []int {
	var (
		bestLabels  []int
		bestInertia = math.Inf(1)
	)
	restarts := max(p.restarts, 1)
	for r := 0; r < restarts; r++ {
		rng := rand.New(rand.NewPCG(p.seed, uint64(r)+1))
		centers := initPlusPlus(data, p.k, p.batchSize, rng)
		runMiniBatch(data, centers, p, rng)

		labels := assign(data, centers)
		fillEmptyClusters(data, centers, labels)
		inertia := 0.0
		for i, x := range data {
			inertia += sqDist(x, centers[labels[i]])
		}

		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}
	return bestLabels
}

// initPlusPlus picks k seeds by D² sampling over a random subset of the data
func initPlusPlus(data [][]float64, k, batchSize int, rng *rand.Rand) [][]float64 {
	n := len(data)
	pool := n
	if limit := max(3*batchSize, 3*k); limit < n {
		pool = limit
	}
	candidates := rng.Perm(n)[:pool]

	centers := make([][]float64, 0, k)
	first := data[candidates[rng.IntN(pool)]]
	centers = append(centers, append([]float64(nil), first...))

	dist := make([]float64, pool)
	for i, idx := range candidates {
		dist[i] = sqDist(data[idx], centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(dist)
		pick := 0
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 {
					pick = i
					break
				}
				pick = i
			}
		} else {
			pick = rng.IntN(pool)
		}

		center := append([]float64(nil), data[candidates[pick]]...)
		centers = append(centers, center)
		for i, idx := range candidates {
			if d := sqDist(data[idx], center); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centers
}

// runMiniBatch applies per-center learning-rate updates from random batches
func runMiniBatch(data [][]float64, centers [][]float64, p kmeansParams, rng *rand.Rand) {
	n := len(data)
	batch := min(max(p.batchSize, 1), n)
	counts := make([]float64, len(centers))
	prev := make([]float64, len(centers[0]))

	for iter := 0; iter < p.maxIter; iter++ {
		idx := make([]int, batch)
		owner := make([]int, batch)
		for b := range idx {
			idx[b] = rng.IntN(n)
			owner[b], _ = nearest(data[idx[b]], centers)
		}

		maxShift := 0.0
		for b, i := range idx {
			c := owner[b]
			copy(prev, centers[c])
			counts[c]++
			eta := 1 / counts[c]
			floats.Scale(1-eta, centers[c])
			floats.AddScaled(centers[c], eta, data[i])
			if shift := sqDist(prev, centers[c]); shift > maxShift {
				maxShift = shift
			}
		}
		if maxShift < convergenceTol {
			return
		}
	}
}

// assign labels every point with its nearest center
func assign(data [][]float64, centers [][]float64) []int {
	labels := make([]int, len(data))
	for i, x := range data {
		labels[i], _ = nearest(x, centers)
	}
	return labels
}

// fillEmptyClusters moves the point farthest from its center into each empty cluster
func fillEmptyClusters(data [][]float64, centers [][]float64, labels []int) {
	sizes := make([]int, len(centers))
	for _, l := range labels {
		sizes[l]++
	}
	for c := range centers {
		if sizes[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, x := range data {
			if sizes[labels[i]] < 2 {
				continue
			}
			if d := sqDist(x, centers[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}
		sizes[labels[far]]--
		labels[far] = c
		sizes[c]++
		copy(centers[c], data[far])
	}
}
