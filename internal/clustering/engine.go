package clustering

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/bookmark-intelligence/internal/config"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Score is the silhouette score of one candidate cluster count
type Score struct {
	K          int     `json:"k"`
	Silhouette float64 `json:"silhouette"`
}

// Engine partitions embedded bookmarks into named clusters
type Engine struct {
	settings config.ClusteringSettings
}

// NewEngine creates an engine. settings should already be merged with defaults.
func NewEngine(settings config.ClusteringSettings) *Engine {
	return &Engine{settings: settings}
}

// Cluster partitions bookmarks by the similarity of their vectors. vectors[i]
// belongs to bookmarks[i]. When k <= 0 the cluster count is chosen by silhouette
// analysis over the configured range. Clusters are returned largest first and
// their bookmark indices cover [0, len(bookmarks)) exactly once.
func (e *Engine) Cluster(vectors [][]float64, bookmarks []types.EnrichedBookmark, k int) (*types.ClusterResult, error) {
	if len(vectors) == 0 || len(bookmarks) == 0 {
		return nil, &EmptyInputError{Message: fmt.Sprintf("%d vectors, %d bookmarks", len(vectors), len(bookmarks))}
	}
	if len(vectors) != len(bookmarks) {
		return nil, &DimensionMismatchError{Message: fmt.Sprintf("%d vectors for %d bookmarks", len(vectors), len(bookmarks))}
	}
	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dims {
			return nil, &DimensionMismatchError{Message: fmt.Sprintf("vector %d has %d dimensions, expected %d", i, len(v), dims)}
		}
	}

	data := normalizeRows(vectors)
	n := len(data)

	if k <= 0 {
		var scores []Score
		k, scores = e.optimalK(data)
		for _, s := range scores {
			log.Debug().Int("k", s.K).Float64("silhouette", s.Silhouette).Msg("cluster count candidate")
		}
	}
	k = min(max(k, 1), n)

	log.Info().Int("bookmarks", n).Int("clusters", k).Msg("clustering bookmarks")

	labels := fitMiniBatch(data, kmeansParams{
		k:         k,
		batchSize: e.settings.BatchSize,
		maxIter:   e.settings.FinalMaxIter,
		restarts:  e.settings.FinalRestarts,
		seed:      uint64(e.settings.RandomState),
	})

	members := make([][]int, k)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}

	clusters := make([]types.Cluster, 0, k)
	for id, indices := range members {
		group := make([]types.EnrichedBookmark, len(indices))
		for j, idx := range indices {
			group[j] = bookmarks[idx]
		}
		name, keywords, topDomains := describeCluster(group)
		clusters = append(clusters, types.Cluster{
			ID:              id,
			Name:            name,
			Size:            len(indices),
			Keywords:        keywords,
			TopDomains:      topDomains,
			BookmarkIndices: indices,
		})
	}
	sort.SliceStable(clusters, func(i, j int) bool { return clusters[i].Size > clusters[j].Size })

	for _, c := range clusters[:min(5, len(clusters))] {
		log.Info().Int("id", c.ID).Str("name", c.Name).Int("size", c.Size).Msg("cluster")
	}

	return &types.ClusterResult{
		NClusters: k,
		Method:    types.ClusteringMethod,
		Clusters:  clusters,
		Labels:    labels,
	}, nil
}

// candidateRange clamps the configured range to counts silhouette analysis can score
func (e *Engine) candidateRange(n int) (lo, hi int) {
	lo = max(e.settings.MinClusters, 2)
	hi = min(e.settings.MaxClusters, n-1)
	return lo, hi
}

// optimalK fits every candidate count in parallel and returns the first count reaching the best score
func (e *Engine) optimalK(data [][]float64) (int, []Score) {
	n := len(data)
	lo, hi := e.candidateRange(n)
	if lo > hi {
		k := min(max(e.settings.MinClusters, 1), n)
		log.Warn().Int("bookmarks", n).Int("k", k).Msg("too few bookmarks for cluster count selection")
		return k, nil
	}

	log.Info().Int("min", lo).Int("max", hi).Msg("determining cluster count")

	sampler := newSilhouetteSampler(data, e.settings.SilhouetteSample, uint64(e.settings.RandomState))
	scores := make([]Score, hi-lo+1)

	var g errgroup.Group
	for i := range scores {
		k := lo + i
		g.Go(func() error {
			labels := fitMiniBatch(data, kmeansParams{
				k:         k,
				batchSize: e.settings.BatchSize,
				maxIter:   e.settings.SweepMaxIter,
				restarts:  e.settings.SweepRestarts,
				seed:      uint64(e.settings.RandomState),
			})
			scores[i] = Score{K: k, Silhouette: sampler.score(labels)}
			return nil
		})
	}
	_ = g.Wait()

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Silhouette > best.Silhouette {
			best = s
		}
	}

	log.Info().Int("k", best.K).Float64("silhouette", best.Silhouette).Msg("selected cluster count")
	return best.K, scores
}
