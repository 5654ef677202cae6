package types

// ClusteringMethod identifies the partitioning algorithm recorded in results
const ClusteringMethod = "minibatch_kmeans"

// Cluster is one group of semantically similar bookmarks
type Cluster struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Size            int      `json:"size"`
	Keywords        []string `json:"keywords"`
	TopDomains      []string `json:"top_domains"`
	BookmarkIndices []int    `json:"bookmark_indices"`
}

// ClusterResult is the output of the clustering stage.
// Clusters are ordered by descending size; Labels maps bookmark position to cluster ID.
type ClusterResult struct {
	NClusters int       `json:"n_clusters"`
	Method    string    `json:"method"`
	Clusters  []Cluster `json:"clusters"`
	Labels    []int     `json:"labels"`
}

// FindCluster returns the cluster with the given ID
func (r *ClusterResult) FindCluster(id int) (Cluster, bool) {
	if r == nil {
		return Cluster{}, false
	}
	for _, c := range r.Clusters {
		if c.ID == id {
			return c, true
		}
	}
	return Cluster{}, false
}

// AssignClusters copies cluster IDs and names onto the enriched bookmarks
func AssignClusters(bookmarks []EnrichedBookmark, result *ClusterResult) {
	if result == nil {
		return
	}
	for _, c := range result.Clusters {
		for _, idx := range c.BookmarkIndices {
			if idx >= 0 && idx < len(bookmarks) {
				bookmarks[idx].ClusterID = c.ID
				bookmarks[idx].ClusterName = c.Name
			}
		}
	}
}
