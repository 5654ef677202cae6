package types

// EmbeddingSet holds the vectors that survived a batch embedding run.
// Indices[i] is the position in the bookmark list that Vectors[i] belongs to;
// Indices is strictly ascending. InputHash is the Fingerprint of the export
// the indices refer to.
type EmbeddingSet struct {
	Model     string      `json:"model,omitempty"`
	InputHash string      `json:"input_hash,omitempty"`
	Indices   []int       `json:"indices"`
	Vectors   [][]float64 `json:"vectors"`
}

// Len returns the number of embedded bookmarks
func (s *EmbeddingSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Vectors)
}

// Dimensions returns the vector width, or 0 for an empty set
func (s *EmbeddingSet) Dimensions() int {
	if s.Len() == 0 {
		return 0
	}
	return len(s.Vectors[0])
}

// Subset returns the bookmarks that have an embedding, in vector order
func (s *EmbeddingSet) Subset(bookmarks []EnrichedBookmark) []EnrichedBookmark {
	out := make([]EnrichedBookmark, 0, s.Len())
	for _, idx := range s.Indices {
		if idx >= 0 && idx < len(bookmarks) {
			out = append(out, bookmarks[idx])
		}
	}
	return out
}
