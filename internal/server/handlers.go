package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/bookmark-intelligence/internal/storage"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 1000
)

// Processing states reported by /ai/status
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// StatusResponse represents the response for /ai/status
type StatusResponse struct {
	Status    string                 `json:"status"`
	Files     map[string]bool        `json:"files"`
	Documents []storage.DocumentInfo `json:"documents"`
}

// ClusterBookmarksResponse represents the response for /ai/clusters/{id}/bookmarks
type ClusterBookmarksResponse struct {
	Cluster   types.Cluster            `json:"cluster"`
	Bookmarks []types.EnrichedBookmark `json:"bookmarks"`
}

// ProjectBookmarksResponse represents the response for /ai/projects/{name}/bookmarks
type ProjectBookmarksResponse struct {
	Project   types.Project            `json:"project"`
	Bookmarks []types.EnrichedBookmark `json:"bookmarks"`
}

// SearchResponse represents the response for /ai/search
type SearchResponse struct {
	Query   string                   `json:"query"`
	Count   int                      `json:"count"`
	Results []types.EnrichedBookmark `json:"results"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports which documents the pipeline has produced
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	docs := s.store.Status()
	exists := make(map[string]bool, len(docs))
	for _, d := range docs {
		exists[d.Name] = d.Exists
	}

	status := StatusNotStarted
	switch {
	case exists[storage.BookmarksFile] && exists[storage.ClustersFile]:
		status = StatusCompleted
	case exists[storage.EmbeddingsFile] || exists[storage.EnrichmentsFile] || exists[storage.BatchJobFile]:
		status = StatusInProgress
	}

	s.jsonResponse(w, http.StatusOK, StatusResponse{
		Status: status,
		Files: map[string]bool{
			"embeddings":   exists[storage.EmbeddingsFile],
			"enrichments":  exists[storage.EnrichmentsFile],
			"bookmarks_ai": exists[storage.BookmarksFile],
			"clusters":     exists[storage.ClustersFile],
			"projects":     exists[storage.ProjectsFile],
			"folders":      exists[storage.FoldersFile],
		},
		Documents: docs,
	})
}

func (s *Server) handleListClusters(w http.ResponseWriter, _ *http.Request) {
	result, err := s.store.LoadClusters()
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	// labels are per-bookmark and only useful to the pipeline
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"n_clusters": result.NClusters,
		"method":     result.Method,
		"clusters":   result.Clusters,
	})
}

func (s *Server) handleClusterBookmarks(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ValidationError{Field: "id", Message: "must be an integer"})
		return
	}

	result, err := s.store.LoadClusters()
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	cluster, ok := result.FindCluster(id)
	if !ok {
		s.errorResponse(w, &NotFoundError{Resource: "cluster", Key: strconv.Itoa(id)})
		return
	}

	bookmarks, err := s.store.LoadBookmarks()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	members := make([]types.EnrichedBookmark, 0, cluster.Size)
	for _, b := range bookmarks {
		if b.ClusterID == id {
			members = append(members, b)
		}
	}
	s.jsonResponse(w, http.StatusOK, ClusterBookmarksResponse{Cluster: cluster, Bookmarks: members})
}

func (s *Server) handleSuggestedProjects(w http.ResponseWriter, _ *http.Request) {
	projects, err := s.store.LoadProjects()
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, projects)
}

func (s *Server) handleProjectBookmarks(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	projects, err := s.store.LoadProjects()
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	project, ok := projects.FindProject(name)
	if !ok {
		s.errorResponse(w, &NotFoundError{Resource: "project", Key: "'" + name + "'"})
		return
	}

	bookmarks, err := s.store.LoadBookmarks()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	members := make([]types.EnrichedBookmark, 0, len(project.BookmarkIndices))
	for _, idx := range project.BookmarkIndices {
		if idx >= 0 && idx < len(bookmarks) {
			members = append(members, bookmarks[idx])
		}
	}
	s.jsonResponse(w, http.StatusOK, ProjectBookmarksResponse{Project: project, Bookmarks: members})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.errorResponse(w, &ValidationError{Field: "q", Message: "is required"})
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			s.errorResponse(w, &ValidationError{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(maxSearchLimit)})
			return
		}
		limit = n
	}

	bookmarks, err := s.store.LoadBookmarks()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	results := Search(bookmarks, query, limit)
	s.jsonResponse(w, http.StatusOK, SearchResponse{Query: query, Count: len(results), Results: results})
}

func (s *Server) handleFolders(w http.ResponseWriter, _ *http.Request) {
	analysis, err := s.store.LoadFolderAnalysis()
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

// Search returns up to limit bookmarks whose title, url, summary or any tag
// contains query, case-insensitively, in document order.
func Search(bookmarks []types.EnrichedBookmark, query string, limit int) []types.EnrichedBookmark {
	q := strings.ToLower(query)
	results := make([]types.EnrichedBookmark, 0, min(limit, len(bookmarks)))
	for _, b := range bookmarks {
		if len(results) >= limit {
			break
		}
		if matches(b, q) {
			results = append(results, b)
		}
	}
	return results
}

func matches(b types.EnrichedBookmark, q string) bool {
	for _, field := range []string{b.Title, b.URL, b.Summary} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range b.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
