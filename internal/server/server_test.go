package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bookmark-intelligence/internal/server/ratelimit"
	"github.com/jonathan/bookmark-intelligence/internal/storage"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

func enriched(title, rawURL, summary string, tags []string, cluster int) types.EnrichedBookmark {
	return types.EnrichedBookmark{
		Bookmark:    types.Bookmark{URL: rawURL, Title: title, Domain: types.ExtractDomain(rawURL)},
		Enrichment:  types.Enrichment{Summary: summary, Tags: tags},
		ClusterID:   cluster,
		ClusterName: "c",
	}
}

func seededStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store := storage.NewFileStore(t.TempDir())

	require.NoError(t, store.SaveBookmarks([]types.EnrichedBookmark{
		enriched("Docker Compose", "https://docs.docker.com/compose", "Multi-container apps", []string{"docker"}, 0),
		enriched("React Docs", "https://react.dev", "UI library", []string{"frontend", "JavaScript"}, 1),
		enriched("Kubernetes Basics", "https://kubernetes.io", "Orchestrating containers", []string{"k8s"}, 0),
		enriched("Unembedded", "https://example.com", "", nil, types.UnclusteredID),
	}))
	require.NoError(t, store.SaveClusters(&types.ClusterResult{
		NClusters: 2,
		Method:    types.ClusteringMethod,
		Clusters: []types.Cluster{
			{ID: 0, Name: "Docker & Containers", Size: 2, BookmarkIndices: []int{0, 2}},
			{ID: 1, Name: "Frontend", Size: 1, BookmarkIndices: []int{1}},
		},
		Labels: []int{0, 1, 0, -1},
	}))
	require.NoError(t, store.SaveProjects(&types.ProjectList{Projects: []types.Project{
		{Name: "Frontend Development", Source: types.SourceTechCluster, BookmarkIndices: []int{1, 99}, BookmarkCount: 1, Confidence: 0.8},
	}}))
	require.NoError(t, store.SaveFolderAnalysis(&types.FolderAnalysis{
		Summary: types.AnalysisSummary{CurrentState: types.CurrentStateSummary{TotalFolders: 4}},
	}))
	return store
}

func newTestServer(store *storage.FileStore) *Server {
	return New(Config{AIDir: store.Dir(), RateLimit: &ratelimit.Config{Enabled: false}})
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(storage.NewFileStore(t.TempDir()))
	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	empty := storage.NewFileStore(t.TempDir())
	resp := decode[StatusResponse](t, get(t, newTestServer(empty), "/ai/status"))
	assert.Equal(t, StatusNotStarted, resp.Status)

	require.NoError(t, empty.SaveJob(types.BatchJob{ID: "batch_1"}))
	resp = decode[StatusResponse](t, get(t, newTestServer(empty), "/ai/status"))
	assert.Equal(t, StatusInProgress, resp.Status)

	resp = decode[StatusResponse](t, get(t, newTestServer(seededStore(t)), "/ai/status"))
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.True(t, resp.Files["clusters"])
	assert.False(t, resp.Files["embeddings"])
}

func TestListClusters(t *testing.T) {
	rec := get(t, newTestServer(seededStore(t)), "/ai/clusters")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]json.RawMessage](t, rec)
	assert.JSONEq(t, `2`, string(body["n_clusters"]))
	assert.JSONEq(t, `"minibatch_kmeans"`, string(body["method"]))
	assert.NotContains(t, body, "labels")
}

func TestClusterBookmarks(t *testing.T) {
	s := newTestServer(seededStore(t))

	rec := get(t, s, "/ai/clusters/0/bookmarks")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ClusterBookmarksResponse](t, rec)
	assert.Equal(t, "Docker & Containers", resp.Cluster.Name)
	require.Len(t, resp.Bookmarks, 2)
	assert.Equal(t, "Docker Compose", resp.Bookmarks[0].Title)
	assert.Equal(t, "Kubernetes Basics", resp.Bookmarks[1].Title)

	rec = get(t, s, "/ai/clusters/7/bookmarks")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "cluster 7 not found")

	rec = get(t, s, "/ai/clusters/abc/bookmarks")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjects(t *testing.T) {
	s := newTestServer(seededStore(t))

	list := decode[types.ProjectList](t, get(t, s, "/ai/projects/suggested"))
	require.Len(t, list.Projects, 1)

	rec := get(t, s, "/ai/projects/"+url.PathEscape("Frontend Development")+"/bookmarks")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ProjectBookmarksResponse](t, rec)
	require.Len(t, resp.Bookmarks, 1, "out-of-range indices are skipped")
	assert.Equal(t, "React Docs", resp.Bookmarks[0].Title)

	rec = get(t, s, "/ai/projects/Nope/bookmarks")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(seededStore(t))

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"title", "/ai/search?q=docker", []string{"Docker Compose"}},
		{"summary", "/ai/search?q=CONTAINER", []string{"Docker Compose", "Kubernetes Basics"}},
		{"tag", "/ai/search?q=javascript", []string{"React Docs"}},
		{"url", "/ai/search?q=example.com", []string{"Unembedded"}},
		{"limit", "/ai/search?q=https&limit=2", []string{"Docker Compose", "React Docs"}},
		{"no match", "/ai/search?q=rust", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[SearchResponse](t, rec)
			titles := []string{}
			for _, b := range resp.Results {
				titles = append(titles, b.Title)
			}
			assert.Equal(t, tt.want, titles)
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/ai/search").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/ai/search?q=x&limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/ai/search?q=x&limit=many").Code)
}

func TestFolders(t *testing.T) {
	rec := get(t, newTestServer(seededStore(t)), "/ai/folders")
	require.Equal(t, http.StatusOK, rec.Code)
	analysis := decode[types.FolderAnalysis](t, rec)
	assert.Equal(t, 4, analysis.Summary.CurrentState.TotalFolders)
}

func TestMissingDocuments(t *testing.T) {
	s := newTestServer(storage.NewFileStore(t.TempDir()))
	for _, target := range []string{"/ai/clusters", "/ai/clusters/0/bookmarks", "/ai/projects/suggested", "/ai/search?q=go", "/ai/folders"} {
		rec := get(t, s, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Run the pipeline first", target)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(storage.NewFileStore(t.TempDir())), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRateLimited(t *testing.T) {
	s := New(Config{
		AIDir: seededStore(t).Dir(),
		RateLimit: &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  2,
			DefaultWindow: time.Hour,
		},
	})
	defer s.rateLimiter.Stop()

	for i := 0; i < 2; i++ {
		rec := get(t, s, "/ai/folders")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := get(t, s, "/ai/folders")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(&NotFoundError{Resource: "cluster", Key: "1"}))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&ValidationError{Field: "q"}))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(storage.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(assert.AnError))
	assert.Equal(t, "internal server error", publicMessage(assert.AnError))
}
