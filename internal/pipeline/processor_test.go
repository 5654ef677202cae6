package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bookmark-intelligence/internal/annotation"
	"github.com/jonathan/bookmark-intelligence/internal/config"
	"github.com/jonathan/bookmark-intelligence/internal/embedding"
	"github.com/jonathan/bookmark-intelligence/internal/llm"
	"github.com/jonathan/bookmark-intelligence/internal/pipeline/steps"
	"github.com/jonathan/bookmark-intelligence/internal/storage"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// batchProvider completes every job immediately with a fixed output file
// unless pending is set. Job IDs count up from batch_1.
type batchProvider struct {
	mu        sync.Mutex
	output    []byte
	submits   int
	pending   bool
	createErr error
}

func (p *batchProvider) UploadFile(context.Context, string, []byte) (string, error) {
	return "file-in", nil
}

func (p *batchProvider) CreateBatch(_ context.Context, inputFileID, _, _ string) (embedding.JobStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return embedding.JobStatus{}, p.createErr
	}
	p.submits++
	return embedding.JobStatus{ID: fmt.Sprintf("batch_%d", p.submits), Status: embedding.StatusValidating, InputFileID: inputFileID}, nil
}

func (p *batchProvider) RetrieveBatch(_ context.Context, jobID string) (embedding.JobStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending {
		return embedding.JobStatus{ID: jobID, Status: embedding.StatusInProgress}, nil
	}
	return embedding.JobStatus{ID: jobID, Status: embedding.StatusCompleted, OutputFileID: "file-out"}, nil
}

func (p *batchProvider) setPending(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = v
}

func (p *batchProvider) submitted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submits
}

func (p *batchProvider) DownloadFile(context.Context, string) ([]byte, error) {
	return p.output, nil
}

// topicClient answers with a Docker or React annotation depending on the prompt
type topicClient struct{}

func (topicClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	if strings.Contains(prompt, "Docker") {
		return `{"tags":["docker","containers"],"summary":"Containers.","content_type":"documentation","primary_technology":"Docker","skill_level":"intermediate","use_cases":[],"key_topics":[],"value_proposition":"","folder_recommendation":"Development > Docker","priority":"high","related_keywords":[],"actionability":""}`, nil
	}
	return `{"tags":["react","frontend"],"summary":"UI.","content_type":"tutorial","primary_technology":"React","skill_level":"beginner","use_cases":[],"key_topics":[],"value_proposition":"","folder_recommendation":"Development > Frontend","priority":"medium","related_keywords":[],"actionability":""}`, nil
}

func (topicClient) GetModel(llm.ModelTier) string { return "fake" }
func (topicClient) Close() error                  { return nil }

// slowClient answers like topicClient after a delay, honoring cancellation
type slowClient struct {
	topicClient
	delay time.Duration
}

func (c slowClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.delay):
	}
	return c.topicClient.GenerateJSON(ctx, prompt, tier)
}

var otherBookmarks = []map[string]any{
	{"url": "https://go.dev/doc/", "title": "Go Docs", "folder_path": "Bookmarks bar > Go"},
	{"url": "https://pkg.go.dev/", "title": "Go Packages", "folder_path": "Bookmarks bar > Go"},
	{"url": "https://kubernetes.io/docs/", "title": "Kubernetes", "folder_path": "Bookmarks bar > Ops"},
}

var testBookmarks = []map[string]any{
	{"url": "https://docs.docker.com/compose/", "title": "Docker Compose", "folder_path": "Bookmarks bar > Dev"},
	{"url": "https://docs.docker.com/engine/", "title": "Docker Engine", "folder_path": "Bookmarks bar > Dev"},
	{"url": "https://hub.docker.com/", "title": "Docker Hub", "folder_path": "Bookmarks bar > Dev"},
	{"url": "https://react.dev/learn", "title": "React Learn", "folder_path": []string{"Bookmarks bar", "Web"}},
	{"url": "https://react.dev/reference", "title": "React Reference", "folder_path": []string{"Bookmarks bar", "Web"}},
	{"url": "https://www.reactrouter.com/", "title": "React Router"},
}

// vectors for all but the last bookmark
func batchOutput() []byte {
	vecs := [][]float64{{1, 0, 0}, {0.9, 0.1, 0}, {1, 0.05, 0}, {0, 1, 0}, {0.1, 0.9, 0}}
	var buf bytes.Buffer
	for i, v := range vecs {
		b, _ := json.Marshal(v)
		fmt.Fprintf(&buf, `{"custom_id":"bookmark-%d","response":{"status_code":200,"body":{"data":[{"embedding":%s}]}}}`+"\n", i, b)
	}
	return buf.Bytes()
}

func writeInput(t *testing.T, entries []map[string]any) string {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bookmarks_flat.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.Embedding.PollInterval = time.Millisecond
	s.Embedding.Timeout = time.Second
	s.Tagging.Concurrency = 2
	return s
}

func newTestProcessor(t *testing.T, provider *batchProvider) (*Processor, *storage.FileStore) {
	t.Helper()
	settings := testSettings()
	store := storage.NewFileStore(t.TempDir())
	p := NewProcessor(settings, store,
		WithEmbedder(embedding.NewManager(provider, store, settings.Embedding)),
		WithAnnotator(annotation.NewService(topicClient{}, settings.Tagging.Concurrency)),
	)
	return p, store
}

func TestRun_AllStage(t *testing.T) {
	provider := &batchProvider{output: batchOutput()}
	p, store := newTestProcessor(t, provider)

	var (
		mu     sync.Mutex
		events []ProgressEvent
	)
	result, err := p.Run(context.Background(), RunOptions{
		InputPath: writeInput(t, testBookmarks),
		Stage:     steps.StageAll,
		Clusters:  2,
		OnProgress: func(e ProgressEvent) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Bookmarks, 6)
	assert.Equal(t, 2, result.Clusters.NClusters)
	require.Len(t, result.Clusters.Labels, 6)
	assert.Equal(t, types.UnclusteredID, result.Clusters.Labels[5])
	assert.Equal(t, types.UnclusteredID, result.Bookmarks[5].ClusterID)

	docker := result.Clusters.Labels[0]
	assert.Equal(t, docker, result.Clusters.Labels[1])
	assert.Equal(t, docker, result.Clusters.Labels[2])
	assert.NotEqual(t, docker, result.Clusters.Labels[3])
	assert.Equal(t, result.Clusters.Labels[3], result.Clusters.Labels[4])

	var covered []int
	for _, c := range result.Clusters.Clusters {
		covered = append(covered, c.BookmarkIndices...)
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, covered)

	assert.Equal(t, "docs.docker.com", result.Bookmarks[0].Domain)
	assert.Equal(t, "reactrouter.com", result.Bookmarks[5].Domain)
	assert.Equal(t, "Docker", result.Bookmarks[0].PrimaryTechnology)

	for _, name := range []string{storage.EmbeddingsFile, storage.EnrichmentsFile, storage.BookmarksFile, storage.ClustersFile, storage.ProjectsFile, storage.FoldersFile} {
		assert.FileExists(t, store.Path(name))
	}

	saved, err := store.LoadClusters()
	require.NoError(t, err)
	assert.Equal(t, result.Clusters.Labels, saved.Labels)

	stages := map[string]bool{}
	for _, e := range events {
		stages[e.Stage] = true
	}
	assert.True(t, stages[steps.StageEmbed])
	assert.True(t, stages[steps.StageTag])
	assert.True(t, stages[steps.StageCluster])
	assert.Equal(t, 1, provider.submitted())

	jobID, err := store.LoadJobID()
	require.NoError(t, err)
	assert.Empty(t, jobID)
}

func TestRun_StagesFromStore(t *testing.T) {
	provider := &batchProvider{output: batchOutput()}
	p, store := newTestProcessor(t, provider)
	input := writeInput(t, testBookmarks)
	ctx := context.Background()

	_, err := p.Run(ctx, RunOptions{InputPath: input, Stage: steps.StageCluster})
	var depErr *steps.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.ElementsMatch(t, []string{storage.EmbeddingsFile, storage.EnrichmentsFile}, depErr.MissingDependencies)

	res, err := p.Run(ctx, RunOptions{InputPath: input, Stage: steps.StageEmbed})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Embeddings.Len())

	// a retrieved job is forgotten, so the next embed run starts over
	jobID, err := store.LoadJobID()
	require.NoError(t, err)
	assert.Empty(t, jobID)

	_, err = p.Run(ctx, RunOptions{InputPath: input, Stage: steps.StageEmbed})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.submitted())

	res, err = p.Run(ctx, RunOptions{InputPath: input, Stage: steps.StageTag})
	require.NoError(t, err)
	assert.Len(t, res.Enrichments, 6)

	res, err = p.Run(ctx, RunOptions{InputPath: input, Stage: steps.StageCluster, Clusters: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Clusters.NClusters)
	assert.NotNil(t, res.Projects)
	assert.NotNil(t, res.Folders)
}

// newShortWaitProcessor gives up waiting on the batch job after a few polls
func newShortWaitProcessor(t *testing.T, provider *batchProvider) (*Processor, *storage.FileStore) {
	t.Helper()
	settings := testSettings()
	settings.Embedding.Timeout = 20 * time.Millisecond
	store := storage.NewFileStore(t.TempDir())
	p := NewProcessor(settings, store,
		WithEmbedder(embedding.NewManager(provider, store, settings.Embedding)),
		WithAnnotator(annotation.NewService(topicClient{}, settings.Tagging.Concurrency)),
	)
	return p, store
}

func TestRun_ResumesPendingJobForSameExport(t *testing.T) {
	provider := &batchProvider{output: batchOutput(), pending: true}
	p, store := newShortWaitProcessor(t, provider)
	input := writeInput(t, testBookmarks)
	ctx := context.Background()

	_, err := p.Run(ctx, RunOptions{InputPath: input, Stage: steps.StageEmbed})
	var timeoutErr *embedding.JobTimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	jobID, err := store.LoadJobID()
	require.NoError(t, err)
	assert.Equal(t, "batch_1", jobID)

	provider.setPending(false)
	res, err := p.Run(ctx, RunOptions{InputPath: input, Stage: steps.StageEmbed})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.submitted())

	bookmarks, err := LoadBookmarks(input)
	require.NoError(t, err)
	assert.Equal(t, types.Fingerprint(bookmarks), res.Embeddings.InputHash)

	jobID, err = store.LoadJobID()
	require.NoError(t, err)
	assert.Empty(t, jobID)
}

func TestRun_DifferentExportNeverReusesJob(t *testing.T) {
	provider := &batchProvider{output: batchOutput()}
	p, store := newShortWaitProcessor(t, provider)
	ctx := context.Background()

	_, err := p.Run(ctx, RunOptions{InputPath: writeInput(t, testBookmarks), Stage: steps.StageAll, Clusters: 2})
	require.NoError(t, err)
	require.Equal(t, 1, provider.submitted())

	other := writeInput(t, otherBookmarks)
	res, err := p.Run(ctx, RunOptions{InputPath: other, Stage: steps.StageAll, Clusters: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.submitted())

	bookmarks, err := LoadBookmarks(other)
	require.NoError(t, err)
	assert.Equal(t, types.Fingerprint(bookmarks), res.Embeddings.InputHash)
	assert.Equal(t, "Go Docs", res.Bookmarks[0].Title)

	// a job left pending for one export is not resumed for another
	provider.setPending(true)
	_, err = p.Run(ctx, RunOptions{InputPath: writeInput(t, testBookmarks), Stage: steps.StageEmbed})
	var timeoutErr *embedding.JobTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	pending, err := store.LoadJobID()
	require.NoError(t, err)
	assert.Equal(t, "batch_3", pending)

	provider.setPending(false)
	_, err = p.Run(ctx, RunOptions{InputPath: other, Stage: steps.StageEmbed})
	require.NoError(t, err)
	assert.Equal(t, 4, provider.submitted())
}

func TestRun_ClusterRejectsDocumentsFromOtherExport(t *testing.T) {
	p, _ := newTestProcessor(t, &batchProvider{output: batchOutput()})
	ctx := context.Background()
	original := writeInput(t, testBookmarks)
	other := writeInput(t, otherBookmarks)

	_, err := p.Run(ctx, RunOptions{InputPath: original, Stage: steps.StageEmbed})
	require.NoError(t, err)
	_, err = p.Run(ctx, RunOptions{InputPath: original, Stage: steps.StageTag})
	require.NoError(t, err)

	_, err = p.Run(ctx, RunOptions{InputPath: other, Stage: steps.StageCluster})
	var stale *StaleInputError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, storage.EnrichmentsFile, stale.Document)

	_, err = p.Run(ctx, RunOptions{InputPath: other, Stage: steps.StageTag})
	require.NoError(t, err)

	_, err = p.Run(ctx, RunOptions{InputPath: other, Stage: steps.StageCluster})
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, storage.EmbeddingsFile, stale.Document)
	assert.Contains(t, err.Error(), "rerun the embed stage")
}

func TestRun_AllKeepsAnnotationsWhenEmbedFails(t *testing.T) {
	provider := &batchProvider{output: batchOutput(), createErr: errors.New("401 unauthorized")}
	settings := testSettings()
	store := storage.NewFileStore(t.TempDir())
	p := NewProcessor(settings, store,
		WithEmbedder(embedding.NewManager(provider, store, settings.Embedding)),
		WithAnnotator(annotation.NewService(slowClient{delay: 10 * time.Millisecond}, settings.Tagging.Concurrency)),
	)
	input := writeInput(t, testBookmarks)

	_, err := p.Run(context.Background(), RunOptions{InputPath: input, Stage: steps.StageAll})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding stage failed")
	assert.False(t, errors.Is(err, context.Canceled))

	enrichments, inputHash, err := store.LoadEnrichments()
	require.NoError(t, err)
	assert.Len(t, enrichments, 6)
	bookmarks, err := LoadBookmarks(input)
	require.NoError(t, err)
	assert.Equal(t, types.Fingerprint(bookmarks), inputHash)
}

func TestRun_ClusterRejectsStaleEnrichments(t *testing.T) {
	p, store := newTestProcessor(t, &batchProvider{output: batchOutput()})
	require.NoError(t, store.SaveEmbeddings(&types.EmbeddingSet{Indices: []int{0}, Vectors: [][]float64{{1, 0}}}))
	require.NoError(t, store.SaveEnrichments("", []types.Enrichment{{}}))

	_, err := p.Run(context.Background(), RunOptions{InputPath: writeInput(t, testBookmarks), Stage: steps.StageCluster})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrichments cover 1 of 6 bookmarks")
}

func TestRun_MissingProviders(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())
	p := NewProcessor(testSettings(), store)
	input := writeInput(t, testBookmarks)

	_, err := p.Run(context.Background(), RunOptions{InputPath: input, Stage: steps.StageTag})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generative model client")

	_, err = p.Run(context.Background(), RunOptions{InputPath: input, Stage: steps.StageEmbed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding provider")
}

func TestRun_UnknownStage(t *testing.T) {
	p, _ := newTestProcessor(t, &batchProvider{})
	_, err := p.Run(context.Background(), RunOptions{InputPath: writeInput(t, testBookmarks), Stage: "render"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestRun_CancelledAnnotation(t *testing.T) {
	p, _ := newTestProcessor(t, &batchProvider{output: batchOutput()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, RunOptions{InputPath: writeInput(t, testBookmarks), Stage: steps.StageTag})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadBookmarks(t *testing.T) {
	bookmarks, err := LoadBookmarks(writeInput(t, testBookmarks))
	require.NoError(t, err)
	require.Len(t, bookmarks, 6)
	assert.Equal(t, types.FolderPath{"Bookmarks bar", "Dev"}, bookmarks[0].FolderPath)
	assert.Equal(t, types.FolderPath{"Bookmarks bar", "Web"}, bookmarks[3].FolderPath)
	assert.NotNil(t, bookmarks[5].FolderPath)
	assert.Empty(t, bookmarks[5].FolderPath)
	assert.Equal(t, "hub.docker.com", bookmarks[2].Domain)

	_, err = LoadBookmarks(writeInput(t, []map[string]any{{"title": "no url"}}))
	require.Error(t, err)

	_, err = LoadBookmarks(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestAlignEmbeddings(t *testing.T) {
	set := &types.EmbeddingSet{
		Model:   "m",
		Indices: []int{0, 2, 7},
		Vectors: [][]float64{{1}, {2}, {3}},
	}
	out := alignEmbeddings(set, 3)
	assert.Equal(t, []int{0, 2}, out.Indices)
	assert.Equal(t, [][]float64{{1}, {2}}, out.Vectors)
	assert.Equal(t, "m", out.Model)

	assert.Equal(t, 0, alignEmbeddings(nil, 3).Len())
}

func TestRemapClusters(t *testing.T) {
	result := &types.ClusterResult{
		NClusters: 2,
		Clusters: []types.Cluster{
			{ID: 0, Size: 2, BookmarkIndices: []int{0, 2}},
			{ID: 1, Size: 1, BookmarkIndices: []int{1}},
		},
		Labels: []int{0, 1, 0},
	}
	RemapClusters(result, []int{1, 3, 4}, 5)

	assert.Equal(t, []int{1, 4}, result.Clusters[0].BookmarkIndices)
	assert.Equal(t, []int{3}, result.Clusters[1].BookmarkIndices)
	assert.Equal(t, []int{-1, 0, -1, 1, 0}, result.Labels)
}
