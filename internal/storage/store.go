// Package storage persists pipeline documents as JSON files in the AI output directory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Document file names inside the AI directory
const (
	BookmarksFile   = "bookmarks_ai.json"
	ClustersFile    = "clusters.json"
	ProjectsFile    = "projects_suggested.json"
	FoldersFile     = "folder_recommendations.json"
	EmbeddingsFile  = "embeddings.json"
	EnrichmentsFile = "enrichments.json"
	BatchInputFile  = "batch_embeddings_input.jsonl"
	BatchJobFile    = "batch_job.json"
)

// ErrNotFound is returned when a requested document has not been written yet
var ErrNotFound = errors.New("document not found")

// FileStore reads and writes pipeline documents under a single directory
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the absolute location of a document file
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

type bookmarksDocument struct {
	Bookmarks []types.EnrichedBookmark `json:"bookmarks"`
}

type enrichmentsDocument struct {
	InputHash   string             `json:"input_hash,omitempty"`
	Enrichments []types.Enrichment `json:"enrichments"`
}

// SaveBookmarks writes the enriched bookmark list
func (s *FileStore) SaveBookmarks(bookmarks []types.EnrichedBookmark) error {
	return s.writeJSON(BookmarksFile, bookmarksDocument{Bookmarks: bookmarks})
}

// LoadBookmarks reads the enriched bookmark list
func (s *FileStore) LoadBookmarks() ([]types.EnrichedBookmark, error) {
	var doc bookmarksDocument
	if err := s.readJSON(BookmarksFile, &doc); err != nil {
		return nil, err
	}
	return doc.Bookmarks, nil
}

// SaveEnrichments writes the per-bookmark enrichments produced by the tag stage
// together with the fingerprint of the export they were computed for
func (s *FileStore) SaveEnrichments(inputHash string, enrichments []types.Enrichment) error {
	return s.writeJSON(EnrichmentsFile, enrichmentsDocument{InputHash: inputHash, Enrichments: enrichments})
}

// LoadEnrichments reads enrichments written by SaveEnrichments and their input fingerprint
func (s *FileStore) LoadEnrichments() ([]types.Enrichment, string, error) {
	var doc enrichmentsDocument
	if err := s.readJSON(EnrichmentsFile, &doc); err != nil {
		return nil, "", err
	}
	return doc.Enrichments, doc.InputHash, nil
}

// SaveClusters writes the cluster result
func (s *FileStore) SaveClusters(result *types.ClusterResult) error {
	return s.writeJSON(ClustersFile, result)
}

// LoadClusters reads the cluster result
func (s *FileStore) LoadClusters() (*types.ClusterResult, error) {
	var result types.ClusterResult
	if err := s.readJSON(ClustersFile, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveProjects writes the project suggestions
func (s *FileStore) SaveProjects(projects *types.ProjectList) error {
	return s.writeJSON(ProjectsFile, projects)
}

// LoadProjects reads the project suggestions
func (s *FileStore) LoadProjects() (*types.ProjectList, error) {
	var projects types.ProjectList
	if err := s.readJSON(ProjectsFile, &projects); err != nil {
		return nil, err
	}
	return &projects, nil
}

// SaveFolderAnalysis writes the folder reorganization analysis
func (s *FileStore) SaveFolderAnalysis(analysis *types.FolderAnalysis) error {
	return s.writeJSON(FoldersFile, analysis)
}

// LoadFolderAnalysis reads the folder reorganization analysis
func (s *FileStore) LoadFolderAnalysis() (*types.FolderAnalysis, error) {
	var analysis types.FolderAnalysis
	if err := s.readJSON(FoldersFile, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// SaveEmbeddings writes the retrieved vectors with their bookmark indices
func (s *FileStore) SaveEmbeddings(set *types.EmbeddingSet) error {
	return s.writeJSON(EmbeddingsFile, set)
}

// LoadEmbeddings reads vectors written by SaveEmbeddings
func (s *FileStore) LoadEmbeddings() (*types.EmbeddingSet, error) {
	var set types.EmbeddingSet
	if err := s.readJSON(EmbeddingsFile, &set); err != nil {
		return nil, err
	}
	if len(set.Indices) != len(set.Vectors) {
		return nil, fmt.Errorf("%s is corrupt: %d indices for %d vectors", EmbeddingsFile, len(set.Indices), len(set.Vectors))
	}
	return &set, nil
}

// SaveBatchInput keeps the JSONL payload that was uploaded for the embedding job
func (s *FileStore) SaveBatchInput(data []byte) error {
	return s.writeFile(BatchInputFile, data)
}

// SaveJob records a submitted embedding job for later resumption
func (s *FileStore) SaveJob(job types.BatchJob) error {
	return s.writeJSON(BatchJobFile, job)
}

// LoadJob returns the recorded embedding job, or nil when none is pending
func (s *FileStore) LoadJob() (*types.BatchJob, error) {
	var job types.BatchJob
	if err := s.readJSON(BatchJobFile, &job); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if job.ID == "" {
		return nil, nil
	}
	return &job, nil
}

// LoadJobID returns the pending embedding job ID, or "" when none is recorded
func (s *FileStore) LoadJobID() (string, error) {
	job, err := s.LoadJob()
	if err != nil || job == nil {
		return "", err
	}
	return job.ID, nil
}

// ClearJob forgets the pending embedding job. Clearing an absent job is not an error.
func (s *FileStore) ClearJob() error {
	if err := os.Remove(s.Path(BatchJobFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", BatchJobFile, err)
	}
	return nil
}

// DocumentInfo describes one stored document
type DocumentInfo struct {
	Name      string    `json:"name"`
	Exists    bool      `json:"exists"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Status reports which pipeline documents are present
func (s *FileStore) Status() []DocumentInfo {
	names := []string{BookmarksFile, ClustersFile, ProjectsFile, FoldersFile, EmbeddingsFile, EnrichmentsFile, BatchJobFile}
	out := make([]DocumentInfo, len(names))
	for i, name := range names {
		out[i] = DocumentInfo{Name: name}
		if info, err := os.Stat(s.Path(name)); err == nil {
			out[i].Exists = true
			out[i].SizeBytes = info.Size()
			out[i].UpdatedAt = info.ModTime().UTC()
		}
	}
	return out
}

func (s *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return s.writeFile(name, data)
}

// writeFile replaces name atomically so readers never observe a partial document
func (s *FileStore) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) readJSON(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
