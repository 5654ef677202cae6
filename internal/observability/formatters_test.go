package observability

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/bookmark-intelligence/internal/storage"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

func TestPrintClusters(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &types.ClusterResult{NClusters: 7, Method: types.ClusteringMethod}
	for i := 0; i < 7; i++ {
		result.Clusters = append(result.Clusters, types.Cluster{
			ID: i, Name: fmt.Sprintf("Cluster %d", i), Size: 10 - i, Keywords: []string{"go", "cli"},
		})
	}

	p.PrintClusters(result)
	output := buf.String()

	assert.Contains(t, output, "CLUSTERS")
	assert.Contains(t, output, "Clusters: 7 (minibatch_kmeans)")
	assert.Contains(t, output, "1. Cluster 0 (10 bookmarks)")
	assert.Contains(t, output, "go, cli")
	assert.NotContains(t, output, "Cluster 5")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintClusters_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintClusters(nil)
	assert.Empty(t, buf.String())
}

func TestPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProjects(&types.ProjectList{Projects: []types.Project{
		{Name: "Kitchen", Confidence: 0.9, BookmarkCount: 30, Source: types.SourceFolderStructure},
	}})
	output := buf.String()
	assert.Contains(t, output, "SUGGESTED PROJECTS")
	assert.Contains(t, output, "1. Kitchen [0.90]")
	assert.Contains(t, output, "30 bookmarks from folder_structure")

	buf.Reset()
	p.PrintProjects(&types.ProjectList{})
	assert.Contains(t, buf.String(), "No projects met the confidence threshold")
}

func TestPrintFolderAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	analysis := &types.FolderAnalysis{
		Issues: []types.Issue{{Severity: types.SeverityHigh, Description: "25 bookmarks in root"}},
		ActionItems: []types.ActionItem{
			{Title: "Create base folder structure", EstimatedTime: "5 minutes"},
		},
	}
	analysis.Summary.CurrentState.TotalFolders = 12
	analysis.Summary.IssuesFound.Total = 1
	analysis.Summary.IssuesFound.HighSeverity = 1

	p.PrintFolderAnalysis(analysis)
	output := buf.String()

	assert.Contains(t, output, "FOLDER RECOMMENDATIONS")
	assert.Contains(t, output, "Folders:        12")
	assert.Contains(t, output, "[high] 25 bookmarks in root")
	assert.Contains(t, output, "1. Create base folder structure (5 minutes)")
}

func TestPrintStoreStatus(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStoreStatus("data/ai", "batch_123", []storage.DocumentInfo{
		{Name: storage.ClustersFile, Exists: true, SizeBytes: 2048, UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Name: storage.ProjectsFile},
	})
	output := buf.String()

	assert.Contains(t, output, "Batch job: batch_123")
	assert.Contains(t, output, "✓ clusters.json (2.0 KB, 2026-01-02 03:04:05)")
	assert.Contains(t, output, "✗ projects_suggested.json")
}

func TestPrintCostEstimate(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCostEstimate(1000, 0.25, 6.0)
	output := buf.String()

	assert.Contains(t, output, "Embeddings: $0.2500")
	assert.Contains(t, output, "Total:      $6.25")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", string(bytes.Repeat([]byte("x"), 100)))
	assert.Contains(t, buf.String(), "...")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
}
