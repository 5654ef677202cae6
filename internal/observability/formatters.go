// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/bookmark-intelligence/internal/storage"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCostEstimate outputs the estimated provider cost before submitting work.
func (p *Printer) PrintCostEstimate(bookmarks int, embeddingUSD, taggingUSD float64) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Bookmarks:  %d\n", bookmarks))
	sb.WriteString(fmt.Sprintf("Embeddings: $%.4f\n", embeddingUSD))
	sb.WriteString(fmt.Sprintf("Tagging:    $%.2f\n", taggingUSD))
	sb.WriteString(fmt.Sprintf("Total:      $%.2f\n", embeddingUSD+taggingUSD))
	p.printBox("ESTIMATED COST", sb.String())
}

// PrintClusters outputs the largest clusters with their keywords.
func (p *Printer) PrintClusters(result *types.ClusterResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Clusters: %d (%s)\n\n", result.NClusters, result.Method))

	count := min(len(result.Clusters), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := result.Clusters[i]
		sb.WriteString(fmt.Sprintf("%d. %s (%d bookmarks)\n", i+1, c.Name, c.Size))
		if len(c.Keywords) > 0 {
			sb.WriteString(fmt.Sprintf("   %s\n", strings.Join(c.Keywords, ", ")))
		}
	}
	if len(result.Clusters) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(result.Clusters)-maxItemsToShow))
	}

	p.printBox("CLUSTERS", sb.String())
}

// PrintProjects outputs the suggested projects ranked by confidence.
func (p *Printer) PrintProjects(list *types.ProjectList) {
	if list == nil {
		return
	}

	var sb strings.Builder
	if len(list.Projects) == 0 {
		sb.WriteString("No projects met the confidence threshold\n")
	}
	for i, proj := range list.Projects {
		sb.WriteString(fmt.Sprintf("%d. %s [%.2f]\n", i+1, proj.Name, proj.Confidence))
		sb.WriteString(fmt.Sprintf("   %d bookmarks from %s\n", proj.BookmarkCount, proj.Source))
	}

	p.printBox("SUGGESTED PROJECTS", sb.String())
}

// PrintFolderAnalysis outputs the plan summary, issues, and first action items.
func (p *Printer) PrintFolderAnalysis(analysis *types.FolderAnalysis) {
	if analysis == nil {
		return
	}

	s := analysis.Summary
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Folders:        %d (%d top-level)\n", s.CurrentState.TotalFolders, s.CurrentState.TopLevelFolders))
	sb.WriteString(fmt.Sprintf("New folders:    %d\n", s.Recommendations.NewFolders))
	sb.WriteString(fmt.Sprintf("Consolidations: %d\n", s.Recommendations.Consolidations))
	sb.WriteString(fmt.Sprintf("Issues:         %d (%d high)\n", s.IssuesFound.Total, s.IssuesFound.HighSeverity))

	if len(analysis.Issues) > 0 {
		sb.WriteString("\nIssues:\n")
		for _, issue := range analysis.Issues {
			sb.WriteString(fmt.Sprintf("  ✗ [%s] %s\n", issue.Severity, issue.Description))
		}
	}

	if len(analysis.ActionItems) > 0 {
		sb.WriteString("\nNext steps:\n")
		count := min(len(analysis.ActionItems), maxItemsToShow)
		for i := 0; i < count; i++ {
			a := analysis.ActionItems[i]
			sb.WriteString(fmt.Sprintf("  %d. %s (%s)\n", i+1, a.Title, a.EstimatedTime))
		}
	}

	p.printBox("FOLDER RECOMMENDATIONS", sb.String())
}

// PrintStoreStatus outputs which pipeline documents exist on disk.
func (p *Printer) PrintStoreStatus(dir, jobID string, docs []storage.DocumentInfo) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Directory: %s\n", dir))
	if jobID != "" {
		sb.WriteString(fmt.Sprintf("Batch job: %s\n", jobID))
	}
	sb.WriteString("\n")
	for _, d := range docs {
		if !d.Exists {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", d.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("  ✓ %s (%s, %s)\n", d.Name, formatBytes(d.SizeBytes), d.UpdatedAt.Format(time.DateTime)))
	}
	p.printBox("AI DATA STATUS", sb.String())
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
