// Package steps defines the pipeline stages and the stored documents each one needs.
package steps

import (
	"fmt"
	"os"
	"slices"

	"github.com/jonathan/bookmark-intelligence/internal/storage"
)

// Stage names
const (
	StageEmbed   = "embed"
	StageTag     = "tag"
	StageCluster = "cluster"
	StageAll     = "all"
)

// StageDefinition describes a stage and the documents it reads and writes
type StageDefinition struct {
	Name        string
	Description string
	Requires    []string // documents that must already be stored
	Produces    []string
}

// StageRegistry holds every runnable stage
var StageRegistry = map[string]StageDefinition{
	StageEmbed: {
		Name:        StageEmbed,
		Description: "Submit or resume the batch embedding job and store the vectors",
		Requires:    []string{},
		Produces:    []string{storage.EmbeddingsFile},
	},
	StageTag: {
		Name:        StageTag,
		Description: "Annotate every bookmark with tags, summary, and classification",
		Requires:    []string{},
		Produces:    []string{storage.EnrichmentsFile},
	},
	StageCluster: {
		Name:        StageCluster,
		Description: "Cluster embeddings, suggest projects, and analyze folders",
		Requires:    []string{storage.EmbeddingsFile, storage.EnrichmentsFile},
		Produces:    []string{storage.BookmarksFile, storage.ClustersFile, storage.ProjectsFile, storage.FoldersFile},
	},
	StageAll: {
		Name:        StageAll,
		Description: "Run embed and tag in parallel, then cluster",
		Requires:    []string{},
		Produces: []string{
			storage.EmbeddingsFile, storage.EnrichmentsFile,
			storage.BookmarksFile, storage.ClustersFile, storage.ProjectsFile, storage.FoldersFile,
		},
	},
}

// Names returns the registered stage names in sorted order
func Names() []string {
	names := make([]string, 0, len(StageRegistry))
	for name := range StageRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Stage               string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("stage %s is missing dependencies: %v", e.Stage, e.MissingDependencies)
}

// ValidateDependencies checks that every document the stage requires is stored
func ValidateDependencies(store *storage.FileStore, stage string) error {
	def, ok := StageRegistry[stage]
	if !ok {
		return fmt.Errorf("unknown stage: %s (expected one of %v)", stage, Names())
	}

	var missing []string
	for _, doc := range def.Requires {
		if _, err := os.Stat(store.Path(doc)); err != nil {
			missing = append(missing, doc)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Stage:               stage,
			MissingDependencies: missing,
		}
	}
	return nil
}
