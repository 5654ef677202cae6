package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Documents is the set of output documents written by one pipeline run.
// Nil members are skipped on save.
type Documents struct {
	Bookmarks []types.EnrichedBookmark
	Clusters  *types.ClusterResult
	Projects  *types.ProjectList
	Folders   *types.FolderAnalysis
}

type bookmarksDocument struct {
	Bookmarks []types.EnrichedBookmark `json:"bookmarks"`
}

// SaveDocuments stores every non-nil document as an artifact of runID
func (db *DB) SaveDocuments(ctx context.Context, runID uuid.UUID, docs Documents) error {
	if docs.Bookmarks != nil {
		if err := db.SaveArtifact(ctx, runID, StepBookmarks, bookmarksDocument{Bookmarks: docs.Bookmarks}); err != nil {
			return err
		}
	}
	if docs.Clusters != nil {
		if err := db.SaveArtifact(ctx, runID, StepClusters, docs.Clusters); err != nil {
			return err
		}
	}
	if docs.Projects != nil {
		if err := db.SaveArtifact(ctx, runID, StepProjects, docs.Projects); err != nil {
			return err
		}
	}
	if docs.Folders != nil {
		if err := db.SaveArtifact(ctx, runID, StepFolders, docs.Folders); err != nil {
			return err
		}
	}
	return nil
}

// LoadDocuments reads back every document stored for runID. Missing steps stay nil.
func (db *DB) LoadDocuments(ctx context.Context, runID uuid.UUID) (*Documents, error) {
	var docs Documents

	var bookmarks bookmarksDocument
	found, err := db.loadArtifact(ctx, runID, StepBookmarks, &bookmarks)
	if err != nil {
		return nil, err
	}
	if found {
		docs.Bookmarks = bookmarks.Bookmarks
	}

	var clusters types.ClusterResult
	if found, err = db.loadArtifact(ctx, runID, StepClusters, &clusters); err != nil {
		return nil, err
	} else if found {
		docs.Clusters = &clusters
	}

	var projects types.ProjectList
	if found, err = db.loadArtifact(ctx, runID, StepProjects, &projects); err != nil {
		return nil, err
	} else if found {
		docs.Projects = &projects
	}

	var folders types.FolderAnalysis
	if found, err = db.loadArtifact(ctx, runID, StepFolders, &folders); err != nil {
		return nil, err
	} else if found {
		docs.Folders = &folders
	}

	return &docs, nil
}

func (db *DB) loadArtifact(ctx context.Context, runID uuid.UUID, step string, v any) (bool, error) {
	content, err := db.GetArtifact(ctx, runID, step)
	if err != nil {
		return false, err
	}
	if content == nil {
		return false, nil
	}
	if err := json.Unmarshal(content, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", step, err)
	}
	return true, nil
}
