//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bookmark-intelligence/internal/types"
)

func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func TestRunLifecycle_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID, err := db.CreateRun(ctx, "all", "data/processed/bookmarks_flat.json")
	require.NoError(t, err)
	defer func() { _ = db.DeleteRun(ctx, runID) }()

	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, db.CompleteRun(ctx, runID, RunStatusCompleted))
	run, err = db.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)

	runs, err := db.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, runs)
}

func TestDocuments_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID, err := db.CreateRun(ctx, "cluster", "")
	require.NoError(t, err)
	defer func() { _ = db.DeleteRun(ctx, runID) }()

	docs := Documents{
		Bookmarks: []types.EnrichedBookmark{{
			Bookmark:  types.Bookmark{URL: "https://go.dev", Title: "Go"},
			ClusterID: 0, ClusterName: "Go",
		}},
		Clusters: &types.ClusterResult{NClusters: 1, Method: types.ClusteringMethod},
		Projects: &types.ProjectList{Projects: []types.Project{{Name: "Go", Confidence: 0.8}}},
	}
	require.NoError(t, db.SaveDocuments(ctx, runID, docs))

	loaded, err := db.LoadDocuments(ctx, runID)
	require.NoError(t, err)
	require.Len(t, loaded.Bookmarks, 1)
	assert.Equal(t, "https://go.dev", loaded.Bookmarks[0].URL)
	assert.Equal(t, 1, loaded.Clusters.NClusters)
	assert.Equal(t, "Go", loaded.Projects.Projects[0].Name)
	assert.Nil(t, loaded.Folders)

	artifacts, err := db.ListArtifacts(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, artifacts, 3)

	missing, err := db.GetRun(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
