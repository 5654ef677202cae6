package steps

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bookmark-intelligence/internal/storage"
)

func TestStageRegistry(t *testing.T) {
	for _, name := range []string{StageEmbed, StageTag, StageCluster, StageAll} {
		def, ok := StageRegistry[name]
		require.True(t, ok, "stage %s should be registered", name)
		assert.Equal(t, name, def.Name)
		assert.NotEmpty(t, def.Description)
		assert.NotEmpty(t, def.Produces)
	}
	assert.Equal(t, []string{"all", "cluster", "embed", "tag"}, Names())
}

func TestValidateDependencies(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())

	assert.NoError(t, ValidateDependencies(store, StageEmbed))
	assert.NoError(t, ValidateDependencies(store, StageAll))

	err := ValidateDependencies(store, StageCluster)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, StageCluster, depErr.Stage)
	assert.Equal(t, []string{storage.EmbeddingsFile, storage.EnrichmentsFile}, depErr.MissingDependencies)
	assert.Contains(t, err.Error(), "missing dependencies")

	require.NoError(t, os.WriteFile(store.Path(storage.EmbeddingsFile), []byte(`{}`), 0644))
	err = ValidateDependencies(store, StageCluster)
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{storage.EnrichmentsFile}, depErr.MissingDependencies)

	require.NoError(t, os.WriteFile(store.Path(storage.EnrichmentsFile), []byte(`{}`), 0644))
	assert.NoError(t, ValidateDependencies(store, StageCluster))
}

func TestValidateDependencies_UnknownStage(t *testing.T) {
	err := ValidateDependencies(storage.NewFileStore(t.TempDir()), "render")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}
