package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/bookmark-intelligence/internal/types"
)

func TestFallback_Tags(t *testing.T) {
	tests := []struct {
		name     string
		bookmark types.Bookmark
		expected []string
	}{
		{
			name:     "domain label and title keyword",
			bookmark: types.Bookmark{Title: "Kubernetes Guide", Domain: "example.com"},
			expected: []string{"example", "kubernetes", "guide"},
		},
		{
			name:     "keyword from domain is not duplicated",
			bookmark: types.Bookmark{Title: "Docker Tutorial", Domain: "docker.com"},
			expected: []string{"docker", "tutorial"},
		},
		{
			name:     "truncated to five",
			bookmark: types.Bookmark{Title: "Python JavaScript AWS Azure API guide", Domain: "example.com"},
			expected: []string{"example", "python", "javascript", "aws", "azure"},
		},
		{
			name:     "domain without dot",
			bookmark: types.Bookmark{Title: "Router", Domain: "localhost"},
			expected: []string{"localhost"},
		},
		{
			name:     "missing domain",
			bookmark: types.Bookmark{Title: "Something"},
			expected: []string{"unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fallback(tt.bookmark).Tags)
		})
	}
}

func TestFallback_Fields(t *testing.T) {
	e := Fallback(types.Bookmark{Title: "Python JavaScript AWS", Domain: "example.com"})

	assert.Equal(t, "Resource from example.com: Python JavaScript AWS", e.Summary)
	assert.Equal(t, types.ContentOther, e.ContentType)
	assert.Equal(t, types.UnknownTechnology, e.PrimaryTechnology)
	assert.Equal(t, types.SkillMixed, e.SkillLevel)
	assert.Equal(t, "Uncategorized > Misc", e.FolderRecommendation)
	assert.Equal(t, types.PriorityMedium, e.Priority)
	assert.Equal(t, []string{"example", "python", "javascript"}, e.RelatedKeywords)
	assert.Empty(t, e.UseCases)
	assert.NotNil(t, e.UseCases)
}

func TestFallback_Deterministic(t *testing.T) {
	b := types.Bookmark{Title: "AWS API reference", Domain: "docs.aws.amazon.com"}
	assert.Equal(t, Fallback(b), Fallback(b))
}

func TestFallback_UntitledSummary(t *testing.T) {
	e := Fallback(types.Bookmark{Domain: "go.dev"})
	assert.Equal(t, "Resource from go.dev: Untitled", e.Summary)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t,
		[]string{"machine-learning", "python", "ci-cd"},
		NormalizeTags([]string{"Machine Learning", "python", " ", "PYTHON", "ci-cd"}))
	assert.Empty(t, NormalizeTags(nil))
}
