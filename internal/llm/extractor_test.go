package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookmarkAnalysisSchema_Fields(t *testing.T) {
	schema := BookmarkAnalysisSchema("Analyze this bookmark.")

	assert.Equal(t, "BookmarkAnalysis", schema.Name)
	assert.Equal(t, []string{
		"tags", "summary", "content_type", "primary_technology", "skill_level",
		"use_cases", "key_topics", "value_proposition", "folder_recommendation",
		"priority", "related_keywords", "actionability",
	}, schema.FieldNames())
	for _, f := range schema.Fields {
		assert.True(t, f.Required, f.Name)
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	schema := BookmarkAnalysisSchema("You categorize web resources.")
	prompt := BuildExtractionPrompt(schema, "URL: https://go.dev\nTitle: Go")

	assert.Contains(t, prompt, "You categorize web resources.")
	assert.Contains(t, prompt, `"folder_recommendation": "string" (required)`)
	assert.Contains(t, prompt, "- Be specific and technical; focus on practical value.")
	assert.Contains(t, prompt, "URL: https://go.dev\nTitle: Go")
	assert.NotContains(t, prompt, `"actionability": "string" (required),`)
}
