package types

// Content types a bookmark can be classified as
const (
	ContentTutorial      = "tutorial"
	ContentDocumentation = "documentation"
	ContentTool          = "tool"
	ContentArticle       = "article"
	ContentReference     = "reference"
	ContentVideo         = "video"
	ContentCourse        = "course"
	ContentBlogPost      = "blog-post"
	ContentRepository    = "repository"
	ContentCheatsheet    = "cheatsheet"
	ContentExampleCode   = "example-code"
	ContentOther         = "other"
)

// Skill levels
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
	SkillExpert       = "expert"
	SkillMixed        = "mixed"
)

// Priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// UnknownTechnology is the placeholder used when no technology was detected
const UnknownTechnology = "Unknown"

// ContentTypes lists every valid content type
var ContentTypes = []string{
	ContentTutorial, ContentDocumentation, ContentTool, ContentArticle, ContentReference, ContentVideo,
	ContentCourse, ContentBlogPost, ContentRepository, ContentCheatsheet, ContentExampleCode, ContentOther,
}

// SkillLevels lists every valid skill level
var SkillLevels = []string{SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert, SkillMixed}

// Priorities lists every valid priority
var Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// Enrichment holds the machine-derived metadata for one bookmark.
// All twelve fields are always populated once an enrichment exists.
type Enrichment struct {
	Tags                 []string `json:"tags"`
	Summary              string   `json:"summary"`
	ContentType          string   `json:"content_type"`
	PrimaryTechnology    string   `json:"primary_technology"`
	SkillLevel           string   `json:"skill_level"`
	UseCases             []string `json:"use_cases"`
	KeyTopics            []string `json:"key_topics"`
	ValueProposition     string   `json:"value_proposition"`
	FolderRecommendation string   `json:"folder_recommendation"`
	Priority             string   `json:"priority"`
	RelatedKeywords      []string `json:"related_keywords"`
	Actionability        string   `json:"actionability"`
}

// HasTechnology reports whether a concrete primary technology was detected
func (e Enrichment) HasTechnology() bool {
	return e.PrimaryTechnology != "" && e.PrimaryTechnology != UnknownTechnology
}

// Unclustered marks bookmarks that never received a cluster assignment
const (
	UnclusteredID   = -1
	UnclusteredName = "Unclustered"
)

// EnrichedBookmark is a bookmark joined with its enrichment and cluster assignment
type EnrichedBookmark struct {
	Bookmark
	Enrichment
	ClusterID   int    `json:"cluster_id"`
	ClusterName string `json:"cluster_name"`
}

// Enrich joins bookmarks with enrichments by position.
// Missing enrichments (shorter slice) leave the zero value in place.
func Enrich(bookmarks []Bookmark, enrichments []Enrichment) []EnrichedBookmark {
	out := make([]EnrichedBookmark, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = EnrichedBookmark{
			Bookmark:    b,
			ClusterID:   UnclusteredID,
			ClusterName: UnclusteredName,
		}
		if i < len(enrichments) {
			out[i].Enrichment = enrichments[i]
		}
	}
	return out
}
