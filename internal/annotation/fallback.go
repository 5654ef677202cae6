package annotation

import (
	"fmt"
	"strings"

	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// fallbackKeywords are matched against the title and domain when no model output is usable
var fallbackKeywords = []string{"docker", "kubernetes", "python", "javascript", "aws", "azure", "api", "tutorial", "guide"}

const (
	maxFallbackTags         = 5
	maxFallbackRelated      = 3
	fallbackFolder          = "Uncategorized > Misc"
	fallbackDomain          = "unknown"
	fallbackTitle           = "Untitled"
	fallbackSummaryTemplate = "Resource from %s: %s"
)

// Fallback builds a deterministic enrichment from the bookmark's domain and title alone.
// Every field is populated and the tag list is never empty.
func Fallback(b types.Bookmark) types.Enrichment {
	domain := b.Domain
	if domain == "" {
		domain = fallbackDomain
	}
	title := b.Title
	if title == "" {
		title = fallbackTitle
	}

	tags := fallbackTags(b)
	related := tags
	if len(related) > maxFallbackRelated {
		related = related[:maxFallbackRelated]
	}

	return types.Enrichment{
		Tags:                 tags,
		Summary:              fmt.Sprintf(fallbackSummaryTemplate, domain, title),
		ContentType:          types.ContentOther,
		PrimaryTechnology:    types.UnknownTechnology,
		SkillLevel:           types.SkillMixed,
		UseCases:             []string{},
		KeyTopics:            []string{},
		ValueProposition:     DefaultValueProposition,
		FolderRecommendation: fallbackFolder,
		Priority:             types.PriorityMedium,
		RelatedKeywords:      append([]string(nil), related...),
		Actionability:        DefaultActionability,
	}
}

// fallbackTags derives up to five tags: the first domain label plus any known keyword
// found in the title or domain.
func fallbackTags(b types.Bookmark) []string {
	domain := strings.ToLower(b.Domain)
	if domain == "" {
		domain = fallbackDomain
	}
	title := strings.ToLower(b.Title)

	candidates := []string{domain}
	if labels := strings.Split(domain, "."); len(labels) > 1 {
		candidates[0] = labels[0]
	}
	for _, kw := range fallbackKeywords {
		if strings.Contains(title, kw) || strings.Contains(domain, kw) {
			candidates = append(candidates, kw)
		}
	}

	tags := NormalizeTags(candidates)
	if len(tags) > maxFallbackTags {
		tags = tags[:maxFallbackTags]
	}
	return tags
}
