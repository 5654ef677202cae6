package annotation

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Neutral values used when the model omits a field
const (
	DefaultValueProposition     = "Bookmark saved for future reference"
	DefaultFolderRecommendation = "Uncategorized"
	DefaultActionability        = "Review and categorize"
)

// fieldResult records how each of the twelve fields was resolved
type fieldResult struct {
	missing []string // absent, null, undecodable or empty
	coerced []string // present but outside the allowed enum
}

// decodeEnrichment maps a raw model object onto an Enrichment, filling every
// missing or falsy field with its neutral default. Tags are the one exception:
// when the model returns none, the keyword-derived tags from the bookmark stand in.
func decodeEnrichment(raw map[string]json.RawMessage, b types.Bookmark) (types.Enrichment, fieldResult, bool) {
	var res fieldResult
	var e types.Enrichment

	str := func(key, def string) string {
		var v string
		if msg, ok := raw[key]; ok {
			_ = json.Unmarshal(msg, &v)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			res.missing = append(res.missing, key)
			return def
		}
		return v
	}
	list := func(key string) []string {
		var v []string
		if msg, ok := raw[key]; ok {
			_ = json.Unmarshal(msg, &v)
		}
		v = cleanList(v)
		if len(v) == 0 {
			res.missing = append(res.missing, key)
			return []string{}
		}
		return v
	}
	enum := func(key, def string, allowed []string) string {
		v := strings.ToLower(str(key, def))
		if !slices.Contains(allowed, v) {
			res.coerced = append(res.coerced, key)
			return def
		}
		return v
	}

	derivedTags := false
	var tags []string
	decoded := false
	if msg, ok := raw["tags"]; ok {
		decoded = json.Unmarshal(msg, &tags) == nil && tags != nil
	}
	e.Tags = NormalizeTags(tags)
	switch {
	case decoded && len(tags) == 0:
		// an explicit empty list is kept as the answer
	case len(e.Tags) == 0:
		if !decoded {
			res.missing = append(res.missing, "tags")
		}
		e.Tags = fallbackTags(b)
		derivedTags = true
	}

	e.Summary = str("summary", "")
	e.ContentType = enum("content_type", types.ContentOther, types.ContentTypes)
	e.PrimaryTechnology = str("primary_technology", types.UnknownTechnology)
	e.SkillLevel = enum("skill_level", types.SkillMixed, types.SkillLevels)
	e.UseCases = list("use_cases")
	e.KeyTopics = list("key_topics")
	e.ValueProposition = str("value_proposition", DefaultValueProposition)
	e.FolderRecommendation = str("folder_recommendation", DefaultFolderRecommendation)
	e.Priority = enum("priority", types.PriorityMedium, types.Priorities)
	e.RelatedKeywords = list("related_keywords")
	e.Actionability = str("actionability", DefaultActionability)

	return e, res, derivedTags
}

// NormalizeTags lowercases tags, joins words with hyphens and drops duplicates.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.Join(strings.Fields(strings.ToLower(t)), "-")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
