package clustering

import (
	"strings"
	"unicode"

	"github.com/jonathan/bookmark-intelligence/internal/tally"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// UncategorizedName labels clusters whose bookmarks carry no tags
const UncategorizedName = "Uncategorized"

const (
	nameTagCount   = 10
	keywordCount   = 5
	topDomainCount = 5
)

// namePattern maps a keyword set to a cluster label
type namePattern struct {
	keywords []string
	name     string
}

// namePatterns are checked in order; the first pattern sharing any keyword with the tags wins
var namePatterns = []namePattern{
	{keywords: []string{"docker", "kubernetes", "container"}, name: "Docker & Kubernetes"},
	{keywords: []string{"python", "programming", "tutorial"}, name: "Python Development"},
	{keywords: []string{"javascript", "react", "frontend"}, name: "Frontend Development"},
	{keywords: []string{"aws", "cloud", "infrastructure"}, name: "AWS Cloud Infrastructure"},
	{keywords: []string{"azure", "cloud", "devops"}, name: "Azure DevOps"},
	{keywords: []string{"documentation", "api", "reference"}, name: "API Documentation"},
	{keywords: []string{"tutorial", "learning", "guide"}, name: "Learning Resources"},
	{keywords: []string{"video", "youtube", "tutorial"}, name: "Video Tutorials"},
	{keywords: []string{"article", "blog", "post"}, name: "Articles & Blogs"},
}

// domainNames label clusters dominated by a well-known site
var domainNames = map[string]string{
	"github.com":        "GitHub Repositories",
	"stackoverflow.com": "Stack Overflow Q&A",
	"youtube.com":       "YouTube Videos",
	"medium.com":        "Medium Articles",
	"docs.google.com":   "Google Docs",
}

// describeCluster derives a name, keywords and top domains for a group of bookmarks
func describeCluster(members []types.EnrichedBookmark) (name string, keywords, topDomains []string) {
	tags := tally.New()
	domains := tally.New()
	for _, b := range members {
		tags.AddAll(b.Tags)
		domains.Add(b.Domain)
	}

	topDomains = domains.TopKeys(topDomainCount)
	topTags := tags.TopKeys(nameTagCount)
	if len(topTags) == 0 {
		return UncategorizedName, []string{}, topDomains
	}

	keywords = topTags
	if len(keywords) > keywordCount {
		keywords = keywords[:keywordCount]
	}
	return clusterName(topTags, domains.Top()), append([]string(nil), keywords...), topDomains
}

// clusterName picks a label from tag patterns, then the dominant domain, then the top two tags
func clusterName(tags []string, topDomain string) string {
	if len(tags) == 0 {
		return UncategorizedName
	}

	variants := make(map[string]bool, 2*len(tags))
	for _, t := range tags {
		t = strings.ToLower(t)
		variants[strings.ReplaceAll(t, "-", "")] = true
		first, _, _ := strings.Cut(t, "-")
		variants[first] = true
	}

	for _, p := range namePatterns {
		for _, kw := range p.keywords {
			if variants[kw] {
				return p.name
			}
		}
	}

	if name, ok := domainNames[topDomain]; ok {
		return name
	}

	if len(tags) >= 2 {
		return titleCase(tags[0]) + " & " + titleCase(tags[1])
	}
	return titleCase(tags[0])
}

// titleCase turns "unit-testing" into "Unit Testing": hyphens become spaces and
// every letter following a non-letter is upper-cased.
func titleCase(tag string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range strings.ReplaceAll(tag, "-", " ") {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}
