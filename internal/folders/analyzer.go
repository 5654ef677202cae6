package folders

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/bookmark-intelligence/internal/config"
	"github.com/jonathan/bookmark-intelligence/internal/tally"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Report sizes
const (
	distributionLimit   = 20
	largestLimit        = 10
	suggestedLimit      = 30
	topCategoriesLimit  = 10
	highConfidenceSize  = 50
	uncategorizedFolder = "Uncategorized"
)

// Engine produces a FolderAnalysis from enriched bookmarks and their clusters
type Engine struct {
	settings config.FolderSettings
}

// NewEngine creates an engine. settings should already be merged with defaults.
func NewEngine(settings config.FolderSettings) *Engine {
	return &Engine{settings: settings}
}

// Analyze inspects the current hierarchy, aggregates AI recommendations, and
// derives a plan, issues, and action items. Bookmark indices refer to positions in bookmarks.
func (e *Engine) Analyze(bookmarks []types.EnrichedBookmark, clusters *types.ClusterResult) (*types.FolderAnalysis, error) {
	if clusters == nil {
		return nil, &EmptyInputError{Message: "no cluster result"}
	}

	log.Info().Int("bookmarks", len(bookmarks)).Msg("analyzing folder structure")

	current := e.currentAnalysis(bookmarks)
	suggestions := aiSuggestions(bookmarks)
	byCluster := clusterFolders(clusters, bookmarks)
	plan := e.plan(bookmarks, current, suggestions)
	issues := e.issues(bookmarks)
	actions := actionItems(bookmarks, plan, issues)

	log.Info().
		Int("plan_entries", len(plan)).
		Int("issues", len(issues)).
		Int("action_items", len(actions)).
		Msg("folder analysis complete")

	return &types.FolderAnalysis{
		CurrentAnalysis:    current,
		AISuggestions:      suggestions,
		ClusterFolders:     byCluster,
		ReorganizationPlan: plan,
		Issues:             issues,
		ActionItems:        actions,
		Summary:            summarize(current, plan, issues),
	}, nil
}

func (e *Engine) currentAnalysis(bookmarks []types.EnrichedBookmark) types.CurrentFolderAnalysis {
	folders := tally.New()
	contents := make(map[string][]int)
	topLevel := tally.New()

	for i, b := range bookmarks {
		folder := b.FolderPath.String()
		folders.Add(folder)
		contents[folder] = append(contents[folder], i)

		top := b.FolderPath.TopLevel(e.settings.RootFolder)
		if top == "" {
			top = uncategorizedFolder
		}
		topLevel.Add(top)
	}

	return types.CurrentFolderAnalysis{
		TotalFolders:       folders.Len(),
		FolderDistribution: folderCounts(folders.MostCommon(distributionLimit)),
		TopLevelFolders:    folderCounts(topLevel.MostCommon(0)),
		LargestFolders:     folderCounts(folders.MostCommon(largestLimit)),
		FolderContents:     contents,
	}
}

func aiSuggestions(bookmarks []types.EnrichedBookmark) types.AIFolderSuggestions {
	suggested := tally.New()
	categories := tally.New()

	for _, b := range bookmarks {
		rec := b.FolderRecommendation
		if rec == "" {
			rec = uncategorizedFolder
		}
		suggested.Add(rec)
		categories.Add(category(rec))
	}

	return types.AIFolderSuggestions{
		SuggestedFolders:     folderCounts(suggested.MostCommon(suggestedLimit)),
		CategoryDistribution: folderCounts(categories.Entries()),
		TopCategories:        categories.TopKeys(topCategoriesLimit),
	}
}

// clusterFolders maps every cluster to "Category > Technology", falling back to
// "Category > ClusterName" when the cluster has no known technology.
func clusterFolders(clusters *types.ClusterResult, bookmarks []types.EnrichedBookmark) []types.ClusterFolder {
	out := make([]types.ClusterFolder, 0, len(clusters.Clusters))
	for _, c := range clusters.Clusters {
		cats := tally.New()
		techs := tally.New()
		for _, idx := range c.BookmarkIndices {
			if idx < 0 || idx >= len(bookmarks) {
				continue
			}
			b := bookmarks[idx]
			if b.FolderRecommendation != "" {
				cats.Add(category(b.FolderRecommendation))
			}
			if b.PrimaryTechnology != "" {
				techs.Add(b.PrimaryTechnology)
			}
		}

		cat := cats.Top()
		if cat == "" {
			cat = uncategorizedFolder
		}
		leaf := c.Name
		if tech := techs.Top(); tech != "" && tech != types.UnknownTechnology {
			leaf = tech
		}

		confidence := "medium"
		if c.Size > highConfidenceSize {
			confidence = "high"
		}
		out = append(out, types.ClusterFolder{
			ClusterID:       c.ID,
			ClusterName:     c.Name,
			SuggestedFolder: cat + types.FolderSeparator + leaf,
			BookmarkCount:   c.Size,
			Confidence:      confidence,
		})
	}
	return out
}

// category returns the first segment of a "Category > Sub" recommendation
func category(rec string) string {
	head, _, _ := strings.Cut(rec, types.FolderSeparator)
	return head
}

func folderCounts(entries []tally.Entry) []types.FolderCount {
	out := make([]types.FolderCount, len(entries))
	for i, e := range entries {
		out[i] = types.FolderCount{Folder: e.Key, Count: e.Count}
	}
	return out
}

func sortByPriority(plan []types.PlanEntry) {
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Priority < plan[j].Priority })
}
