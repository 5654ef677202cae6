package folders

import (
	"fmt"
	"strings"

	"github.com/jonathan/bookmark-intelligence/internal/tally"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Plan folder names and priorities
const (
	HighPriorityFolder = "⭐ High Priority"
	LearningFolder     = "Learning"
	developmentFolder  = "Development"

	priorityUrgent      = 1
	priorityCreate      = 2
	priorityConsolidate = 3
)

func (e *Engine) plan(bookmarks []types.EnrichedBookmark, current types.CurrentFolderAnalysis, suggestions types.AIFolderSuggestions) []types.PlanEntry {
	var plan []types.PlanEntry
	plan = append(plan, highPriorityFolder(bookmarks)...)
	plan = append(plan, e.technologyFolders(bookmarks)...)
	plan = append(plan, e.learningFolder(bookmarks)...)
	plan = append(plan, e.categoryFolders(bookmarks, suggestions)...)
	plan = append(plan, e.consolidations(current)...)
	sortByPriority(plan)
	return plan
}

func highPriorityFolder(bookmarks []types.EnrichedBookmark) []types.PlanEntry {
	var indices []int
	for i, b := range bookmarks {
		if b.Priority == types.PriorityHigh {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return nil
	}
	return []types.PlanEntry{{
		Action:          types.ActionCreateFolder,
		Folder:          HighPriorityFolder,
		Reason:          "Quick access to essential bookmarks",
		BookmarkCount:   len(indices),
		BookmarkIndices: indices,
		Priority:        priorityUrgent,
	}}
}

func (e *Engine) technologyFolders(bookmarks []types.EnrichedBookmark) []types.PlanEntry {
	techs := tally.New()
	indices := make(map[string][]int)
	for i, b := range bookmarks {
		if !b.HasTechnology() {
			continue
		}
		techs.Add(b.PrimaryTechnology)
		indices[b.PrimaryTechnology] = append(indices[b.PrimaryTechnology], i)
	}

	var plan []types.PlanEntry
	for _, t := range techs.Entries() {
		if t.Count < e.settings.TechnologyMin {
			continue
		}
		plan = append(plan, types.PlanEntry{
			Action:          types.ActionCreateFolder,
			Folder:          developmentFolder + types.FolderSeparator + t.Key,
			Reason:          fmt.Sprintf("%d %s-related bookmarks", t.Count, t.Key),
			BookmarkCount:   t.Count,
			BookmarkIndices: indices[t.Key],
			Priority:        priorityCreate,
		})
	}
	return plan
}

func (e *Engine) learningFolder(bookmarks []types.EnrichedBookmark) []types.PlanEntry {
	var indices []int
	for i, b := range bookmarks {
		if b.ContentType == types.ContentTutorial || b.ContentType == types.ContentCourse || b.SkillLevel == types.SkillBeginner {
			indices = append(indices, i)
		}
	}
	if len(indices) < e.settings.LearningMin || len(indices) == 0 {
		return nil
	}
	return []types.PlanEntry{{
		Action:          types.ActionCreateFolder,
		Folder:          LearningFolder,
		Reason:          "Consolidate tutorials and courses",
		BookmarkCount:   len(indices),
		BookmarkIndices: indices,
		Priority:        priorityCreate,
	}}
}

// categoryFolders proposes a folder for every large AI category. Membership is by
// recommendation prefix, so the entry's count may exceed the category tally.
func (e *Engine) categoryFolders(bookmarks []types.EnrichedBookmark, suggestions types.AIFolderSuggestions) []types.PlanEntry {
	var plan []types.PlanEntry
	for _, c := range suggestions.CategoryDistribution {
		if c.Count < e.settings.CategoryMin || c.Folder == uncategorizedFolder {
			continue
		}
		indices := []int{}
		for i, b := range bookmarks {
			if strings.HasPrefix(b.FolderRecommendation, c.Folder) {
				indices = append(indices, i)
			}
		}
		plan = append(plan, types.PlanEntry{
			Action:          types.ActionCreateFolder,
			Folder:          c.Folder,
			Reason:          fmt.Sprintf("AI suggests %d bookmarks fit this category", c.Count),
			BookmarkCount:   len(indices),
			BookmarkIndices: indices,
			Priority:        priorityCreate,
		})
	}
	return plan
}

// consolidations merges near-duplicate folders among the most populated ones.
// The first folder of each group is the target.
func (e *Engine) consolidations(current types.CurrentFolderAnalysis) []types.PlanEntry {
	counts := make(map[string]int, len(current.FolderDistribution))
	names := make([]string, len(current.FolderDistribution))
	for i, f := range current.FolderDistribution {
		counts[f.Folder] = f.Count
		names[i] = f.Folder
	}

	var plan []types.PlanEntry
	for _, group := range similarGroups(names, e.settings.RootFolder, e.settings.SimilarityThreshold) {
		total := 0
		indices := []int{}
		for _, f := range group {
			total += counts[f]
			indices = append(indices, current.FolderContents[f]...)
		}
		plan = append(plan, types.PlanEntry{
			Action:          types.ActionConsolidateFolders,
			Folders:         group,
			TargetFolder:    group[0],
			Reason:          "Similar folder names should be consolidated",
			BookmarkCount:   total,
			BookmarkIndices: indices,
			Priority:        priorityConsolidate,
		})
	}
	return plan
}
