package folders

import (
	"fmt"

	"github.com/jonathan/bookmark-intelligence/internal/tally"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Issue thresholds
const (
	overloadedRootMin   = 20
	uncategorizedMin    = 10
	deepNestingDepth    = 5
	deepNestingMin      = 20
	fragmentedTechMin   = 10
	fragmentedFolderMin = 5
	planActionItems     = 5
)

func (e *Engine) issues(bookmarks []types.EnrichedBookmark) []types.Issue {
	var (
		atRoot, unfiled, deep int
		issues                []types.Issue
	)
	techs := tally.New()
	techFolders := make(map[string]map[string]bool)

	for _, b := range bookmarks {
		switch {
		case len(b.FolderPath) == 0:
			unfiled++
		case len(b.FolderPath) == 1 && b.FolderPath[0] == e.settings.RootFolder:
			atRoot++
		}
		if b.FolderPath.Depth() >= deepNestingDepth {
			deep++
		}
		if b.HasTechnology() {
			techs.Add(b.PrimaryTechnology)
			if techFolders[b.PrimaryTechnology] == nil {
				techFolders[b.PrimaryTechnology] = make(map[string]bool)
			}
			techFolders[b.PrimaryTechnology][b.FolderPath.String()] = true
		}
	}

	if atRoot > overloadedRootMin {
		issues = append(issues, types.Issue{
			Type:           types.IssueOverloadedFolder,
			Severity:       types.SeverityHigh,
			Folder:         e.settings.RootFolder,
			Count:          atRoot,
			Description:    fmt.Sprintf("%d bookmarks in root %s - should move to subfolders", atRoot, e.settings.RootFolder),
			Recommendation: "Move to appropriate subfolders based on AI suggestions",
		})
	}
	if unfiled > uncategorizedMin {
		issues = append(issues, types.Issue{
			Type:           types.IssueUncategorized,
			Severity:       types.SeverityMedium,
			Count:          unfiled,
			Description:    fmt.Sprintf("%d bookmarks without folders", unfiled),
			Recommendation: "Use AI folder recommendations to categorize",
		})
	}
	if deep > deepNestingMin {
		issues = append(issues, types.Issue{
			Type:           types.IssueDeepNesting,
			Severity:       types.SeverityLow,
			Count:          deep,
			Description:    fmt.Sprintf("%d bookmarks nested >%d levels deep", deep, deepNestingDepth-1),
			Recommendation: "Flatten folder structure for better accessibility",
		})
	}
	for _, t := range techs.Entries() {
		spread := len(techFolders[t.Key])
		if t.Count < fragmentedTechMin || spread <= fragmentedFolderMin {
			continue
		}
		issues = append(issues, types.Issue{
			Type:           types.IssueFragmentedCategory,
			Severity:       types.SeverityMedium,
			Technology:     t.Key,
			Count:          t.Count,
			SpreadAcross:   spread,
			Description:    fmt.Sprintf("%d %s bookmarks spread across %d folders", t.Count, t.Key, spread),
			Recommendation: fmt.Sprintf("Consolidate into '%s' folder", developmentFolder+types.FolderSeparator+t.Key),
		})
	}
	return issues
}

// actionItems always opens with the base structure item and closes with the review item
func actionItems(bookmarks []types.EnrichedBookmark, plan []types.PlanEntry, issues []types.Issue) []types.ActionItem {
	actions := []types.ActionItem{{
		Priority:    priorityUrgent,
		Title:       "Create base folder structure",
		Description: "Set up main organizational categories",
		Steps: []string{
			"Create 'Development' folder for technical resources",
			"Create 'Learning' folder for tutorials/courses",
			"Create 'Work' folder for professional bookmarks",
			fmt.Sprintf("Create '%s' for essential references", HighPriorityFolder),
		},
		EstimatedTime: minutes(5),
	}}

	high := 0
	for _, b := range bookmarks {
		if b.Priority == types.PriorityHigh {
			high++
		}
	}
	if high > 0 {
		actions = append(actions, types.ActionItem{
			Priority:    priorityUrgent,
			Title:       fmt.Sprintf("Organize %d high-priority bookmarks", high),
			Description: "Move essential bookmarks to quick-access folder",
			Steps: []string{
				fmt.Sprintf("Review %d high-priority bookmarks", high),
				fmt.Sprintf("Move to '%s' folder", HighPriorityFolder),
				"Verify frequently-accessed bookmarks are included",
			},
			EstimatedTime: minutes(high / 10),
		})
	}

	for _, issue := range issues {
		if issue.Severity != types.SeverityHigh {
			continue
		}
		actions = append(actions, types.ActionItem{
			Priority:      priorityUrgent,
			Title:         "Fix: " + issue.Description,
			Description:   issue.Recommendation,
			Steps:         []string{issue.Recommendation},
			EstimatedTime: minutes(10),
		})
	}

	for _, entry := range plan[:min(len(plan), planActionItems)] {
		if entry.Action != types.ActionCreateFolder {
			continue
		}
		actions = append(actions, types.ActionItem{
			Priority:    priorityCreate,
			Title:       fmt.Sprintf("Create '%s' folder", entry.Folder),
			Description: entry.Reason,
			Steps: []string{
				"Create folder: " + entry.Folder,
				fmt.Sprintf("Move %d bookmarks", entry.BookmarkCount),
				"Verify folder structure makes sense",
			},
			EstimatedTime: minutes(entry.BookmarkCount / 20),
		})
	}

	return append(actions, types.ActionItem{
		Priority:    priorityConsolidate,
		Title:       "Review AI recommendations",
		Description: "Validate AI-suggested folder structure",
		Steps: []string{
			"Review folder_recommendation for each bookmark",
			"Identify any misclassifications",
			"Adjust folder structure as needed",
			"Create bookmark management routine",
		},
		EstimatedTime: minutes(30),
	})
}

func minutes(n int) string {
	return fmt.Sprintf("%d minutes", n)
}

func summarize(current types.CurrentFolderAnalysis, plan []types.PlanEntry, issues []types.Issue) types.AnalysisSummary {
	var s types.AnalysisSummary
	s.CurrentState.TotalFolders = current.TotalFolders
	s.CurrentState.TopLevelFolders = len(current.TopLevelFolders)
	if len(current.LargestFolders) > 0 {
		largest := current.LargestFolders[0]
		s.CurrentState.LargestFolder = &largest
	}

	for _, p := range plan {
		switch p.Action {
		case types.ActionCreateFolder:
			s.Recommendations.NewFolders++
		case types.ActionConsolidateFolders:
			s.Recommendations.Consolidations++
		}
		s.Recommendations.BookmarksAffected += p.BookmarkCount
	}

	s.IssuesFound.Total = len(issues)
	for _, i := range issues {
		switch i.Severity {
		case types.SeverityHigh:
			s.IssuesFound.HighSeverity++
		case types.SeverityMedium:
			s.IssuesFound.MediumSeverity++
		case types.SeverityLow:
			s.IssuesFound.LowSeverity++
		}
	}
	return s
}
