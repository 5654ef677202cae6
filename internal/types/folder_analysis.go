package types

// PlanAction is the kind of change a reorganization plan entry proposes
type PlanAction string

// Plan actions
const (
	ActionCreateFolder       PlanAction = "create_folder"
	ActionConsolidateFolders PlanAction = "consolidate_folders"
)

// IssueType classifies an organizational problem
type IssueType string

// Issue types
const (
	IssueOverloadedFolder   IssueType = "overloaded_folder"
	IssueUncategorized      IssueType = "uncategorized"
	IssueDeepNesting        IssueType = "deep_nesting"
	IssueFragmentedCategory IssueType = "fragmented_category"
)

// Severity of a detected issue
type Severity string

// Severities
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// FolderCount pairs a folder (or category) with a bookmark count
type FolderCount struct {
	Folder string `json:"folder"`
	Count  int    `json:"count"`
}

// CurrentFolderAnalysis describes the existing folder hierarchy
type CurrentFolderAnalysis struct {
	TotalFolders       int              `json:"total_folders"`
	FolderDistribution []FolderCount    `json:"folder_distribution"`
	TopLevelFolders    []FolderCount    `json:"top_level_folders"`
	LargestFolders     []FolderCount    `json:"largest_folders"`
	FolderContents     map[string][]int `json:"folder_contents"`
}

// AIFolderSuggestions aggregates the per-bookmark folder recommendations
type AIFolderSuggestions struct {
	SuggestedFolders     []FolderCount `json:"suggested_folders"`
	CategoryDistribution []FolderCount `json:"category_distribution"`
	TopCategories        []string      `json:"top_categories"`
}

// ClusterFolder is a folder suggestion derived from one cluster
type ClusterFolder struct {
	ClusterID       int    `json:"cluster_id"`
	ClusterName     string `json:"cluster_name"`
	SuggestedFolder string `json:"suggested_folder"`
	BookmarkCount   int    `json:"bookmark_count"`
	Confidence      string `json:"confidence"`
}

// PlanEntry is one step of the reorganization plan.
// Priority 1 is the most urgent.
type PlanEntry struct {
	Action          PlanAction `json:"action"`
	Folder          string     `json:"folder,omitempty"`
	Folders         []string   `json:"folders,omitempty"`
	TargetFolder    string     `json:"target_folder,omitempty"`
	Reason          string     `json:"reason"`
	BookmarkCount   int        `json:"bookmark_count"`
	BookmarkIndices []int      `json:"bookmark_indices"`
	Priority        int        `json:"priority"`
}

// Issue is a detected organizational problem
type Issue struct {
	Type           IssueType `json:"type"`
	Severity       Severity  `json:"severity"`
	Folder         string    `json:"folder,omitempty"`
	Technology     string    `json:"technology,omitempty"`
	Count          int       `json:"count"`
	SpreadAcross   int       `json:"spread_across,omitempty"`
	Description    string    `json:"description"`
	Recommendation string    `json:"recommendation"`
}

// ActionItem is a human-sized task derived from the plan and issues
type ActionItem struct {
	Priority      int      `json:"priority"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Steps         []string `json:"steps"`
	EstimatedTime string   `json:"estimated_time"`
}

// CurrentStateSummary summarizes the existing hierarchy
type CurrentStateSummary struct {
	TotalFolders    int          `json:"total_folders"`
	TopLevelFolders int          `json:"top_level_folders"`
	LargestFolder   *FolderCount `json:"largest_folder"`
}

// RecommendationSummary summarizes the plan
type RecommendationSummary struct {
	NewFolders        int `json:"new_folders"`
	Consolidations    int `json:"consolidations"`
	BookmarksAffected int `json:"bookmarks_affected"`
}

// IssueSummary counts issues by severity
type IssueSummary struct {
	Total          int `json:"total"`
	HighSeverity   int `json:"high_severity"`
	MediumSeverity int `json:"medium_severity"`
	LowSeverity    int `json:"low_severity"`
}

// AnalysisSummary is the executive summary of a folder analysis
type AnalysisSummary struct {
	CurrentState    CurrentStateSummary   `json:"current_state"`
	Recommendations RecommendationSummary `json:"recommendations"`
	IssuesFound     IssueSummary          `json:"issues_found"`
}

// FolderAnalysis is the complete output of the folder reorganization stage
type FolderAnalysis struct {
	CurrentAnalysis    CurrentFolderAnalysis `json:"current_analysis"`
	AISuggestions      AIFolderSuggestions   `json:"ai_folder_suggestions"`
	ClusterFolders     []ClusterFolder       `json:"cluster_folders"`
	ReorganizationPlan []PlanEntry           `json:"reorganization_plan"`
	Issues             []Issue               `json:"issues"`
	ActionItems        []ActionItem          `json:"action_items"`
	Summary            AnalysisSummary       `json:"summary"`
}
