package projects

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/bookmark-intelligence/internal/config"
	"github.com/jonathan/bookmark-intelligence/internal/tally"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Fixed strategy parameters
const (
	folderCandidates   = 10
	projectKeywords    = 5
	workMinOverlap     = 2
	workBaseConfidence = 0.7
	workConfidenceCap  = 0.85
	techMinOverlap     = 2
	learningConfidence = 0.75
	frontendConfidence = 0.8
	cloudConfidence    = 0.78
	nameOverlapRatio   = 0.5
)

// Engine runs the suggestion strategies and ranks their output
type Engine struct {
	settings   config.ProjectSettings
	rootFolder string
}

// NewEngine creates an engine. rootFolder is the browser root stripped before taking a top-level folder.
func NewEngine(settings config.ProjectSettings, rootFolder string) *Engine {
	return &Engine{settings: settings, rootFolder: rootFolder}
}

// Suggest proposes at most MaxProjects projects with confidence >= MinConfidence.
// Bookmark indices in clusters and in the result refer to positions in bookmarks.
func (e *Engine) Suggest(clusters *types.ClusterResult, bookmarks []types.EnrichedBookmark) (*types.ProjectList, error) {
	if clusters == nil {
		return nil, &EmptyInputError{Message: "no cluster result"}
	}

	log.Info().Int("clusters", len(clusters.Clusters)).Int("bookmarks", len(bookmarks)).Msg("generating project suggestions")

	var candidates []types.Project
	candidates = append(candidates, e.fromFolders(bookmarks)...)
	candidates = append(candidates, e.fromWorkClusters(clusters.Clusters)...)
	candidates = append(candidates, fromLearningClusters(clusters.Clusters)...)
	candidates = append(candidates, fromTechClusters(clusters.Clusters)...)

	projects := Deduplicate(candidates)
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].Confidence > projects[j].Confidence })

	kept := make([]types.Project, 0, len(projects))
	for _, p := range projects {
		if p.Confidence >= e.settings.MinConfidence {
			kept = append(kept, p)
		}
	}
	if e.settings.MaxProjects > 0 && len(kept) > e.settings.MaxProjects {
		kept = kept[:e.settings.MaxProjects]
	}

	for _, p := range kept {
		log.Info().Str("name", p.Name).Int("bookmarks", p.BookmarkCount).Float64("confidence", p.Confidence).Msg("project suggested")
	}
	return &types.ProjectList{Projects: kept}, nil
}

// FolderConfidence scales with folder size: base + count/100, capped
func (e *Engine) FolderConfidence(count int) float64 {
	return min(e.settings.FolderConfidenceCap, e.settings.FolderBaseConfidence+float64(count)/100)
}

// fromFolders turns large top-level folders into projects
func (e *Engine) fromFolders(bookmarks []types.EnrichedBookmark) []types.Project {
	counts := tally.New()
	indices := make(map[string][]int)
	for i, b := range bookmarks {
		top := b.FolderPath.TopLevel(e.rootFolder)
		if top == "" {
			continue
		}
		counts.Add(top)
		indices[top] = append(indices[top], i)
	}

	var projects []types.Project
	for _, entry := range counts.MostCommon(folderCandidates) {
		if entry.Count < e.settings.FolderMinBookmarks {
			continue
		}
		tags := tally.New()
		for _, idx := range indices[entry.Key] {
			tags.AddAll(bookmarks[idx].Tags)
		}
		projects = append(projects, types.Project{
			Name:            entry.Key,
			Description:     fmt.Sprintf("Bookmarks from %s folder", entry.Key),
			Source:          types.SourceFolderStructure,
			ClusterIDs:      []int{},
			BookmarkCount:   entry.Count,
			BookmarkIndices: indices[entry.Key],
			Confidence:      e.FolderConfidence(entry.Count),
			Keywords:        tags.TopKeys(projectKeywords),
		})
	}
	return projects
}

// fromWorkClusters proposes one project per large cluster with a strong work signal
func (e *Engine) fromWorkClusters(clusters []types.Cluster) []types.Project {
	var projects []types.Project
	for _, c := range clusters {
		n := overlap(c.Keywords, workVocabulary)
		if n < workMinOverlap || c.Size < e.settings.WorkMinClusterSize {
			continue
		}
		projects = append(projects, types.Project{
			Name:            c.Name + " Project",
			Description:     fmt.Sprintf("Work-related bookmarks in %s cluster", c.Name),
			Source:          types.SourceWorkCluster,
			ClusterIDs:      []int{c.ID},
			BookmarkCount:   c.Size,
			BookmarkIndices: c.BookmarkIndices,
			Confidence:      min(workConfidenceCap, workBaseConfidence+float64(n)/10),
			Keywords:        c.Keywords,
		})
	}
	return projects
}

func fromLearningClusters(clusters []types.Cluster) []types.Project {
	return merged(clusters, learningVocabulary, 1, types.Project{
		Name:        "Personal Learning",
		Description: "Tutorials, courses, and learning resources",
		Source:      types.SourceLearningCluster,
		Confidence:  learningConfidence,
	})
}

func fromTechClusters(clusters []types.Cluster) []types.Project {
	var projects []types.Project
	projects = append(projects, merged(clusters, frontendVocabulary, techMinOverlap, types.Project{
		Name:        "Frontend Development",
		Description: "UI/UX and frontend technology bookmarks",
		Source:      types.SourceTechCluster,
		Confidence:  frontendConfidence,
	})...)
	projects = append(projects, merged(clusters, cloudVocabulary, techMinOverlap, types.Project{
		Name:        "Cloud Infrastructure",
		Description: "AWS, Azure, and cloud infrastructure resources",
		Source:      types.SourceTechCluster,
		Confidence:  cloudConfidence,
	})...)
	return projects
}

// merged folds every cluster overlapping vocabulary by at least minOverlap into one
// project built on template. It returns nothing when no cluster qualifies.
func merged(clusters []types.Cluster, vocabulary map[string]bool, minOverlap int, template types.Project) []types.Project {
	p := template
	p.ClusterIDs = []int{}
	p.BookmarkIndices = []int{}
	keywords := tally.New()

	for _, c := range clusters {
		if overlap(c.Keywords, vocabulary) < minOverlap {
			continue
		}
		p.ClusterIDs = append(p.ClusterIDs, c.ID)
		p.BookmarkCount += c.Size
		p.BookmarkIndices = append(p.BookmarkIndices, c.BookmarkIndices...)
		keywords.AddAll(c.Keywords)
	}
	if len(p.ClusterIDs) == 0 {
		return nil
	}
	p.Keywords = keywords.TopKeys(projectKeywords)
	return []types.Project{p}
}

// Deduplicate keeps the first project of every group of similar names
func Deduplicate(projects []types.Project) []types.Project {
	var (
		unique []types.Project
		seen   []string
	)
	for _, p := range projects {
		name := strings.ToLower(p.Name)
		duplicate := false
		for _, s := range seen {
			if NamesSimilar(name, s) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, p)
			seen = append(seen, name)
		}
	}
	return unique
}

// NamesSimilar reports whether two lower-cased project names are identical, nested,
// or share at least half of the smaller name's words.
func NamesSimilar(a, b string) bool {
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	wordsA := wordSet(a)
	wordsB := wordSet(b)
	common := 0
	for w := range wordsA {
		if wordsB[w] {
			common++
		}
	}
	smaller := min(len(wordsA), len(wordsB))
	return smaller > 0 && float64(common)/float64(smaller) >= nameOverlapRatio
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
