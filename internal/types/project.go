package types

// ProjectSource identifies which heuristic produced a project suggestion
type ProjectSource string

// Project sources
const (
	SourceFolderStructure ProjectSource = "folder_structure"
	SourceWorkCluster     ProjectSource = "work_cluster"
	SourceLearningCluster ProjectSource = "learning_cluster"
	SourceTechCluster     ProjectSource = "tech_cluster"
)

// Project is a suggested grouping of bookmarks
type Project struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Source          ProjectSource `json:"source"`
	ClusterIDs      []int         `json:"cluster_ids"`
	BookmarkCount   int           `json:"bookmark_count"`
	BookmarkIndices []int         `json:"bookmark_indices"`
	Confidence      float64       `json:"confidence"`
	Keywords        []string      `json:"keywords"`
}

// ProjectList is the stored projects document
type ProjectList struct {
	Projects []Project `json:"projects"`
}

// FindProject returns the project with the exact given name
func (l *ProjectList) FindProject(name string) (Project, bool) {
	if l == nil {
		return Project{}, false
	}
	for _, p := range l.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return Project{}, false
}
