// Package config provides loading and validation of the AI pipeline settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultSettingsPath is where the CLI looks for settings when --config is not given
const DefaultSettingsPath = "config/ai_settings.yaml"

// Settings is the full pipeline configuration.
// Every field is optional in the file; MergeWithDefaults fills the gaps.
type Settings struct {
	Paths       PathSettings       `yaml:"paths"`
	Embedding   EmbeddingSettings  `yaml:"embedding"`
	Tagging     TaggingSettings    `yaml:"tagging"`
	Clustering  ClusteringSettings `yaml:"clustering"`
	Projects    ProjectSettings    `yaml:"project_suggestion"`
	Folders     FolderSettings     `yaml:"folders"`
	DatabaseURL string             `yaml:"database_url"`
}

// PathSettings locates pipeline inputs and outputs
type PathSettings struct {
	Input string `yaml:"input"`  // Flat bookmark JSON document
	AIDir string `yaml:"ai_dir"` // Directory for job state and output documents
}

// EmbeddingSettings configures the batch embedding provider
type EmbeddingSettings struct {
	BaseURL          string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	Dimensions       int           `yaml:"dimensions" validate:"gte=0"`
	CompletionWindow string        `yaml:"completion_window"`
	PollInterval     time.Duration `yaml:"poll_interval" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout" validate:"gte=0"`
}

// TaggingSettings configures the generative annotation provider
type TaggingSettings struct {
	Provider    string  `yaml:"provider" validate:"omitempty,oneof=gemini openai"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
	Concurrency int     `yaml:"concurrency" validate:"gte=0"`
	PromptsFile string  `yaml:"prompts_file"` // Optional JSON overriding the built-in prompt templates
}

// ClusteringSettings configures the similarity clustering engine
type ClusteringSettings struct {
	MinClusters      int   `yaml:"min_clusters" validate:"gte=0"`
	MaxClusters      int   `yaml:"max_clusters" validate:"gte=0"`
	BatchSize        int   `yaml:"batch_size" validate:"gte=0"`
	RandomState      int64 `yaml:"random_state"`
	SweepRestarts    int   `yaml:"sweep_restarts" validate:"gte=0"`
	FinalRestarts    int   `yaml:"final_restarts" validate:"gte=0"`
	SweepMaxIter     int   `yaml:"sweep_max_iter" validate:"gte=0"`
	FinalMaxIter     int   `yaml:"final_max_iter" validate:"gte=0"`
	SilhouetteSample int   `yaml:"silhouette_sample" validate:"gte=0"`
}

// ProjectSettings configures the project suggestion engine
type ProjectSettings struct {
	MinConfidence        float64 `yaml:"min_confidence" validate:"gte=0,lte=1"`
	MaxProjects          int     `yaml:"max_projects" validate:"gte=0"`
	FolderMinBookmarks   int     `yaml:"folder_min_bookmarks" validate:"gte=0"`
	FolderBaseConfidence float64 `yaml:"folder_base_confidence" validate:"gte=0,lte=1"`
	FolderConfidenceCap  float64 `yaml:"folder_confidence_cap" validate:"gte=0,lte=1"`
	WorkMinClusterSize   int     `yaml:"work_min_cluster_size" validate:"gte=0"`
}

// FolderSettings configures the folder reorganization engine
type FolderSettings struct {
	RootFolder          string  `yaml:"root_folder"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gte=0,lte=1"`
	TechnologyMin       int     `yaml:"technology_min" validate:"gte=0"`
	LearningMin         int     `yaml:"learning_min" validate:"gte=0"`
	CategoryMin         int     `yaml:"category_min" validate:"gte=0"`
}

// DefaultSettings returns the settings used when no file overrides them
func DefaultSettings() Settings {
	return Settings{
		Paths: PathSettings{
			Input: "data/processed/bookmarks_flat.json",
			AIDir: "data/ai",
		},
		Embedding: EmbeddingSettings{
			BaseURL:          "https://api.openai.com",
			Model:            "text-embedding-3-small",
			Dimensions:       1536,
			CompletionWindow: "24h",
			PollInterval:     10 * time.Minute,
			Timeout:          26 * time.Hour,
		},
		Tagging: TaggingSettings{
			Provider:    "gemini",
			Temperature: 0.3,
			MaxTokens:   800,
			Concurrency: 50,
		},
		Clustering: ClusteringSettings{
			MinClusters:      8,
			MaxClusters:      15,
			BatchSize:        100,
			RandomState:      42,
			SweepRestarts:    3,
			FinalRestarts:    10,
			SweepMaxIter:     100,
			FinalMaxIter:     300,
			SilhouetteSample: 1000,
		},
		Projects: ProjectSettings{
			MinConfidence:        0.7,
			MaxProjects:          5,
			FolderMinBookmarks:   20,
			FolderBaseConfidence: 0.6,
			FolderConfidenceCap:  0.9,
			WorkMinClusterSize:   30,
		},
		Folders: FolderSettings{
			RootFolder:          "Bookmarks bar",
			SimilarityThreshold: 0.7,
			TechnologyMin:       15,
			LearningMin:         20,
			CategoryMin:         30,
		},
	}
}

// LoadSettings reads a YAML settings file, expanding ${VAR} references from the environment.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &s); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &s, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the settings hold sane values.
// Zero values are accepted since they are filled by MergeWithDefaults.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	c := s.Clustering
	if c.MinClusters != 0 && c.MinClusters < 2 {
		return fmt.Errorf("config error: 'min_clusters' must be at least 2")
	}
	if c.MinClusters != 0 && c.MaxClusters != 0 && c.MaxClusters < c.MinClusters {
		return fmt.Errorf("config error: 'max_clusters' (%d) must not be below 'min_clusters' (%d)", c.MaxClusters, c.MinClusters)
	}

	return nil
}

// MergeWithDefaults returns a copy with every zero-valued field taken from defaults.
func (s *Settings) MergeWithDefaults(defaults Settings) Settings {
	result := *s

	mergeString(&result.Paths.Input, defaults.Paths.Input)
	mergeString(&result.Paths.AIDir, defaults.Paths.AIDir)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)

	e := &result.Embedding
	mergeString(&e.BaseURL, defaults.Embedding.BaseURL)
	mergeString(&e.APIKey, defaults.Embedding.APIKey)
	mergeString(&e.Model, defaults.Embedding.Model)
	mergeInt(&e.Dimensions, defaults.Embedding.Dimensions)
	mergeString(&e.CompletionWindow, defaults.Embedding.CompletionWindow)
	if e.PollInterval == 0 {
		e.PollInterval = defaults.Embedding.PollInterval
	}
	if e.Timeout == 0 {
		e.Timeout = defaults.Embedding.Timeout
	}

	t := &result.Tagging
	mergeString(&t.Provider, defaults.Tagging.Provider)
	mergeString(&t.Model, defaults.Tagging.Model)
	mergeString(&t.APIKey, defaults.Tagging.APIKey)
	if t.Temperature == 0 {
		t.Temperature = defaults.Tagging.Temperature
	}
	mergeInt(&t.MaxTokens, defaults.Tagging.MaxTokens)
	mergeInt(&t.Concurrency, defaults.Tagging.Concurrency)

	c := &result.Clustering
	mergeInt(&c.MinClusters, defaults.Clustering.MinClusters)
	mergeInt(&c.MaxClusters, defaults.Clustering.MaxClusters)
	mergeInt(&c.BatchSize, defaults.Clustering.BatchSize)
	if c.RandomState == 0 {
		c.RandomState = defaults.Clustering.RandomState
	}
	mergeInt(&c.SweepRestarts, defaults.Clustering.SweepRestarts)
	mergeInt(&c.FinalRestarts, defaults.Clustering.FinalRestarts)
	mergeInt(&c.SweepMaxIter, defaults.Clustering.SweepMaxIter)
	mergeInt(&c.FinalMaxIter, defaults.Clustering.FinalMaxIter)
	mergeInt(&c.SilhouetteSample, defaults.Clustering.SilhouetteSample)

	p := &result.Projects
	mergeFloat(&p.MinConfidence, defaults.Projects.MinConfidence)
	mergeInt(&p.MaxProjects, defaults.Projects.MaxProjects)
	mergeInt(&p.FolderMinBookmarks, defaults.Projects.FolderMinBookmarks)
	mergeFloat(&p.FolderBaseConfidence, defaults.Projects.FolderBaseConfidence)
	mergeFloat(&p.FolderConfidenceCap, defaults.Projects.FolderConfidenceCap)
	mergeInt(&p.WorkMinClusterSize, defaults.Projects.WorkMinClusterSize)

	f := &result.Folders
	mergeString(&f.RootFolder, defaults.Folders.RootFolder)
	mergeFloat(&f.SimilarityThreshold, defaults.Folders.SimilarityThreshold)
	mergeInt(&f.TechnologyMin, defaults.Folders.TechnologyMin)
	mergeInt(&f.LearningMin, defaults.Folders.LearningMin)
	mergeInt(&f.CategoryMin, defaults.Folders.CategoryMin)

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func mergeFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}
