// Package pipeline orchestrates the embedding, annotation, clustering, project and folder stages.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/bookmark-intelligence/internal/annotation"
	"github.com/jonathan/bookmark-intelligence/internal/clustering"
	"github.com/jonathan/bookmark-intelligence/internal/config"
	"github.com/jonathan/bookmark-intelligence/internal/db"
	"github.com/jonathan/bookmark-intelligence/internal/embedding"
	"github.com/jonathan/bookmark-intelligence/internal/folders"
	"github.com/jonathan/bookmark-intelligence/internal/metrics"
	"github.com/jonathan/bookmark-intelligence/internal/observability"
	"github.com/jonathan/bookmark-intelligence/internal/pipeline/steps"
	"github.com/jonathan/bookmark-intelligence/internal/projects"
	"github.com/jonathan/bookmark-intelligence/internal/storage"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for one pipeline run
type RunOptions struct {
	InputPath  string
	Stage      string
	BatchID    string // resume this embedding job instead of the stored one
	NewBatch   bool   // ignore any stored job and submit a fresh one
	Clusters   int    // fixed cluster count; 0 selects automatically
	Verbose    bool
	OnProgress ProgressCallback
}

// Result holds whatever documents the run produced
type Result struct {
	RunID       uuid.UUID
	Embeddings  *types.EmbeddingSet
	Enrichments []types.Enrichment
	Bookmarks   []types.EnrichedBookmark
	Clusters    *types.ClusterResult
	Projects    *types.ProjectList
	Folders     *types.FolderAnalysis
}

// Processor runs pipeline stages against a document store
type Processor struct {
	settings  config.Settings
	store     *storage.FileStore
	embedder  *embedding.Manager
	annotator *annotation.Service
	clusterer *clustering.Engine
	suggester *projects.Engine
	folders   *folders.Engine
	database  *db.DB
	printer   *observability.Printer
}

// Option configures a Processor
type Option func(*Processor)

// WithEmbedder enables the embed stage
func WithEmbedder(m *embedding.Manager) Option {
	return func(p *Processor) { p.embedder = m }
}

// WithAnnotator enables the tag stage
func WithAnnotator(s *annotation.Service) Option {
	return func(p *Processor) { p.annotator = s }
}

// WithDatabase mirrors output documents into PostgreSQL
func WithDatabase(d *db.DB) Option {
	return func(p *Processor) { p.database = d }
}

// WithOutput redirects verbose summaries (default: discarded)
func WithOutput(w io.Writer) Option {
	return func(p *Processor) { p.printer = observability.NewPrinter(w) }
}

// NewProcessor creates a processor. settings should already be merged with defaults.
func NewProcessor(settings config.Settings, store *storage.FileStore, opts ...Option) *Processor {
	p := &Processor{
		settings:  settings,
		store:     store,
		clusterer: clustering.NewEngine(settings.Clustering),
		suggester: projects.NewEngine(settings.Projects, settings.Folders.RootFolder),
		folders:   folders.NewEngine(settings.Folders),
		printer:   observability.NewPrinter(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func emitProgress(opts *RunOptions, runID uuid.UUID, stage, message string, content any) {
	if opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{Stage: stage, Message: message, Content: content}
	if runID != uuid.Nil {
		event.RunID = runID.String()
	}
	opts.OnProgress(event)
}

// Run executes opts.Stage. embed and tag store their own documents; cluster
// reads them back, and all runs embed and tag in parallel before clustering.
func (p *Processor) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Stage == "" {
		opts.Stage = steps.StageAll
	}
	if err := steps.ValidateDependencies(p.store, opts.Stage); err != nil {
		return nil, err
	}

	bookmarks, err := LoadBookmarks(opts.InputPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("stage", opts.Stage).Int("bookmarks", len(bookmarks)).Str("input", opts.InputPath).Msg("starting AI processing")

	result := &Result{}
	if p.database != nil {
		result.RunID, err = p.database.CreateRun(ctx, opts.Stage, opts.InputPath)
		if err != nil {
			log.Warn().Err(err).Msg("failed to create database run, continuing without database persistence")
		}
	}

	err = p.runStage(ctx, &opts, bookmarks, result)

	if p.database != nil && result.RunID != uuid.Nil {
		status := db.RunStatusCompleted
		if err != nil {
			status = db.RunStatusFailed
		}
		if cerr := p.database.CompleteRun(ctx, result.RunID, status); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to complete database run")
		}
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("stage", opts.Stage).Str("dir", p.store.Dir()).Msg("AI processing complete")
	return result, nil
}

func (p *Processor) runStage(ctx context.Context, opts *RunOptions, bookmarks []types.Bookmark, result *Result) error {
	if opts.Verbose && (opts.Stage == steps.StageAll || opts.Stage == steps.StageTag || opts.Stage == steps.StageEmbed) {
		p.printer.PrintCostEstimate(len(bookmarks), embedding.EstimateCost(len(bookmarks)), annotation.EstimateCost(len(bookmarks)))
	}

	switch opts.Stage {
	case steps.StageEmbed:
		set, err := p.embed(ctx, opts, result.RunID, bookmarks)
		result.Embeddings = set
		return err

	case steps.StageTag:
		enrichments, err := p.tag(ctx, opts, result.RunID, bookmarks)
		result.Enrichments = enrichments
		return err

	case steps.StageCluster:
		set, err := p.store.LoadEmbeddings()
		if err != nil {
			return fmt.Errorf("failed to load embeddings: %w", err)
		}
		enrichments, inputHash, err := p.store.LoadEnrichments()
		if err != nil {
			return fmt.Errorf("failed to load enrichments: %w", err)
		}
		if err := checkInput(storage.EnrichmentsFile, steps.StageTag, inputHash, types.Fingerprint(bookmarks)); err != nil {
			return err
		}
		result.Embeddings, result.Enrichments = set, enrichments
		return p.analyze(ctx, opts, bookmarks, result)

	case steps.StageAll:
		// Embed failures leave tagging running; a tag failure stops the embed wait.
		embedCtx, cancelEmbed := context.WithCancel(ctx)
		defer cancelEmbed()

		var g errgroup.Group
		g.Go(func() error {
			set, err := p.embed(embedCtx, opts, result.RunID, bookmarks)
			if err != nil {
				return fmt.Errorf("embedding stage failed: %w", err)
			}
			result.Embeddings = set
			return nil
		})
		g.Go(func() error {
			enrichments, err := p.tag(ctx, opts, result.RunID, bookmarks)
			if err != nil {
				cancelEmbed()
				return fmt.Errorf("tagging stage failed: %w", err)
			}
			result.Enrichments = enrichments
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		return p.analyze(ctx, opts, bookmarks, result)
	}
	return fmt.Errorf("unknown stage: %s", opts.Stage)
}

// timed records the duration of fn under the stage label
func timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StageDurationSeconds.WithLabelValues(stage, status).Observe(time.Since(start).Seconds())
	return err
}

func (p *Processor) embed(ctx context.Context, opts *RunOptions, runID uuid.UUID, bookmarks []types.Bookmark) (*types.EmbeddingSet, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("embedding stage requires an embedding provider (set OPENAI_API_KEY)")
	}

	fingerprint := types.Fingerprint(bookmarks)

	var set *types.EmbeddingSet
	err := timed(steps.StageEmbed, func() error {
		jobID := opts.BatchID
		if jobID == "" && !opts.NewBatch {
			pending, err := p.embedder.PendingJob(bookmarks)
			if err != nil {
				return err
			}
			jobID = pending
		}

		if jobID == "" {
			var err error
			if jobID, err = p.embedder.Submit(ctx, bookmarks); err != nil {
				return err
			}
			emitProgress(opts, runID, steps.StageEmbed, fmt.Sprintf("Submitted embedding job %s for %d bookmarks", jobID, len(bookmarks)), nil)
		} else {
			log.Info().Str("job_id", jobID).Msg("resuming embedding batch job")
			emitProgress(opts, runID, steps.StageEmbed, fmt.Sprintf("Resuming embedding job %s", jobID), nil)
		}

		if _, err := p.embedder.AwaitCompletion(ctx, jobID, 0, 0); err != nil {
			return err
		}

		retrieved, err := p.embedder.Retrieve(ctx, jobID)
		if err != nil {
			return err
		}
		retrieved.InputHash = fingerprint
		if err := p.store.SaveEmbeddings(retrieved); err != nil {
			return fmt.Errorf("failed to save embeddings: %w", err)
		}
		if err := p.embedder.Finish(jobID); err != nil {
			log.Warn().Err(err).Str("job_id", jobID).Msg("failed to clear the finished embedding job")
		}
		set = retrieved
		emitProgress(opts, runID, steps.StageEmbed, fmt.Sprintf("Retrieved %d of %d embeddings", set.Len(), len(bookmarks)), nil)
		return nil
	})
	return set, err
}

// tagProgressEvery is how many annotations pass between progress events
const tagProgressEvery = 50

func (p *Processor) tag(ctx context.Context, opts *RunOptions, runID uuid.UUID, bookmarks []types.Bookmark) ([]types.Enrichment, error) {
	if p.annotator == nil {
		return nil, fmt.Errorf("tagging stage requires a generative model client (set GEMINI_API_KEY or OPENAI_API_KEY)")
	}

	var enrichments []types.Enrichment
	err := timed(steps.StageTag, func() error {
		onProgress := func(completed, total int) {
			if completed%tagProgressEvery == 0 || completed == total {
				log.Debug().Int("completed", completed).Int("total", total).Msg("annotation progress")
				emitProgress(opts, runID, steps.StageTag, fmt.Sprintf("Annotated %d/%d bookmarks", completed, total), nil)
			}
		}

		var err error
		enrichments, err = p.annotator.AnnotateAll(ctx, bookmarks, p.settings.Tagging.Concurrency, onProgress)
		if err != nil {
			return err
		}
		if err := p.store.SaveEnrichments(types.Fingerprint(bookmarks), enrichments); err != nil {
			return fmt.Errorf("failed to save enrichments: %w", err)
		}
		return nil
	})
	return enrichments, err
}

// analyze clusters the embedded bookmarks and derives projects and folder recommendations
func (p *Processor) analyze(ctx context.Context, opts *RunOptions, bookmarks []types.Bookmark, result *Result) error {
	return timed(steps.StageCluster, func() error {
		if result.Embeddings != nil {
			if err := checkInput(storage.EmbeddingsFile, steps.StageEmbed, result.Embeddings.InputHash, types.Fingerprint(bookmarks)); err != nil {
				return err
			}
		}
		if len(result.Enrichments) != len(bookmarks) {
			return fmt.Errorf("enrichments cover %d of %d bookmarks; rerun the tag stage", len(result.Enrichments), len(bookmarks))
		}
		set := alignEmbeddings(result.Embeddings, len(bookmarks))
		if set.Len() == 0 {
			return fmt.Errorf("no embeddings available for %d bookmarks; rerun the embed stage", len(bookmarks))
		}

		enriched := types.Enrich(bookmarks, result.Enrichments)
		clusters, err := p.clusterer.Cluster(set.Vectors, set.Subset(enriched), opts.Clusters)
		if err != nil {
			return fmt.Errorf("clustering failed: %w", err)
		}
		RemapClusters(clusters, set.Indices, len(bookmarks))
		types.AssignClusters(enriched, clusters)
		metrics.ClustersFormed.Set(float64(clusters.NClusters))
		emitProgress(opts, result.RunID, steps.StageCluster, fmt.Sprintf("Formed %d clusters from %d embedded bookmarks", clusters.NClusters, set.Len()), nil)

		suggested, err := p.suggester.Suggest(clusters, enriched)
		if err != nil {
			return fmt.Errorf("project suggestion failed: %w", err)
		}
		analysis, err := p.folders.Analyze(enriched, clusters)
		if err != nil {
			return fmt.Errorf("folder analysis failed: %w", err)
		}

		if err := p.saveDocuments(enriched, clusters, suggested, analysis); err != nil {
			return err
		}
		p.mirror(ctx, result.RunID, db.Documents{Bookmarks: enriched, Clusters: clusters, Projects: suggested, Folders: analysis})

		if opts.Verbose {
			p.printer.PrintClusters(clusters)
			p.printer.PrintProjects(suggested)
			p.printer.PrintFolderAnalysis(analysis)
		}
		emitProgress(opts, result.RunID, steps.StageCluster,
			fmt.Sprintf("Suggested %d projects and %d folder changes", len(suggested.Projects), len(analysis.ReorganizationPlan)), analysis.Summary)

		result.Bookmarks = enriched
		result.Clusters = clusters
		result.Projects = suggested
		result.Folders = analysis
		return nil
	})
}

func (p *Processor) saveDocuments(bookmarks []types.EnrichedBookmark, clusters *types.ClusterResult, suggested *types.ProjectList, analysis *types.FolderAnalysis) error {
	if err := p.store.SaveBookmarks(bookmarks); err != nil {
		return fmt.Errorf("failed to save enriched bookmarks: %w", err)
	}
	if err := p.store.SaveClusters(clusters); err != nil {
		return fmt.Errorf("failed to save clusters: %w", err)
	}
	if err := p.store.SaveProjects(suggested); err != nil {
		return fmt.Errorf("failed to save projects: %w", err)
	}
	if err := p.store.SaveFolderAnalysis(analysis); err != nil {
		return fmt.Errorf("failed to save folder recommendations: %w", err)
	}
	return nil
}

// mirror copies the documents into the database. Failures are logged only.
func (p *Processor) mirror(ctx context.Context, runID uuid.UUID, docs db.Documents) {
	if p.database == nil || runID == uuid.Nil {
		return
	}
	if err := p.database.SaveDocuments(ctx, runID, docs); err != nil {
		log.Warn().Err(err).Str("run_id", runID.String()).Msg("failed to mirror documents to database")
	}
}

// alignEmbeddings drops vectors whose index does not address a bookmark
func alignEmbeddings(set *types.EmbeddingSet, n int) *types.EmbeddingSet {
	if set == nil {
		return &types.EmbeddingSet{}
	}
	out := &types.EmbeddingSet{Model: set.Model}
	for i, idx := range set.Indices {
		if idx < 0 || idx >= n || i >= len(set.Vectors) {
			log.Warn().Int("index", idx).Int("bookmarks", n).Msg("discarding embedding for unknown bookmark")
			continue
		}
		out.Indices = append(out.Indices, idx)
		out.Vectors = append(out.Vectors, set.Vectors[i])
	}
	if dropped := n - out.Len(); dropped > 0 {
		log.Warn().Int("unembedded", dropped).Msg("bookmarks without embeddings stay unclustered")
	}
	return out
}

// RemapClusters rewrites cluster indices computed over the embedded subset into
// positions in the full bookmark list. Labels grows to n entries; positions
// without an embedding are labelled types.UnclusteredID.
func RemapClusters(result *types.ClusterResult, indices []int, n int) {
	for ci := range result.Clusters {
		c := &result.Clusters[ci]
		for j, local := range c.BookmarkIndices {
			c.BookmarkIndices[j] = indices[local]
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = types.UnclusteredID
	}
	for local, label := range result.Labels {
		labels[indices[local]] = label
	}
	result.Labels = labels
}
