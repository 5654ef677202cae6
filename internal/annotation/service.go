package annotation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/bookmark-intelligence/internal/llm"
	"github.com/jonathan/bookmark-intelligence/internal/metrics"
	"github.com/jonathan/bookmark-intelligence/internal/prompts"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// DefaultConcurrency is the number of simultaneous model requests when none is configured
const DefaultConcurrency = 50

const unknownFolder = "Unknown"

// ProgressFunc receives (completed, total) after each bookmark finishes
type ProgressFunc func(completed, total int)

// Service annotates bookmarks through a generative model client
type Service struct {
	client      llm.Client
	tier        llm.ModelTier
	prompts     *prompts.Set
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLogger routes service logs to l instead of the global logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTier selects the model tier used for annotation (default lite)
func WithTier(tier llm.ModelTier) Option {
	return func(s *Service) { s.tier = tier }
}

// WithPrompts replaces the built-in prompt templates
func WithPrompts(set *prompts.Set) Option {
	return func(s *Service) { s.prompts = set }
}

// NewService creates an annotation service. A non-positive concurrency uses DefaultConcurrency.
func NewService(client llm.Client, concurrency int, opts ...Option) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	s := &Service{
		client:      client,
		tier:        llm.TierLite,
		prompts:     prompts.Default(),
		concurrency: concurrency,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildPrompt renders the analysis prompt for one bookmark
func (s *Service) BuildPrompt(b types.Bookmark) (string, error) {
	system, err := s.prompts.Get(prompts.AnnotationSystem)
	if err != nil {
		return "", err
	}

	folder := b.FolderPath.String()
	if folder == "" {
		folder = unknownFolder
	}
	input, err := s.prompts.Render(prompts.AnnotationInput, map[string]string{
		"URL":    b.URL,
		"Title":  b.Title,
		"Domain": b.Domain,
		"Folder": folder,
	})
	if err != nil {
		return "", err
	}
	return llm.BuildExtractionPrompt(llm.BookmarkAnalysisSchema(system), input), nil
}

// AnnotateOne enriches a single bookmark. It never fails: provider errors and
// unparseable responses produce the fallback enrichment, and missing fields are defaulted.
func (s *Service) AnnotateOne(ctx context.Context, b types.Bookmark) types.Enrichment {
	metrics.AnnotationsInFlight.Inc()
	defer metrics.AnnotationsInFlight.Dec()

	prompt, err := s.BuildPrompt(b)
	if err != nil {
		s.logger.Error().Err(err).Str("url", b.URL).Msg("failed to build annotation prompt, using fallback")
		metrics.AnnotationsTotal.WithLabelValues("fallback").Inc()
		return Fallback(b)
	}

	resp, err := s.client.GenerateJSON(ctx, prompt, s.tier)
	if err != nil {
		perr := &ProviderError{URL: b.URL, Cause: err}
		s.logger.Error().Err(perr).Str("url", b.URL).Msg("annotation request failed, using fallback")
		metrics.AnnotationsTotal.WithLabelValues("fallback").Inc()
		return Fallback(b)
	}

	raw, err := parseObject(resp)
	if err != nil {
		perr := &AnnotationParseError{URL: b.URL, Message: "response is not a JSON object", Cause: err}
		s.logger.Error().Err(perr).Str("url", b.URL).Msg("annotation response unusable, using fallback")
		metrics.AnnotationsTotal.WithLabelValues("fallback").Inc()
		return Fallback(b)
	}

	e, res, derivedTags := decodeEnrichment(raw, b)

	outcome := "model"
	if len(res.missing) > 0 {
		outcome = "defaulted"
		s.logger.Warn().
			Str("url", b.URL).
			Int("count", len(res.missing)).
			Strs("fields", res.missing).
			Msg("filled missing enrichment fields")
		metrics.AnnotationDefaultedFieldsTotal.Add(float64(len(res.missing)))
	}
	if len(res.coerced) > 0 {
		s.logger.Warn().Str("url", b.URL).Strs("fields", res.coerced).Msg("replaced invalid enrichment values with defaults")
	}
	if derivedTags {
		s.logger.Info().Str("url", b.URL).Strs("tags", e.Tags).Msg("model returned no tags, derived from title and domain")
	}
	metrics.AnnotationsTotal.WithLabelValues(outcome).Inc()

	return e
}

// AnnotateAll enriches every bookmark with at most limit requests in flight
// (the service default when limit <= 0). The result has the same length and
// order as bookmarks. A cancelled context returns no partial results.
func (s *Service) AnnotateAll(ctx context.Context, bookmarks []types.Bookmark, limit int, onProgress ProgressFunc) ([]types.Enrichment, error) {
	if limit <= 0 {
		limit = s.concurrency
	}
	total := len(bookmarks)
	results := make([]types.Enrichment, total)

	s.logger.Info().Int("bookmarks", total).Int("concurrency", limit).Msg("annotating bookmarks")

	var (
		mu        sync.Mutex
		completed int
	)
	sem := semaphore.NewWeighted(int64(limit))
	// Plain group: one bookmark failing never cancels its siblings.
	var g errgroup.Group

	for i := range bookmarks {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = s.safeAnnotate(ctx, i, bookmarks[i])

			mu.Lock()
			completed++
			if onProgress != nil {
				onProgress(completed, total)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("annotation cancelled after %d of %d bookmarks: %w", completed, total, err)
	}

	s.logger.Info().Int("bookmarks", total).Msg("completed annotation")
	return results, nil
}

// safeAnnotate converts a panicking task into the fallback enrichment
func (s *Service) safeAnnotate(ctx context.Context, idx int, b types.Bookmark) (e types.Enrichment) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Int("index", idx).Str("url", b.URL).Interface("panic", r).Msg("annotation task failed, using fallback")
			metrics.AnnotationsTotal.WithLabelValues("fallback").Inc()
			e = Fallback(b)
		}
	}()
	return s.AnnotateOne(ctx, b)
}

func parseObject(resp string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(resp)), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("response is null")
	}
	return raw, nil
}

// Token prices in USD per million tokens and average request sizes used for estimates
const (
	inputCostPerMillion  = 2.50
	outputCostPerMillion = 10.00
	avgInputTokens       = 800
	avgOutputTokens      = 400
)

// EstimateCost returns the approximate USD cost of annotating n bookmarks
func EstimateCost(n int) float64 {
	input := float64(n*avgInputTokens) / 1_000_000 * inputCostPerMillion
	output := float64(n*avgOutputTokens) / 1_000_000 * outputCostPerMillion
	return input + output
}
