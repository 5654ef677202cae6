package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/bookmark-intelligence/internal/annotation"
	"github.com/jonathan/bookmark-intelligence/internal/config"
	"github.com/jonathan/bookmark-intelligence/internal/db"
	"github.com/jonathan/bookmark-intelligence/internal/embedding"
	"github.com/jonathan/bookmark-intelligence/internal/llm"
	"github.com/jonathan/bookmark-intelligence/internal/pipeline"
	"github.com/jonathan/bookmark-intelligence/internal/prompts"
	"github.com/jonathan/bookmark-intelligence/internal/storage"
)

// loadSettings reads the settings file, applies environment fallbacks and fills defaults.
// Without an explicit path the default location is used only if it exists.
func loadSettings(path string) (config.Settings, error) {
	var file config.Settings

	explicit := path != ""
	if !explicit {
		path = config.DefaultSettingsPath
	}

	loaded, err := config.LoadSettings(path)
	switch {
	case err == nil:
		if err := loaded.Validate(); err != nil {
			return config.Settings{}, err
		}
		file = *loaded
		log.Debug().Str("path", path).Msg("loaded AI settings")
	case !explicit && errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", path).Msg("no settings file, using defaults")
	default:
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}

	applyEnv(&file)
	return file.MergeWithDefaults(config.DefaultSettings()), nil
}

// applyEnv fills unset secrets from the environment
func applyEnv(s *config.Settings) {
	if s.Embedding.APIKey == "" {
		s.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if s.Tagging.APIKey == "" {
		if s.Tagging.Provider == string(llm.ProviderOpenAI) {
			s.Tagging.APIKey = os.Getenv("OPENAI_API_KEY")
		} else {
			s.Tagging.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if s.DatabaseURL == "" {
		s.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// llmConfig maps tagging settings onto the provider client configuration
func llmConfig(t config.TaggingSettings) *llm.Config {
	cfg := llm.ConfigFor(t.Provider)
	if t.Model != "" {
		cfg = cfg.WithModel(llm.TierLite, t.Model)
	}
	cfg.Temperature = t.Temperature
	cfg.MaxTokens = t.MaxTokens
	return cfg
}

// newEmbedder returns nil when no embedding API key is configured
func newEmbedder(settings config.Settings, store *storage.FileStore) (*embedding.Manager, error) {
	if settings.Embedding.APIKey == "" {
		return nil, nil
	}
	provider, err := embedding.NewOpenAIProvider(settings.Embedding.BaseURL, settings.Embedding.APIKey)
	if err != nil {
		return nil, err
	}
	return embedding.NewManager(provider, store, settings.Embedding), nil
}

// connectDatabase returns nil when no database is configured or it cannot be reached
func connectDatabase(ctx context.Context, url string) *db.DB {
	if url == "" {
		return nil
	}
	database, err := db.Connect(ctx, url)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, continuing without database persistence")
		return nil
	}
	if err := database.EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to prepare database schema, continuing without database persistence")
		database.Close()
		return nil
	}
	return database
}

// processorDeps holds the resources a processor owns so they can be released
type processorDeps struct {
	client   llm.Client
	database *db.DB
}

func (d processorDeps) Close() {
	if d.client != nil {
		_ = d.client.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

// newProcessor wires every configured provider into a pipeline processor
func newProcessor(ctx context.Context, settings config.Settings, store *storage.FileStore, opts ...pipeline.Option) (*pipeline.Processor, processorDeps, error) {
	var deps processorDeps

	embedder, err := newEmbedder(settings, store)
	if err != nil {
		return nil, deps, err
	}
	if embedder != nil {
		opts = append(opts, pipeline.WithEmbedder(embedder))
	}

	if settings.Tagging.APIKey != "" {
		deps.client, err = llm.NewClient(ctx, llmConfig(settings.Tagging), settings.Tagging.APIKey)
		if err != nil {
			return nil, deps, fmt.Errorf("failed to create %s client: %w", settings.Tagging.Provider, err)
		}
		var annotateOpts []annotation.Option
		if settings.Tagging.PromptsFile != "" {
			set, err := prompts.LoadFile(settings.Tagging.PromptsFile)
			if err != nil {
				deps.Close()
				return nil, processorDeps{}, err
			}
			annotateOpts = append(annotateOpts, annotation.WithPrompts(set))
		}
		opts = append(opts, pipeline.WithAnnotator(annotation.NewService(deps.client, settings.Tagging.Concurrency, annotateOpts...)))
	}

	if deps.database = connectDatabase(ctx, settings.DatabaseURL); deps.database != nil {
		opts = append(opts, pipeline.WithDatabase(deps.database))
	}

	return pipeline.NewProcessor(settings, store, opts...), deps, nil
}
