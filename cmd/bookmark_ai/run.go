package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/bookmark-intelligence/internal/config"
	"github.com/jonathan/bookmark-intelligence/internal/pipeline"
	"github.com/jonathan/bookmark-intelligence/internal/pipeline/steps"
	"github.com/jonathan/bookmark-intelligence/internal/storage"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the AI enrichment pipeline",
	Long: `Runs one pipeline stage, or all of them:

  embed    submit (or resume) the batch embedding job and store the vectors
  tag      annotate every bookmark with tags, summary and classification
  cluster  cluster stored embeddings, suggest projects and analyze folders
  all      embed and tag in parallel, then cluster

An interrupted embed stage resumes the stored job on the next run.
Command-line flags override values from the settings file.`,
	RunE: runPipelineCmd,
}

var (
	runStage       string
	runInput       string
	runAIDir       string
	runBatchID     string
	runNewBatch    bool
	runClusters    int
	runConcurrency int
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVarP(&runStage, "stage", "s", steps.StageAll, "Stage to run: "+strings.Join(steps.Names(), ", "))
	runCommand.Flags().StringVarP(&runInput, "input", "i", "", "Flat bookmark JSON (overrides paths.input)")
	runCommand.Flags().StringVar(&runAIDir, "ai-dir", "", "Output directory (overrides paths.ai_dir)")
	runCommand.Flags().StringVar(&runBatchID, "batch-id", "", "Resume this embedding batch job")
	runCommand.Flags().BoolVar(&runNewBatch, "new-batch", false, "Ignore the stored embedding job and submit a new one")
	runCommand.Flags().IntVarP(&runClusters, "clusters", "k", 0, "Fixed cluster count (default: chosen by silhouette analysis)")
	runCommand.Flags().IntVar(&runConcurrency, "concurrency", 0, "Simultaneous annotation requests (overrides tagging.concurrency)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print cost estimates and result summaries")

	rootCmd.AddCommand(runCommand)
}

// applyRunFlags lets explicitly set flags override file settings
func applyRunFlags(cmd *cobra.Command, s *config.Settings) error {
	if cmd.Flags().Changed("input") {
		s.Paths.Input = runInput
	}
	if cmd.Flags().Changed("ai-dir") {
		s.Paths.AIDir = runAIDir
	}
	if cmd.Flags().Changed("concurrency") {
		if runConcurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1")
		}
		s.Tagging.Concurrency = runConcurrency
	}
	if runClusters < 0 {
		return fmt.Errorf("--clusters must not be negative")
	}
	if runBatchID != "" && runNewBatch {
		return fmt.Errorf("--batch-id and --new-batch are mutually exclusive")
	}
	return nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, &settings); err != nil {
		return err
	}

	store := storage.NewFileStore(settings.Paths.AIDir)
	processor, deps, err := newProcessor(ctx, settings, store, pipeline.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	defer deps.Close()

	result, err := processor.Run(ctx, pipeline.RunOptions{
		InputPath: settings.Paths.Input,
		Stage:     runStage,
		BatchID:   runBatchID,
		NewBatch:  runNewBatch,
		Clusters:  runClusters,
		Verbose:   runVerbose,
		OnProgress: func(e pipeline.ProgressEvent) {
			log.Info().Str("stage", e.Stage).Msg(e.Message)
		},
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Stage %s complete. Documents in %s\n", runStage, store.Dir())
	if result.Clusters != nil {
		_, _ = fmt.Fprintf(out, "  %d clusters, %d projects, %d plan entries\n",
			result.Clusters.NClusters, len(result.Projects.Projects), len(result.Folders.ReorganizationPlan))
	}
	return nil
}
