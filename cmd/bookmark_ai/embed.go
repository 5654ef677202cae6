package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/bookmark-intelligence/internal/embedding"
	"github.com/jonathan/bookmark-intelligence/internal/storage"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Check or collect an embedding batch job",
	Long: `Checks the status of the stored (or given) embedding batch job once and exits.
With --wait, polls until the job finishes and stores the retrieved vectors.`,
	RunE: runEmbed,
}

var (
	embedBatchID string
	embedAIDir   string
	embedWait    bool
)

func init() {
	embedCmd.Flags().StringVar(&embedBatchID, "batch-id", "", "Batch job to check (default: the stored job)")
	embedCmd.Flags().StringVar(&embedAIDir, "ai-dir", "", "Output directory (overrides paths.ai_dir)")
	embedCmd.Flags().BoolVar(&embedWait, "wait", false, "Wait for completion and store the embeddings")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ai-dir") {
		settings.Paths.AIDir = embedAIDir
	}

	store := storage.NewFileStore(settings.Paths.AIDir)
	manager, err := newEmbedder(settings, store)
	if err != nil {
		return err
	}
	if manager == nil {
		return fmt.Errorf("OPENAI_API_KEY is required to reach the embedding provider")
	}

	recorded, err := manager.LoadJob()
	if err != nil {
		return err
	}
	jobID := embedBatchID
	if jobID == "" && recorded != nil {
		jobID = recorded.ID
	}
	if jobID == "" {
		return fmt.Errorf("no embedding job recorded in %s; start one with 'bookmark_ai run --stage embed'", store.Dir())
	}

	// the fingerprint is only known for the recorded job
	inputHash := ""
	if recorded != nil && recorded.ID == jobID {
		inputHash = recorded.InputHash
	}
	return checkEmbedding(ctx, cmd, manager, store, jobID, inputHash, embedWait)
}

func checkEmbedding(ctx context.Context, cmd *cobra.Command, manager *embedding.Manager, store *storage.FileStore, jobID, inputHash string, wait bool) error {
	out := cmd.OutOrStdout()

	job, err := manager.Poll(ctx, jobID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Job %s: %s (%d/%d completed, %d failed)\n",
		job.ID, job.Status, job.RequestCounts.Completed, job.RequestCounts.Total, job.RequestCounts.Failed)

	if !wait {
		return nil
	}

	if !job.Status.IsTerminal() {
		if job, err = manager.AwaitCompletion(ctx, jobID, 0, 0); err != nil {
			return err
		}
	}
	if job.Status != embedding.StatusCompleted {
		return &embedding.JobFailedError{Job: job}
	}

	set, err := manager.Retrieve(ctx, jobID)
	if err != nil {
		return err
	}
	set.InputHash = inputHash
	if err := store.SaveEmbeddings(set); err != nil {
		return fmt.Errorf("failed to save embeddings: %w", err)
	}
	if err := manager.Finish(jobID); err != nil {
		return fmt.Errorf("embeddings stored but the job record could not be cleared: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Stored %d embeddings (%d dimensions) in %s\n", set.Len(), set.Dimensions(), store.Path(storage.EmbeddingsFile))
	return nil
}
