package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/bookmark-intelligence/internal/db"
	"github.com/jonathan/bookmark-intelligence/internal/storage"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline runs recorded in PostgreSQL",
	Long:  "Requires database_url in the settings file or DATABASE_URL in the environment.",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show a run and its stored documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsRestoreCmd = &cobra.Command{
	Use:   "restore RUN_ID",
	Short: "Write a run's documents back into the AI directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsRestore,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete RUN_ID",
	Short: "Delete a run and its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

var (
	runsLimit int
	runsAIDir string
)

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")
	runsRestoreCmd.Flags().StringVar(&runsAIDir, "ai-dir", "", "Output directory (overrides paths.ai_dir)")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsRestoreCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

// openDatabase connects using the configured database URL
func openDatabase(ctx context.Context) (*db.DB, error) {
	settings, err := loadSettings(configPath)
	if err != nil {
		return nil, err
	}
	if settings.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return db.Connect(ctx, settings.DatabaseURL)
}

func parseRunID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run id %q: %w", arg, err)
	}
	return id, nil
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTAGE\tSTATUS\tCREATED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Stage, r.Status, r.CreatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}
	artifacts, err := database.ListArtifacts(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run %s\n  stage:  %s\n  input:  %s\n  status: %s\n", run.ID, run.Stage, run.InputPath, run.Status)
	for _, a := range artifacts {
		_, _ = fmt.Fprintf(out, "  - %s (%d bytes)\n", a.Step, a.SizeBytes)
	}
	return nil
}

func runRunsRestore(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ai-dir") {
		settings.Paths.AIDir = runsAIDir
	}

	ctx := cmd.Context()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	docs, err := database.LoadDocuments(ctx, id)
	if err != nil {
		return err
	}

	store := storage.NewFileStore(settings.Paths.AIDir)
	restored, err := restoreDocuments(store, docs)
	if err != nil {
		return err
	}
	if restored == 0 {
		return fmt.Errorf("run %s has no stored documents", id)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Restored %d documents from run %s into %s\n", restored, id, store.Dir())
	return nil
}

// restoreDocuments writes every document present in docs and returns how many were written
func restoreDocuments(store *storage.FileStore, docs *db.Documents) (int, error) {
	n := 0
	if docs.Bookmarks != nil {
		if err := store.SaveBookmarks(docs.Bookmarks); err != nil {
			return n, err
		}
		n++
	}
	if docs.Clusters != nil {
		if err := store.SaveClusters(docs.Clusters); err != nil {
			return n, err
		}
		n++
	}
	if docs.Projects != nil {
		if err := store.SaveProjects(docs.Projects); err != nil {
			return n, err
		}
		n++
	}
	if docs.Folders != nil {
		if err := store.SaveFolderAnalysis(docs.Folders); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteRun(ctx, id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
	return nil
}
