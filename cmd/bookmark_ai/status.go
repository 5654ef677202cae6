package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/bookmark-intelligence/internal/observability"
	"github.com/jonathan/bookmark-intelligence/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which pipeline documents exist",
	RunE:  runStatus,
}

var statusAIDir string

func init() {
	statusCmd.Flags().StringVar(&statusAIDir, "ai-dir", "", "Output directory (overrides paths.ai_dir)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ai-dir") {
		settings.Paths.AIDir = statusAIDir
	}

	store := storage.NewFileStore(settings.Paths.AIDir)
	jobID, err := store.LoadJobID()
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintStoreStatus(store.Dir(), jobID, store.Status())
	return nil
}
