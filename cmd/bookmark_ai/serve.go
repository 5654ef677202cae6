package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/bookmark-intelligence/internal/server"
)

var (
	servePort  int
	serveAIDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only query API",
	Long: `Start an HTTP server exposing clusters, suggested projects, folder
recommendations and bookmark search from the stored pipeline documents.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveAIDir, "ai-dir", "", "Directory holding the pipeline documents (overrides paths.ai_dir)")
	rootCmd.AddCommand(serveCmd)
}

// allowedOrigins reads the comma-separated ALLOWED_ORIGINS variable
func allowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ai-dir") {
		settings.Paths.AIDir = serveAIDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Port:           servePort,
		AIDir:          settings.Paths.AIDir,
		AllowedOrigins: allowedOrigins(),
	})
	return srv.Start(ctx)
}
