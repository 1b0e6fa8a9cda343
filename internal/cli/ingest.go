package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gesetzbot/gesetzbot/internal/ingest"
)

var (
	ingestSettings  string
	ingestDownloads string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download and index all desired laws from the registry",
	Long: `Ingest reads the law registry, downloads the XML archive of every law
marked desired and not yet loaded, extracts and chunks its paragraphs,
embeds them and loads them into the vector store.

The registry is saved after each law, so an aborted run resumes where it
stopped.`,
	RunE: runIngest,
}

var ingestDeleteCmd = &cobra.Command{
	Use:   "delete <law>",
	Short: "Remove a law from the vector store",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestDelete,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestDeleteCmd)

	ingestCmd.Flags().StringVar(&ingestSettings, "settings", "", "law registry file (default from config)")
	ingestCmd.Flags().StringVar(&ingestDownloads, "downloads", "", "download directory (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := buildConfig()
	if ingestSettings != "" {
		cfg.Paths.Settings = ingestSettings
	}
	if ingestDownloads != "" {
		cfg.Paths.Downloads = ingestDownloads
	}

	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	index, err := newIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = index.Close() }()

	loader := ingest.NewLoader(cfg, embedder, index)
	if err := loader.LoadFromSettings(ctx); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Println("✓ Ingestion complete")
	return nil
}

func runIngestDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := buildConfig()

	index, err := newIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = index.Close() }()

	// Deleting needs no embedder.
	loader := ingest.NewLoader(cfg, nil, index)
	if err := loader.DeleteLaw(ctx, args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("✓ Deleted %s from the vector store\n", args[0])
	return nil
}
