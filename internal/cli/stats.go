package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector store statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := buildConfig()

	index, err := newIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = index.Close() }()

	count, err := index.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Anzahl an Embeddings im Vector Store: %d\n", count)
	return nil
}
