package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lesli-ai/leslibot/internal/config"
)

// BooksCmd returns the books command
func BooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List ingested books",
		RunE:  runBooks,
	}
}

func runBooks(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := connect(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer pool.Close()

	books, err := buildIngestService(cfg, pool).Books(ctx)
	if err != nil {
		return err
	}

	if len(books) == 0 {
		fmt.Println("Knowledge base is empty.")
		return nil
	}

	total := 0
	for _, b := range books {
		fmt.Printf("%-50s %6d chunks\n", b.BookName, b.ChunkCount)
		total += b.ChunkCount
	}
	fmt.Printf("%-50s %6d chunks\n", fmt.Sprintf("total (%d books)", len(books)), total)
	return nil
}
