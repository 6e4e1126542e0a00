package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lesli-ai/leslibot/internal/config"
)

// SearchCmd returns the search command
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the knowledge base",
		Long:  "Run the same substring search the bot uses and print matching chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	addLimitFlag(cmd.Flags())

	return cmd
}

func addLimitFlag(flags *pflag.FlagSet) {
	flags.IntP("limit", "n", 0, "Maximum number of results (defaults to SEARCH_LIMIT)")
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.SearchLimit
	}

	query := strings.Join(args, " ")
	results, err := buildIngestService(cfg, pool).Search(ctx, query, limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s / %s [%s]\n", i+1, r.BookName, r.ChapterLabel, r.Category)
		if r.Keywords != "" {
			fmt.Printf("   keywords: %s\n", r.Keywords)
		}
		fmt.Printf("   %s\n\n", r.Content)
	}
	return nil
}
