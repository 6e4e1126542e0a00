package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lesli-ai/leslibot/internal/config"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [dir...]",
		Short: "Ingest books into the knowledge base",
		Long:  "Scan the given directories (or the configured candidates) and load new books",
		RunE:  runIngest,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	pool, err := connect(ctx, cfg, !noMigrate)
	if err != nil {
		return err
	}
	defer pool.Close()

	syncBooksFromS3(ctx, cfg)

	dirs := cfg.BooksDirs
	if len(args) > 0 {
		dirs = args
	}

	report, err := buildIngestService(cfg, pool).IngestDirectory(ctx, dirs)
	if err != nil {
		return err
	}

	fmt.Printf("Directory: %s\n", report.Directory)
	fmt.Printf("Processed: %d\n", len(report.Processed))
	for _, name := range report.Processed {
		fmt.Printf("  + %s\n", name)
	}
	fmt.Printf("Skipped:   %d\n", len(report.Skipped))
	for _, name := range report.Skipped {
		fmt.Printf("  = %s\n", name)
	}
	fmt.Printf("Failed:    %d\n", len(report.Failed))
	for _, name := range report.Failed {
		fmt.Printf("  ! %s\n", name)
	}

	if len(report.Failed) > 0 {
		return fmt.Errorf("%d books failed to ingest", len(report.Failed))
	}
	return nil
}
