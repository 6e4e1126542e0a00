package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lesli-ai/leslibot/internal/bot"
	"github.com/lesli-ai/leslibot/internal/config"
	"github.com/lesli-ai/leslibot/internal/jobs"
	"github.com/lesli-ai/leslibot/internal/openai"
	"github.com/lesli-ai/leslibot/internal/server"
	"github.com/lesli-ai/leslibot/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long:  "Ingest books, start the Telegram bot, the health server, and the rescan worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port for the health server (overrides PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasTelegram() {
		return errors.New("TELEGRAM_TOKEN is required to run the bot")
	}
	if !cfg.HasOpenAI() {
		return errors.New("OPENAI_API_KEY is required to run the bot")
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	if portFlag, _ := cmd.Flags().GetString("port"); portFlag != "" {
		cfg.Port = portFlag
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	pool, err := connect(ctx, cfg, !noMigrate)
	if err != nil {
		return err
	}
	defer pool.Close()

	syncBooksFromS3(ctx, cfg)

	ingestSvc := buildIngestService(cfg, pool)

	// Startup ingestion: failures for individual books are already handled
	// inside the run, a failed run should not keep the bot down.
	if _, err := ingestSvc.IngestDirectory(ctx, cfg.BooksDirs); err != nil {
		log.Printf("startup ingestion failed: %v", err)
		telemetry.CaptureError(ctx, err)
	}

	completer := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	tgBot, err := bot.New(cfg.TelegramToken, ingestSvc, completer, ingestSvc, bot.Config{
		SearchLimit: cfg.SearchLimit,
		BooksDirs:   cfg.BooksDirs,
	})
	if err != nil {
		return err
	}

	rescanWorker := jobs.NewWorker(rescanFunc(func(ctx context.Context) error {
		_, err := ingestSvc.IngestDirectory(ctx, cfg.BooksDirs)
		return err
	}), cfg.RescanEvery)
	go rescanWorker.Start(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(server.RouterConfig{Stats: ingestSvc}),
	}
	go func() {
		log.Printf("starting health server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("health server failed: %v", err)
		}
	}()

	botErr := make(chan error, 1)
	go func() {
		botErr <- tgBot.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("shutting down...")
	case err := <-botErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("bot stopped: %v", err)
		}
	}

	cancel()
	rescanWorker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// rescanFunc adapts a closure to the jobs.Rescanner interface.
type rescanFunc func(ctx context.Context) error

func (f rescanFunc) Rescan(ctx context.Context) error {
	return f(ctx)
}
