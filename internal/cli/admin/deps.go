package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lesli-ai/leslibot/internal/config"
	"github.com/lesli-ai/leslibot/internal/database"
	"github.com/lesli-ai/leslibot/internal/extract"
	"github.com/lesli-ai/leslibot/internal/ingest"
	"github.com/lesli-ai/leslibot/internal/repository"
	"github.com/lesli-ai/leslibot/internal/storage"
)

// buildIngestService wires the repositories, extractor, and ingestion service
// over one shared pool.
func buildIngestService(cfg *config.Config, pool *pgxpool.Pool) *ingest.Service {
	chunkRepo := repository.NewChunkRepository(pool)
	ingestionRepo := repository.NewIngestionRepository(pool)
	registry := extract.NewRegistry()

	return ingest.NewService(chunkRepo, ingestionRepo, registry, pool, ingest.ServiceConfig{
		Chunk:        ingest.ChunkConfig{ChunkSize: cfg.ChunkSize, MinChars: cfg.MinChunkChars},
		Tag:          ingest.DefaultTagConfig(),
		MinBookChars: cfg.MinBookChars,
	})
}

// syncBooksFromS3 mirrors bucket books into the first candidate directory
// when S3 is configured. Sync failures are logged, not fatal: local books
// still get ingested.
func syncBooksFromS3(ctx context.Context, cfg *config.Config) {
	if !cfg.HasS3() {
		return
	}

	source, err := storage.NewBookSource(ctx, storage.BookSourceConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		log.Printf("storage: s3 unavailable: %v", err)
		return
	}

	if len(cfg.BooksDirs) == 0 {
		return
	}
	n, err := source.SyncTo(ctx, cfg.BooksDirs[0])
	if err != nil {
		log.Printf("storage: book sync failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("storage: synced %d books from bucket %s", n, cfg.S3Bucket)
	}
}

// connect opens the shared pool and optionally applies migrations.
func connect(ctx context.Context, cfg *config.Config, runMigrate bool) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")

	if runMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return pool, nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate drives a database/sql connection, not the pgx pool
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
