package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8000"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	// BooksDirs are candidate book directories, tried in priority order;
	// the first one containing supported files wins.
	BooksDirs []string `envconfig:"BOOKS_DIRS" default:"/app/books,./books,/books"`

	ChunkSize     int           `envconfig:"CHUNK_SIZE" default:"1000"`
	MinChunkChars int           `envconfig:"MIN_CHUNK_CHARS" default:"50"`
	MinBookChars  int           `envconfig:"MIN_BOOK_CHARS" default:"100"`
	SearchLimit   int           `envconfig:"SEARCH_LIMIT" default:"3"`
	RescanEvery   time.Duration `envconfig:"RESCAN_INTERVAL" default:"10m"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"lesli-books"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LESLI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) HasTelegram() bool {
	return c.TelegramToken != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
