package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// BookSourceConfig holds configuration for BookSource
type BookSourceConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// BookSource mirrors book files from an S3-compatible bucket into a local
// directory before ingestion scans it.
type BookSource struct {
	client *s3.Client
	bucket string
}

// NewBookSource creates a new BookSource with the given configuration
func NewBookSource(ctx context.Context, cfg BookSourceConfig) (*BookSource, error) {
	// Custom resolver for S3-compatible endpoints
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &BookSource{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// SyncTo downloads bucket objects with supported book extensions into dir,
// skipping files already present. Per-object failures are logged and do not
// stop the sync. Returns the number of newly downloaded files.
func (s *BookSource) SyncTo(ctx context.Context, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create books directory: %w", err)
	}

	downloaded := 0
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return downloaded, fmt.Errorf("failed to list bucket %s: %w", s.bucket, err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !domain.IsSupportedFile(key) {
				continue
			}
			dest := filepath.Join(dir, filepath.Base(key))
			if _, err := os.Stat(dest); err == nil {
				continue
			}
			if err := s.download(ctx, key, dest); err != nil {
				log.Printf("storage: failed to download %s: %v", key, err)
				continue
			}
			log.Printf("storage: downloaded %s", key)
			downloaded++
		}
	}

	return downloaded, nil
}

func (s *BookSource) download(ctx context.Context, key, dest string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	// Write to a temp file first so a torn download never looks like a book.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dest)
}
