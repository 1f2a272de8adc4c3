// Package archive keeps a copy of every generated survey document in an
// S3-compatible bucket under {prefix}/{userID}/{qualtricsID}.json.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tbourn/go-survey-backend/internal/config"
	"github.com/tbourn/go-survey-backend/internal/services"
)

const uploadTimeout = 30 * time.Second

// S3 uploads documents with the multipart-aware upload manager.
type S3 struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// New returns the archive selected by cfg: an S3 archive when enabled,
// otherwise Noop.
func New(ctx context.Context, cfg config.ArchiveConfig) (services.DocumentArchive, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return NewS3(ctx, cfg)
}

// NewS3 builds an S3 archive. Static credentials are used when both keys are
// set; otherwise the default AWS credential chain applies. A custom Endpoint
// switches to path-style addressing for S3-compatible stores.
func NewS3(ctx context.Context, cfg config.ArchiveConfig) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket not set")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
			// Many S3-compatible stores reject the newer default checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})
	return &S3{uploader: manager.NewUploader(client), bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Key returns the object key for a survey document.
func (a *S3) Key(userID uint, qualtricsID string) string {
	return path.Join(a.prefix, strconv.FormatUint(uint64(userID), 10), qualtricsID+".json")
}

// Put uploads doc.
func (a *S3) Put(ctx context.Context, userID uint, qualtricsID string, doc []byte) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(userID, qualtricsID)),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

// Noop discards documents.
type Noop struct{}

// Put does nothing.
func (Noop) Put(context.Context, uint, string, []byte) error { return nil }

var (
	_ services.DocumentArchive = (*S3)(nil)
	_ services.DocumentArchive = Noop{}
)
