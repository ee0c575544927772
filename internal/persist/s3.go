// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package persist

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/netSkope/table-export-tool/internal/naming"
	"go.uber.org/zap"
)

const (
	maxS3Retries      = 5
	s3InitialDelay    = 1 * time.Second
	s3UploadPartSize  = 10 * 1024 * 1024
	s3UploadParallel  = 3
)

// S3 is a structured remote backend: record subdirectories become key
// prefixes under a bucket, files become objects.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   *zap.Logger
}

type s3Handle string

func (h s3Handle) Path() string { return string(h) }

// NewS3 creates an S3-backed persistence backend. The AWS default credential
// chain is used; AWS_ENDPOINT_URL switches to a custom endpoint with
// path-style addressing (for LocalStack testing).
func NewS3(ctx context.Context, bucket, prefix, region string, logger *zap.Logger) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // Required for LocalStack
			logger.Info("Using custom S3 endpoint", zap.String("endpoint", endpoint))
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = s3UploadPartSize
		u.Concurrency = s3UploadParallel
	})

	return &S3{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		logger:   logger,
	}, nil
}

func (b *S3) SupportsStructuredStorage() bool { return true }

// PickDirectory returns the configured prefix; there is no interactive
// selection for remote storage.
func (b *S3) PickDirectory(context.Context) (Handle, error) {
	return s3Handle(b.prefix), nil
}

// CreateSubdirectory is purely name composition: S3 prefixes exist once an
// object is written under them, so re-creation is trivially idempotent.
func (b *S3) CreateSubdirectory(_ context.Context, parent Handle, name string) (Handle, error) {
	if parent == nil {
		return nil, fmt.Errorf("parent prefix handle is nil")
	}
	clean := naming.Sanitize(name)
	if clean == "" {
		return nil, fmt.Errorf("subdirectory name sanitizes to empty")
	}
	return s3Handle(path.Join(parent.Path(), clean)), nil
}

func (b *S3) WriteFile(ctx context.Context, dir Handle, name string, content []byte) Result {
	if dir == nil {
		return Result{Success: false, Message: "no destination prefix", FileName: name}
	}
	return b.putObject(ctx, path.Join(dir.Path(), name), name, content)
}

func (b *S3) DownloadSingleFile(ctx context.Context, name string, content []byte) Result {
	return b.putObject(ctx, path.Join(b.prefix, name), name, content)
}

func (b *S3) putObject(ctx context.Context, key, name string, content []byte) Result {
	var lastErr error
	delay := s3InitialDelay

	for attempt := 1; attempt <= maxS3Retries; attempt++ {
		_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(content),
		})
		if err == nil {
			b.logger.Debug("Object uploaded",
				zap.String("s3_key", key),
				zap.Int("size", len(content)))
			return Result{Success: true, Message: fmt.Sprintf("s3://%s/%s uploaded", b.bucket, key), FileName: name}
		}

		lastErr = err
		if attempt < maxS3Retries {
			b.logger.Warn("Upload failed, retrying",
				zap.String("s3_key", key),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxS3Retries),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return Result{Success: false, Message: ctx.Err().Error(), FileName: name}
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return Result{
		Success:  false,
		Message:  fmt.Sprintf("upload failed after %d attempts: %v", maxS3Retries, lastErr),
		FileName: name,
	}
}
