// Package s3upload publishes JSON reports to S3 or an S3-compatible store.
package s3upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader writes objects to a bucket.
type Uploader struct {
	client *s3.Client
	logger *slog.Logger
}

// NewUploader creates an uploader from an AWS config. A non-empty
// endpointOverride targets an S3-compatible store; usePathStyle addresses
// buckets by path instead of virtual host.
//
//	up := s3upload.NewUploader(cfg, "us-east-1", "", false, slog.Default())
//	err := up.Upload(ctx, "bench-results", "runs/27.json", payload)
func NewUploader(awsCfg aws.Config, region, endpointOverride string, usePathStyle bool, logger *slog.Logger) *Uploader {
	opts := func(o *s3.Options) {
		if region != "" {
			o.Region = region
		}
		if endpointOverride != "" {
			o.BaseEndpoint = aws.String(endpointOverride)
		}
		o.UsePathStyle = usePathStyle
	}

	return &Uploader{
		client: s3.NewFromConfig(awsCfg, opts),
		logger: logger,
	}
}

// Upload stores body as a JSON object at bucket/key.
func (u *Uploader) Upload(ctx context.Context, bucket, key string, body []byte) error {
	u.logger.Info("uploading report", "bucket", bucket, "key", key, "bytes", len(body))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3upload: PutObject %s/%s: %w", bucket, key, err)
	}

	u.logger.Info("upload complete", "bucket", bucket, "key", key)
	return nil
}

// ParseURI splits s3://bucket/key into its parts. Both must be non-empty.
//
//	bucket, key, err := s3upload.ParseURI("s3://bench-results/runs/27.json")
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("s3upload: parse %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3upload: %q is not an s3:// URI", uri)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3upload: %q needs both bucket and key", uri)
	}
	return bucket, key, nil
}
