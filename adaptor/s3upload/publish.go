package s3upload

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/gurre/collatz-backoff-go/state/config"
)

// Publish uploads body to r.S3URI. Static credentials are used when both keys
// are set; otherwise the default AWS credential chain resolves them.
//
//	err := s3upload.Publish(ctx, cfg.Report, report.Probe(outcome), logger)
func Publish(ctx context.Context, r config.Report, body []byte, logger *slog.Logger) error {
	bucket, key, err := ParseURI(r.S3URI)
	if err != nil {
		return err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if r.Region != "" {
		opts = append(opts, awsconfig.WithRegion(r.Region))
	}
	if r.AccessKeyID != "" && r.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(r.AccessKeyID, r.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("s3upload: load AWS config: %w", err)
	}

	return NewUploader(awsCfg, r.Region, r.Endpoint, r.UsePathStyle, logger).Upload(ctx, bucket, key, body)
}
