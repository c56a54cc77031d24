package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// S3Store wraps the S3 client for product images
type S3Store struct {
	s3Client *s3.Client
	config   *Config
}

// NewS3Store creates the client and checks that the bucket is reachable
func NewS3Store(ctx context.Context, cfg *Config) (*S3Store, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// R2, B2 and MinIO want path-style URLs
			o.UsePathStyle = true
		}
	})

	store := &S3Store{s3Client: s3Client, config: cfg}
	if _, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.GetBucketName())}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.GetBucketName(), err)
	}

	log.Infof("[Storage] Using S3 bucket: %s", cfg.GetBucketName())
	return store, nil
}

func (c *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = contentTypeFor(key)
	}
	input := &s3.PutObjectInput{
		Bucket:       aws.String(c.config.GetBucketName()),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
		Metadata: map[string]string{
			"upload-source": "marktplatz",
		},
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Debugf("[Storage] Uploaded s3://%s/%s (%d bytes)", c.config.GetBucketName(), key, size)
	return c.URL(key), nil
}

func (c *S3Store) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.GetBucketName()),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

// URL prefers the configured public base (CDN or bucket website) and falls
// back to the path-style endpoint URL.
func (c *S3Store) URL(key string) string {
	if c.config.PublicBaseURL != "" {
		return c.config.PublicBaseURL + "/" + key
	}
	if c.config.EndpointURL != "" {
		return strings.TrimRight(c.config.EndpointURL, "/") + "/" + c.config.GetBucketName() + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.config.GetBucketName(), c.config.Region, key)
}
