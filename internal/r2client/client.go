// Package r2client provides a client for Cloudflare R2 object storage.
// It wraps the AWS S3 SDK to upload rendered report chart images and hand
// back the public URL that LINE image messages point at.
package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("r2client: object not found")

// chartPrefix is the key prefix for uploaded report chart images.
const chartPrefix = "charts/"

// Config holds R2 client configuration.
type Config struct {
	Endpoint      string // R2 endpoint URL (e.g., https://account-id.r2.cloudflarestorage.com)
	AccessKeyID   string
	SecretKey     string
	BucketName    string
	PublicBaseURL string // Public base URL of the bucket (LINE requires HTTPS image URLs)
}

// Client provides R2 object storage operations.
type Client struct {
	s3            *s3.Client
	bucket        string
	publicBaseURL string
}

// New creates a new R2 client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretKey == "" ||
		cfg.BucketName == "" || cfg.PublicBaseURL == "" {
		return nil, errors.New("r2client: all config fields are required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2client: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // Required for R2
	})

	return &Client{
		s3:            s3Client,
		bucket:        cfg.BucketName,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// UploadChart uploads a rendered chart PNG under a fresh random key and
// returns the public HTTPS URL of the uploaded object.
func (c *Client) UploadChart(ctx context.Context, png []byte) (string, error) {
	key := fmt.Sprintf("%s%s/%s.png", chartPrefix, time.Now().UTC().Format("2006-01-02"), uuid.New().String())

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("r2client: upload %q: %w", key, err)
	}

	return c.publicBaseURL + "/" + key, nil
}

// DeleteObject deletes an object from R2.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("r2client: delete %q: %w", key, err)
	}
	return nil
}

// PruneCharts deletes chart objects last modified before the cutoff.
// Returns the number of deleted objects. Old charts are safe to remove
// because LINE fetches and caches the image shortly after the reply.
func (c *Client) PruneCharts(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	var continuation *string

	for {
		page, err := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Prefix:            aws.String(chartPrefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return deleted, fmt.Errorf("r2client: list charts: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			if !obj.LastModified.Before(cutoff) {
				continue
			}
			if err := c.DeleteObject(ctx, *obj.Key); err != nil && !errors.Is(err, ErrNotFound) {
				return deleted, err
			}
			deleted++
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			return deleted, nil
		}
		continuation = page.NextContinuationToken
	}
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}
