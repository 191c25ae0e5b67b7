// Package storage uploads walk photos to S3 compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pawwalk/pawwalk/pkg/metrics"
)

// Object describes a single upload.
type Object struct {
	Body        io.Reader
	Name        string
	ContentType string
	Folder      string
}

// S3Config configures S3Storage.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage writes objects to a single bucket and returns their public URL.
type S3Storage struct {
	client        putObjectAPI
	bucket        string
	region        string
	publicBaseURL string
}

// NewS3Storage loads the default AWS credential chain and builds an S3 client.
// A custom endpoint switches to path-style addressing for S3 compatible stores.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage: bucket must be provided")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Storage(client, cfg), nil
}

func newS3Storage(client putObjectAPI, cfg S3Config) *S3Storage {
	return &S3Storage{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Upload stores the object under <folder>/<name> and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, obj Object) (string, error) {
	if obj.Body == nil || obj.Name == "" {
		return "", errors.New("storage: body and name are required")
	}

	key := path.Join(obj.Folder, obj.Name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		metrics.UpstreamRequests.WithLabelValues("storage", "error").Inc()
		return "", fmt.Errorf("storage: put object %s: %w", key, err)
	}
	metrics.UpstreamRequests.WithLabelValues("storage", "success").Inc()
	return s.PublicURL(key), nil
}

// PublicURL resolves the URL clients use to read key.
func (s *S3Storage) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	if s.region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
