package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// objectAPI is the part of *s3.Client the store calls.
type objectAPI interface {
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps reports as objects under an optional key prefix.
type S3Store struct {
	api    objectAPI
	bucket string
	prefix string
}

// NewS3Store wraps an existing client.
func NewS3Store(api objectAPI, bucket, prefix string) *S3Store {
	return &S3Store{api: api, bucket: bucket, prefix: prefix}
}

// NewS3StoreFromConfig loads AWS credentials from the environment and
// builds a client. A custom S3Endpoint (MinIO, LocalStack) switches to
// path-style addressing.
func NewS3StoreFromConfig(cfg Config) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("report: s3 bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("report: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func (s *S3Store) objectKey(name string) *string {
	if s.prefix == "" {
		return aws.String(name)
	}
	return aws.String(path.Join(s.prefix, name))
}

// Put uploads a report as application/json.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) error {
	if _, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         s.objectKey(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("report: put %s: %w", name, err)
	}
	return nil
}

// Get downloads a report, mapping a missing key to ErrNotFound.
func (s *S3Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(name),
	})
	var missing *types.NoSuchKey
	switch {
	case errors.As(err, &missing):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("report: get %s: %w", name, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("report: read %s: %w", name, err)
	}
	return data, nil
}

// Delete removes a report. Deleting a missing object succeeds.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(name),
	}); err != nil {
		return fmt.Errorf("report: delete %s: %w", name, err)
	}
	return nil
}
