// Package report exports finished validation runs for later review.
package report

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a requested report does not exist.
var ErrNotFound = errors.New("report: not found")

// Store persists encoded run reports under a name.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}

// Config holds configuration for creating a Store.
type Config struct {
	Type       string // "", "local" or "s3"
	Path       string // base directory for local store
	S3Bucket   string
	S3Prefix   string
	S3Endpoint string
	S3Region   string
}

// New creates a Store based on cfg. An empty Type disables export and
// returns a nil Store. Unsupported types fall back to local storage with a
// warning.
func New(cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "local":
		return NewLocalFileStore(cfg.Path)
	case "s3":
		return NewS3StoreFromConfig(cfg)
	default:
		logger.Warn().
			Str("type", cfg.Type).
			Msg("unsupported report store type, defaulting to local")
		return NewLocalFileStore(cfg.Path)
	}
}
