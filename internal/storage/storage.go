// Package storage persists uploaded product images on local disk or in S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"marketplace/internal/config"

	"github.com/rs/zerolog"
)

// PutInput describes an object to store.
type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

// PutResult identifies a stored object.
type PutResult struct {
	Key string
	URL string
}

// Storage stores and removes image objects.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a public URL produced by Put back to its key.
	KeyFromURL(url string) (string, bool)
}

// allowedExt lists accepted image extensions.
var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// SafeExt returns the lower-cased extension of filename when it is an
// accepted image type, or "".
func SafeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if allowedExt[ext] {
		return ext
	}
	return ""
}

// New builds the Storage selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (Storage, error) {
	logger = logger.With().Str("component", "storage").Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case "local":
		logger.Info().Str("dir", cfg.LocalDir).Msg("using local image storage")
		return NewLocal(cfg.LocalDir, cfg.LocalURLPrefix), nil
	case "s3":
		s, err := NewS3(ctx, S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("using S3 image storage")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
