package allowlist

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped files on local disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based allow-list loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "allowlist-loader").Logger(),
	}
}

// Load reads a gzipped allow-list file from disk.
func (l *fileLoader) Load(ctx context.Context, path string) (*List, error) {
	l.logger.Info().Str("file", path).Msg("loading allow-list file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open allow-list file")
		return nil, fmt.Errorf("failed to open allow-list file %s: %w", path, err)
	}
	defer file.Close()

	list, err := Parse(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read allow-list file")
		return nil, fmt.Errorf("failed to read allow-list file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("entries", list.Size()).
		Int("skipped", list.Skipped).
		Msg("allow-list file loaded")

	return list, nil
}
