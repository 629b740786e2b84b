// Package allowlist reads seller customer allow-lists from gzipped CSV files.
//
// Each record is `email,name,phone`. Blank lines and lines starting with '#'
// are ignored, as is a leading header row whose first field is "email".
package allowlist

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Entry is one allow-listed customer.
type Entry struct {
	Email string
	Name  string
	Phone string
}

// List is the parsed content of one or more allow-list files.
type List struct {
	Entries []Entry
	// Skipped counts malformed or duplicate records.
	Skipped int
}

// Size returns the number of usable entries.
func (l *List) Size() int {
	return len(l.Entries)
}

// Loader defines the interface for loading allow-list files.
type Loader interface {
	// Load reads a gzipped allow-list file.
	Load(ctx context.Context, path string) (*List, error)
}

// checkEvery is how many records are read between context checks.
const checkEvery = 10_000

// Parse reads a gzipped allow-list stream.
func Parse(ctx context.Context, r io.Reader) (*List, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	list := &List{Entries: []Entry{}}
	seen := make(map[string]struct{})

	for n := 0; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				list.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read allow-list: %w", err)
		}

		if n == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "email") {
			continue
		}

		entry, ok := toEntry(record)
		if !ok {
			list.Skipped++
			continue
		}

		key := strings.ToLower(entry.Email)
		if _, dup := seen[key]; dup {
			list.Skipped++
			continue
		}
		seen[key] = struct{}{}
		list.Entries = append(list.Entries, entry)
	}

	return list, nil
}

func toEntry(record []string) (Entry, bool) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	e := Entry{Email: field(0), Name: field(1), Phone: field(2)}
	at := strings.IndexByte(e.Email, '@')
	if at < 1 || at == len(e.Email)-1 || strings.ContainsAny(e.Email, " \t") {
		return Entry{}, false
	}
	if e.Name == "" {
		e.Name = e.Email[:at]
	}
	return e, true
}

// LoadAll loads several files concurrently and merges them in path order.
// An email appearing in more than one file is kept once.
func LoadAll(ctx context.Context, loader Loader, paths []string, logger zerolog.Logger) (*List, error) {
	logger = logger.With().Str("component", "allowlist").Logger()

	lists := make([]*List, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			list, err := loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load allow-list %s: %w", path, err)
			}
			lists[i] = list
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Int("file_count", len(paths)).Msg("allow-list load failed")
		return nil, err
	}

	merged := &List{Entries: []Entry{}}
	seen := make(map[string]struct{})
	for _, list := range lists {
		merged.Skipped += list.Skipped
		for _, e := range list.Entries {
			key := strings.ToLower(e.Email)
			if _, dup := seen[key]; dup {
				merged.Skipped++
				continue
			}
			seen[key] = struct{}{}
			merged.Entries = append(merged.Entries, e)
		}
	}

	logger.Info().
		Int("file_count", len(paths)).
		Int("entries", merged.Size()).
		Int("skipped", merged.Skipped).
		Msg("allow-lists loaded")

	return merged, nil
}
