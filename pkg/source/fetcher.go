package source

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher downloads a set of objects from a backend, one at a time.
// Each object gets a single attempt; the first failure aborts the batch.
type Fetcher struct {
	logger zerolog.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(logger zerolog.Logger) *Fetcher {
	return &Fetcher{logger: logger}
}

// Fetch downloads the given objects into destDir, keeping their basenames.
// It returns one Result per attempted object; objects after the first
// failure are not attempted.
func (f *Fetcher) Fetch(ctx context.Context, backend Backend, objects []FileInfo, destDir string) []Result {
	results := make([]Result, 0, len(objects))

	for _, obj := range objects {
		start := time.Now()
		localPath := filepath.Join(destDir, path.Base(obj.Path))

		f.logger.Debug().
			Str("backend", backend.Name()).
			Str("type", backend.Type()).
			Str("key", obj.Path).
			Msg("starting download")

		err := backend.Fetch(ctx, obj.Path, localPath)
		if err == nil {
			err = verifyLocalFile(backend, localPath)
		}
		duration := time.Since(start)

		result := Result{
			Key:      obj.Path,
			Size:     obj.Size,
			Success:  err == nil,
			Error:    err,
			Duration: duration,
		}
		results = append(results, result)

		if err != nil {
			f.logger.Error().
				Err(err).
				Str("backend", backend.Name()).
				Str("key", obj.Path).
				Dur("duration", duration).
				Msg("download failed")
			break
		}

		f.logger.Info().
			Str("backend", backend.Name()).
			Str("key", obj.Path).
			Dur("duration", duration).
			Msg("download succeeded")
	}

	return results
}

// verifyLocalFile checks that a fetched file actually landed on disk with
// content. A missing or near-empty file means the transfer was cut short.
func verifyLocalFile(backend Backend, localPath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return WrapError(backend.Name(), "verify", fmt.Errorf("%w: %v", ErrTransfer, err))
	}
	if info.Size() <= 1 {
		return WrapError(backend.Name(), "verify", fmt.Errorf("%w: %d bytes at %s", ErrTransfer, info.Size(), localPath))
	}
	return nil
}
