package backblaze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/kurin/blazer/b2"

	"github.com/questanalytics/s3parquet/pkg/source"
)

type Backend struct {
	name   string
	client *b2.Client
	bucket *b2.Bucket
}

func init() {
	source.RegisterBackend("backblaze", func(ctx context.Context, cfg source.Config) (source.Backend, error) {
		return New(ctx, cfg)
	})
}

// New creates a new Backblaze B2 backend
func New(ctx context.Context, cfg source.Config) (*Backend, error) {
	b2Cfg, err := parseConfig(cfg.Options)
	if err != nil {
		return nil, err
	}

	client, err := b2.NewClient(ctx, b2Cfg.AccountID, b2Cfg.ApplicationKey)
	if err != nil {
		return nil, source.WrapError(cfg.Name, "init", source.ErrAuthFailed)
	}

	bucket, err := client.Bucket(ctx, b2Cfg.BucketName)
	if err != nil {
		return nil, source.WrapError(cfg.Name, "get bucket", err)
	}

	return &Backend{
		name:   cfg.Name,
		client: client,
		bucket: bucket,
	}, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "backblaze" }

// Stat returns object metadata
func (b *Backend) Stat(ctx context.Context, key string) (*source.FileInfo, error) {
	obj := b.bucket.Object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if b2.IsNotExist(err) {
			return nil, source.WrapError(b.name, "stat", source.ErrNotFound)
		}
		return nil, source.WrapError(b.name, "stat", err)
	}

	return &source.FileInfo{
		Path:    key,
		Size:    attrs.Size,
		ModTime: attrs.UploadTimestamp,
	}, nil
}

// Exists checks if an object exists
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns objects under the prefix, sorted by key
func (b *Backend) List(ctx context.Context, prefix string) ([]source.FileInfo, error) {
	var files []source.FileInfo

	iter := b.bucket.List(ctx, b2.ListPrefix(prefix))
	for iter.Next() {
		obj := iter.Object()

		attrs, err := obj.Attrs(ctx)
		if err != nil {
			continue
		}

		// Skip 0-byte objects
		if attrs.Size == 0 {
			continue
		}

		files = append(files, source.FileInfo{
			Path:    obj.Name(),
			Size:    attrs.Size,
			ModTime: attrs.UploadTimestamp,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, source.WrapError(b.name, "list", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Fetch downloads an object to localPath
func (b *Backend) Fetch(ctx context.Context, key string, localPath string) error {
	obj := b.bucket.Object(key)
	reader := obj.NewReader(ctx)
	defer reader.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return source.WrapError(b.name, "download", err)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return source.WrapError(b.name, "download", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(localPath) // Clean up partial file
		if b2.IsNotExist(err) {
			return source.WrapError(b.name, "download", source.ErrNotFound)
		}
		return source.WrapError(b.name, "download", source.ErrTransfer)
	}

	return nil
}

// Close releases resources
func (b *Backend) Close() error {
	return nil
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{}

	if v, ok := options["account_id"].(string); ok {
		cfg.AccountID = v
	} else {
		return nil, fmt.Errorf("missing required option: account_id")
	}
	if v, ok := options["application_key"].(string); ok {
		cfg.ApplicationKey = v
	} else {
		return nil, fmt.Errorf("missing required option: application_key")
	}
	if v, ok := options["bucket_name"].(string); ok {
		cfg.BucketName = v
	} else {
		return nil, fmt.Errorf("missing required option: bucket_name")
	}

	return cfg, nil
}
