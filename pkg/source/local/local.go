package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/questanalytics/s3parquet/pkg/source"
)

type Backend struct {
	name     string
	basePath string
}

func init() {
	source.RegisterBackend("local", func(ctx context.Context, cfg source.Config) (source.Backend, error) {
		return New(cfg)
	})
}

// New creates a new local filesystem backend rooted at options["path"]
func New(cfg source.Config) (*Backend, error) {
	pathVal, ok := cfg.Options["path"]
	if !ok {
		return nil, fmt.Errorf("missing required option: path")
	}

	path, ok := pathVal.(string)
	if !ok {
		return nil, fmt.Errorf("path must be a string")
	}

	if _, err := os.Stat(path); err != nil {
		return nil, source.WrapError(cfg.Name, "init", err)
	}

	return &Backend{
		name:     cfg.Name,
		basePath: path,
	}, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "local" }

// Stat returns metadata about a file
func (b *Backend) Stat(ctx context.Context, key string) (*source.FileInfo, error) {
	fullPath := filepath.Join(b.basePath, key)
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, source.WrapError(b.name, "stat", source.ErrNotFound)
		}
		return nil, source.WrapError(b.name, "stat", err)
	}
	if info.IsDir() {
		// A directory is a prefix, not an object
		return nil, source.WrapError(b.name, "stat", source.ErrNotFound)
	}

	return &source.FileInfo{
		Path:    key,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Exists checks if a file exists
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

// List returns files under the prefix, sorted by path
func (b *Backend) List(ctx context.Context, prefix string) ([]source.FileInfo, error) {
	root := filepath.Join(b.basePath, prefix)

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, source.WrapError(b.name, "list", err)
	}

	var files []source.FileInfo
	if !info.IsDir() {
		files = append(files, source.FileInfo{Path: prefix, Size: info.Size(), ModTime: info.ModTime()})
		return files, nil
	}

	err = filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || fi.Size() == 0 {
			return nil
		}
		rel, err := filepath.Rel(b.basePath, path)
		if err != nil {
			return err
		}
		files = append(files, source.FileInfo{
			Path:    filepath.ToSlash(rel),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, source.WrapError(b.name, "list", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Fetch copies a file to localPath
func (b *Backend) Fetch(ctx context.Context, key string, localPath string) error {
	srcPath := filepath.Join(b.basePath, key)

	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return source.WrapError(b.name, "download", source.ErrNotFound)
		}
		return source.WrapError(b.name, "download", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return source.WrapError(b.name, "download", err)
	}

	dest, err := os.Create(localPath)
	if err != nil {
		return source.WrapError(b.name, "download", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		os.Remove(localPath) // Clean up partial file
		return source.WrapError(b.name, "download", source.ErrTransfer)
	}

	return nil
}

// Close is a no-op for the local backend
func (b *Backend) Close() error {
	return nil
}
