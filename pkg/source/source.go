package source

import (
	"context"
	"time"
)

// Backend represents an object store that parquet data can be fetched from
type Backend interface {
	// Name returns a human-readable name for this backend (e.g., "s3_primary")
	Name() string

	// Type returns the backend type (s3, backblaze, ssh, local)
	Type() string

	// Exists checks if an object exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// Stat returns metadata about a specific object
	// key: object key relative to the backend root
	Stat(ctx context.Context, key string) (*FileInfo, error)

	// List returns all objects stored under the given prefix
	// Returns objects sorted by key, ascending
	List(ctx context.Context, prefix string) ([]FileInfo, error)

	// Fetch downloads a single object to the local filesystem
	// key: object key in the backend
	// localPath: absolute path the object is written to
	Fetch(ctx context.Context, key string, localPath string) error

	// Close releases resources (connections, sessions)
	Close() error
}

// FileInfo represents metadata about a stored object
type FileInfo struct {
	Path    string    // Object key relative to backend root
	Size    int64     // Size in bytes
	ModTime time.Time // Last modification time
}

// Config represents source backend configuration
type Config struct {
	Name    string                 `json:"name"`    // User-friendly name (e.g., "s3_primary")
	Type    string                 `json:"type"`    // Backend type: s3, backblaze, ssh, local
	Options map[string]interface{} `json:"options"` // Backend-specific options
}

// Result represents the outcome of fetching one object
type Result struct {
	Key      string
	Size     int64
	Success  bool
	Error    error
	Duration time.Duration
}
