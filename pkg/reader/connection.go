// Package reader fetches Parquet objects from an object store and
// converts them to JSON files on local disk.
package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/questanalytics/s3parquet/pkg/config"
	"github.com/questanalytics/s3parquet/pkg/logger"
	"github.com/questanalytics/s3parquet/pkg/parquet"
	"github.com/questanalytics/s3parquet/pkg/source"

	// Register the source backends the factory can build
	_ "github.com/questanalytics/s3parquet/pkg/source/backblaze"
	_ "github.com/questanalytics/s3parquet/pkg/source/local"
	_ "github.com/questanalytics/s3parquet/pkg/source/s3"
	_ "github.com/questanalytics/s3parquet/pkg/source/ssh"
)

// Connection represents one fetch-and-convert job: it downloads the
// object(s) at bucket/uri into <destination>/parquet and writes one JSON
// array file per row group into <destination>/json.
//
// Bucket and credentials fall back to the S3_BUCKET, S3_ACCESS and
// S3_SECRET environment variables when not set explicitly; a config that
// is still incomplete fails with source.ErrInvalidConfig on the first
// operation that needs connectivity, never at construction.
//
// A Connection owns its destination directory tree. Running two
// Connections against the same destination directory is caller misuse:
// the last writer wins on overlapping files.
type Connection struct {
	cfg     config.Config
	layout  Layout
	logger  zerolog.Logger
	factory *source.Factory
	backend source.Backend
}

// New creates a Connection for the object key or prefix uri. Only the
// local layout is computed here; no filesystem or network access happens
// until TestConnection or a download call.
func New(uri string, opts ...Option) (*Connection, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("uri must not be empty")
	}

	c := &Connection{
		cfg:     config.Config{URI: uri},
		logger:  *logger.Get(),
		factory: source.NewFactory(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.layout = newLayout(c.cfg.DestinationDir)

	return c, nil
}

// NewFromConfig creates a Connection from a parsed job configuration and
// initializes the global logger with the configured level and format.
func NewFromConfig(cfg config.Config, opts ...Option) (*Connection, error) {
	logger.Init(cfg.GetLogLevel(), cfg.GetLogFormat())

	base := func(c *Connection) {
		c.cfg = cfg
	}

	return New(cfg.URI, append([]Option{base}, opts...)...)
}

// ParentDestinationPath returns the parent destination directory
func (c *Connection) ParentDestinationPath() string {
	return c.layout.parent
}

// ParquetDestination returns the directory raw downloads are written to
func (c *Connection) ParquetDestination() string {
	return c.layout.parquetDir
}

// JSONDestination returns the directory converted JSON files are written to
func (c *Connection) JSONDestination() string {
	return c.layout.jsonDir
}

// TestConnection checks whether the configured uri exists in the bucket,
// as a single object or as a non-empty prefix. Absence is reported as
// false, not as an error; credential or connectivity failures are errors.
func (c *Connection) TestConnection(ctx context.Context) (bool, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return false, err
	}

	exists, err := backend.Exists(ctx, c.cfg.URI)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	entries, err := backend.List(ctx, asPrefix(c.cfg.URI))
	if err != nil {
		return false, err
	}

	return len(entries) > 0, nil
}

// DownloadAndConvertToJSON downloads the parquet object(s) at uri and
// writes one JSON file per row group into the json destination. Files
// written before a failure are left on disk; there is no rollback.
func (c *Connection) DownloadAndConvertToJSON(ctx context.Context) error {
	tables, err := c.downloadAndLoad(ctx)
	if err != nil {
		return err
	}

	written, err := parquet.WriteJSON(c.layout.jsonDir, tables)
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("json_dir", c.layout.jsonDir).
		Int("files", len(written)).
		Msg("conversion completed")

	return nil
}

// DownloadAndRead downloads the parquet object(s) at uri and returns the
// loaded tables without writing JSON output.
func (c *Connection) DownloadAndRead(ctx context.Context) ([]*parquet.Table, error) {
	return c.downloadAndLoad(ctx)
}

func (c *Connection) downloadAndLoad(ctx context.Context) ([]*parquet.Table, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	objects, err := c.resolveObjects(ctx, backend)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.layout.parquetDir, 0755); err != nil {
		return nil, fmt.Errorf("create parquet dir: %w", err)
	}

	fetcher := source.NewFetcher(c.logger)
	results := fetcher.Fetch(ctx, backend, objects, c.layout.parquetDir)
	for _, result := range results {
		if !result.Success {
			return nil, result.Error
		}
	}

	tables, err := parquet.ReadDir(c.layout.parquetDir)
	if err != nil {
		return nil, err
	}

	return tables, nil
}

// connect resolves the configuration and builds the source backend. The
// backend is built once and reused across operations.
func (c *Connection) connect(ctx context.Context) (source.Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}

	cfg := c.cfg.WithEnvFallback()

	// The local backend only needs a root path; everything else needs
	// bucket and credentials resolved before any network use. The ssh
	// backend additionally needs the endpoint, which carries its host.
	var missing []string
	switch cfg.GetSourceType() {
	case "local":
		if cfg.Bucket == "" {
			missing = []string{"bucket"}
		}
	case "ssh":
		missing = cfg.MissingFields()
		if cfg.Endpoint == "" {
			missing = append(missing, "endpoint")
		}
	default:
		missing = cfg.MissingFields()
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", source.ErrInvalidConfig, strings.Join(missing, ", "))
	}

	backend, err := c.factory.Create(ctx, source.Config{
		Name:    cfg.Bucket,
		Type:    cfg.GetSourceType(),
		Options: backendOptions(cfg),
	})
	if err != nil {
		return nil, err
	}

	c.backend = backend
	return backend, nil
}

// resolveObjects expands uri into the set of objects to fetch: the exact
// key when one exists, otherwise everything under the prefix except
// underscore-prefixed markers (_SUCCESS, _spark_metadata).
func (c *Connection) resolveObjects(ctx context.Context, backend source.Backend) ([]source.FileInfo, error) {
	uri := c.cfg.URI

	info, err := backend.Stat(ctx, uri)
	if err == nil {
		return []source.FileInfo{*info}, nil
	}
	if !errors.Is(err, source.ErrNotFound) {
		return nil, err
	}

	entries, err := backend.List(ctx, asPrefix(uri))
	if err != nil {
		return nil, err
	}

	var objects []source.FileInfo
	for _, entry := range entries {
		if strings.HasPrefix(path.Base(entry.Path), "_") {
			continue
		}
		objects = append(objects, entry)
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: %s", source.ErrNotFound, uri)
	}

	return objects, nil
}

// backendOptions maps the flat job config onto backend-specific options.
// For ssh the endpoint carries the host, the credentials become user and
// password, and the bucket is the remote base directory.
func backendOptions(cfg config.Config) map[string]interface{} {
	switch cfg.GetSourceType() {
	case "local":
		return map[string]interface{}{
			"path": cfg.Bucket,
		}
	case "ssh":
		return map[string]interface{}{
			"host":        cfg.Endpoint,
			"user":        cfg.AccessKey,
			"password":    cfg.SecretKey,
			"remote_path": cfg.Bucket,
		}
	case "backblaze":
		return map[string]interface{}{
			"account_id":      cfg.AccessKey,
			"application_key": cfg.SecretKey,
			"bucket_name":     cfg.Bucket,
		}
	default:
		return map[string]interface{}{
			"endpoint":          cfg.Endpoint,
			"region":            cfg.GetRegion(),
			"bucket":            cfg.Bucket,
			"access_key_id":     cfg.AccessKey,
			"secret_access_key": cfg.SecretKey,
			"force_path_style":  cfg.ForcePathStyle,
		}
	}
}

func asPrefix(uri string) string {
	return strings.TrimSuffix(uri, "/") + "/"
}
