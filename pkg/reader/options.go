package reader

import (
	"github.com/rs/zerolog"

	"github.com/questanalytics/s3parquet/pkg/source"
)

// Option configures a Connection at construction time
type Option func(*Connection)

// WithBucket sets the bucket explicitly instead of the S3_BUCKET fallback
func WithBucket(bucket string) Option {
	return func(c *Connection) {
		c.cfg.Bucket = bucket
	}
}

// WithCredentials sets the access and secret keys explicitly instead of
// the S3_ACCESS/S3_SECRET fallbacks
func WithCredentials(accessKey, secretKey string) Option {
	return func(c *Connection) {
		c.cfg.AccessKey = accessKey
		c.cfg.SecretKey = secretKey
	}
}

// WithDestinationDir sets the parent directory for the parquet/ and json/
// subdirectories. Defaults to a timestamp-named directory under the
// system temp directory.
func WithDestinationDir(dir string) Option {
	return func(c *Connection) {
		c.cfg.DestinationDir = dir
	}
}

// WithEndpoint points the S3 client at a custom endpoint (MinIO, localstack)
func WithEndpoint(endpoint string) Option {
	return func(c *Connection) {
		c.cfg.Endpoint = endpoint
	}
}

// WithRegion sets the S3 region (defaults to us-east-1)
func WithRegion(region string) Option {
	return func(c *Connection) {
		c.cfg.Region = region
	}
}

// WithPathStyle forces path-style addressing, required by MinIO/localstack
func WithPathStyle() Option {
	return func(c *Connection) {
		c.cfg.ForcePathStyle = true
	}
}

// WithSourceType selects the source backend type (default: s3)
func WithSourceType(sourceType string) Option {
	return func(c *Connection) {
		c.cfg.SourceType = sourceType
	}
}

// WithLogger replaces the global logger for this connection
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithBackend injects a pre-built source backend, bypassing the factory
// and credential resolution. Mainly an injection seam for tests and for
// backend options the flat config cannot carry (key-based ssh auth).
func WithBackend(backend source.Backend) Option {
	return func(c *Connection) {
		c.backend = backend
	}
}
