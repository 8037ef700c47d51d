package config

import "os"

// Environment variables used as fallback sources when a value is not
// supplied explicitly.
const (
	EnvAccessKey = "S3_ACCESS"
	EnvSecretKey = "S3_SECRET"
	EnvBucket    = "S3_BUCKET"
)

// Config describes a single fetch-and-convert job
type Config struct {
	URI            string `json:"uri"`                        // object key or prefix inside the bucket
	Bucket         string `json:"bucket,omitempty"`           // falls back to S3_BUCKET
	AccessKey      string `json:"access_key,omitempty"`       // falls back to S3_ACCESS
	SecretKey      string `json:"secret_key,omitempty"`       // falls back to S3_SECRET
	DestinationDir string `json:"destination_dir,omitempty"`  // parent directory for parquet/ and json/
	Endpoint       string `json:"endpoint,omitempty"`         // custom S3 endpoint (MinIO/localstack), or host for ssh
	Region         string `json:"region,omitempty"`           // default: us-east-1
	ForcePathStyle bool   `json:"force_path_style,omitempty"` // for MinIO/localstack
	SourceType     string `json:"source_type,omitempty"`      // s3, backblaze, ssh, local (default: s3)
	LogLevel       string `json:"log_level,omitempty"`        // debug, info, warn, error (default: info)
	LogFormat      string `json:"log_format,omitempty"`       // json, console (default: json)
}

// WithEnvFallback returns a copy of the config with bucket and credentials
// resolved from the environment where they were not set explicitly.
// Precedence: explicit value > environment variable.
func (c Config) WithEnvFallback() Config {
	if c.Bucket == "" {
		c.Bucket = os.Getenv(EnvBucket)
	}
	if c.AccessKey == "" {
		c.AccessKey = os.Getenv(EnvAccessKey)
	}
	if c.SecretKey == "" {
		c.SecretKey = os.Getenv(EnvSecretKey)
	}
	return c
}

// MissingFields reports which required connection fields are still unset
// after fallback resolution. An empty result means the config is complete.
func (c Config) MissingFields() []string {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if c.AccessKey == "" {
		missing = append(missing, "access_key")
	}
	if c.SecretKey == "" {
		missing = append(missing, "secret_key")
	}
	return missing
}

// GetRegion returns the configured region (defaults to us-east-1)
func (c *Config) GetRegion() string {
	if c.Region != "" {
		return c.Region
	}
	return "us-east-1"
}

// GetSourceType returns the source backend type (defaults to s3)
func (c *Config) GetSourceType() string {
	if c.SourceType != "" {
		return c.SourceType
	}
	return "s3"
}

// GetLogLevel returns the log level (defaults to info)
func (c *Config) GetLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return "info"
}

// GetLogFormat returns the log format (defaults to json)
func (c *Config) GetLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	return "json"
}
