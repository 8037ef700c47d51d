package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questanalytics/s3parquet/pkg/config"
)

func TestWithEnvFallback(t *testing.T) {
	t.Run("env_fills_missing_fields", func(t *testing.T) {
		t.Setenv(config.EnvBucket, "env-bucket")
		t.Setenv(config.EnvAccessKey, "env-access")
		t.Setenv(config.EnvSecretKey, "env-secret")

		cfg := config.Config{URI: "data/table.parquet"}
		resolved := cfg.WithEnvFallback()

		assert.Equal(t, "env-bucket", resolved.Bucket)
		assert.Equal(t, "env-access", resolved.AccessKey)
		assert.Equal(t, "env-secret", resolved.SecretKey)
	})

	t.Run("explicit_values_win_over_env", func(t *testing.T) {
		t.Setenv(config.EnvBucket, "env-bucket")
		t.Setenv(config.EnvAccessKey, "env-access")
		t.Setenv(config.EnvSecretKey, "env-secret")

		cfg := config.Config{
			URI:       "data/table.parquet",
			Bucket:    "explicit-bucket",
			AccessKey: "explicit-access",
			SecretKey: "explicit-secret",
		}
		resolved := cfg.WithEnvFallback()

		assert.Equal(t, "explicit-bucket", resolved.Bucket)
		assert.Equal(t, "explicit-access", resolved.AccessKey)
		assert.Equal(t, "explicit-secret", resolved.SecretKey)
	})

	t.Run("original_config_is_not_mutated", func(t *testing.T) {
		t.Setenv(config.EnvBucket, "env-bucket")

		cfg := config.Config{URI: "data/table.parquet"}
		_ = cfg.WithEnvFallback()

		assert.Empty(t, cfg.Bucket)
	})
}

func TestMissingFields(t *testing.T) {
	t.Run("all_missing", func(t *testing.T) {
		cfg := config.Config{URI: "data/table.parquet"}
		assert.ElementsMatch(t, []string{"bucket", "access_key", "secret_key"}, cfg.MissingFields())
	})

	t.Run("complete_config", func(t *testing.T) {
		cfg := config.Config{
			URI:       "data/table.parquet",
			Bucket:    "bucket",
			AccessKey: "access",
			SecretKey: "secret",
		}
		assert.Empty(t, cfg.MissingFields())
	})
}

func TestDefaults(t *testing.T) {
	cfg := config.Config{}

	assert.Equal(t, "us-east-1", cfg.GetRegion())
	assert.Equal(t, "s3", cfg.GetSourceType())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.Equal(t, "json", cfg.GetLogFormat())

	cfg = config.Config{Region: "eu-west-1", SourceType: "local", LogLevel: "debug", LogFormat: "console"}

	assert.Equal(t, "eu-west-1", cfg.GetRegion())
	assert.Equal(t, "local", cfg.GetSourceType())
	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, "console", cfg.GetLogFormat())
}

func TestParseConfig(t *testing.T) {
	t.Run("valid_file", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"uri": "agg_files/historical/DocObject7.parquet",
			"bucket": "analytics",
			"region": "us-west-2",
			"force_path_style": true
		}`)

		cfg, err := config.ParseConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "agg_files/historical/DocObject7.parquet", cfg.URI)
		assert.Equal(t, "analytics", cfg.Bucket)
		assert.Equal(t, "us-west-2", cfg.Region)
		assert.True(t, cfg.ForcePathStyle)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := config.ParseConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed_json", func(t *testing.T) {
		path := writeConfigFile(t, `{"uri": `)
		_, err := config.ParseConfig(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid_file", func(t *testing.T) {
		path := writeConfigFile(t, `{"uri": "data/table.parquet", "log_level": "debug"}`)
		assert.NoError(t, config.Validate(path))
	})

	t.Run("missing_uri", func(t *testing.T) {
		path := writeConfigFile(t, `{"bucket": "analytics"}`)
		assert.Error(t, config.Validate(path))
	})

	t.Run("invalid_enum_value", func(t *testing.T) {
		path := writeConfigFile(t, `{"uri": "data/table.parquet", "log_level": "loud"}`)
		assert.Error(t, config.Validate(path))
	})

	t.Run("unknown_property", func(t *testing.T) {
		path := writeConfigFile(t, `{"uri": "data/table.parquet", "retention": 3}`)
		assert.Error(t, config.Validate(path))
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
