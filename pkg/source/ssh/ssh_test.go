package ssh_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questanalytics/s3parquet/pkg/source"
	"github.com/questanalytics/s3parquet/pkg/source/ssh"
)

func TestNew_MissingOptions(t *testing.T) {
	t.Run("missing_host", func(t *testing.T) {
		_, err := ssh.New(source.Config{
			Name: "sftp_source",
			Type: "ssh",
			Options: map[string]interface{}{
				"user":        "deploy",
				"remote_path": "/srv/data",
			},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "host")
	})

	t.Run("missing_user", func(t *testing.T) {
		_, err := ssh.New(source.Config{
			Name: "sftp_source",
			Type: "ssh",
			Options: map[string]interface{}{
				"host":        "files.example.com",
				"remote_path": "/srv/data",
			},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user")
	})

	t.Run("missing_remote_path", func(t *testing.T) {
		_, err := ssh.New(source.Config{
			Name: "sftp_source",
			Type: "ssh",
			Options: map[string]interface{}{
				"host": "files.example.com",
				"user": "deploy",
			},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "remote_path")
	})
}

func TestFactoryRegistration(t *testing.T) {
	factory := source.NewFactory()

	// Option parsing runs, so the constructor is registered; an unknown
	// type would fail with "unknown backend type" instead.
	_, err := factory.Create(context.Background(), source.Config{
		Name:    "sftp_source",
		Type:    "ssh",
		Options: map[string]interface{}{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required option: host")
}
