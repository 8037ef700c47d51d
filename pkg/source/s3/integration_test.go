//go:build integration
// +build integration

package s3_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	pqgo "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"

	"github.com/questanalytics/s3parquet/pkg/reader"
	"github.com/questanalytics/s3parquet/pkg/source"
	s3source "github.com/questanalytics/s3parquet/pkg/source/s3"
)

// S3Credentials holds S3 access credentials
type S3Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

type sampleRow struct {
	ID   int64     `parquet:"id"`
	Name string    `parquet:"name"`
	TS   time.Time `parquet:"ts,timestamp"`
}

func TestFetchAndConvertIntegration(t *testing.T) {
	// Skip in short mode
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	lsContainer, endpoint, creds, err := setupLocalStackContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start LocalStack: %v", err)
	}
	defer lsContainer.Terminate(ctx)

	client, err := newS3Client(ctx, endpoint, creds)
	require.NoError(t, err)

	_, err = client.CreateBucket(ctx, &awss3.CreateBucketInput{
		Bucket: aws.String("analytics"),
	})
	require.NoError(t, err)

	// Upload a two-part parquet "directory" plus a Spark success marker
	uploadObject(t, ctx, client, "analytics", "agg/doc.parquet/part-00000.parquet", fixtureBytes(t, 3))
	uploadObject(t, ctx, client, "analytics", "agg/doc.parquet/part-00001.parquet", fixtureBytes(t, 2))
	uploadObject(t, ctx, client, "analytics", "agg/doc.parquet/_SUCCESS", []byte("xx"))

	t.Run("backend_operations", func(t *testing.T) {
		backend, err := s3source.New(ctx, source.Config{
			Name: "analytics",
			Type: "s3",
			Options: map[string]interface{}{
				"endpoint":          endpoint,
				"region":            "us-east-1",
				"bucket":            "analytics",
				"access_key_id":     creds.AccessKeyID,
				"secret_access_key": creds.SecretAccessKey,
				"force_path_style":  true,
			},
		})
		require.NoError(t, err)
		defer backend.Close()

		exists, err := backend.Exists(ctx, "agg/doc.parquet/part-00000.parquet")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = backend.Exists(ctx, "agg/nope.parquet")
		require.NoError(t, err)
		assert.False(t, exists)

		files, err := backend.List(ctx, "agg/doc.parquet/")
		require.NoError(t, err)
		assert.Len(t, files, 3)
	})

	t.Run("download_and_convert", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out")

		conn, err := reader.New("agg/doc.parquet",
			reader.WithBucket("analytics"),
			reader.WithCredentials(creds.AccessKeyID, creds.SecretAccessKey),
			reader.WithEndpoint(endpoint),
			reader.WithPathStyle(),
			reader.WithDestinationDir(dest),
		)
		require.NoError(t, err)

		exists, err := conn.TestConnection(ctx)
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, conn.DownloadAndConvertToJSON(ctx))

		assert.FileExists(t, filepath.Join(conn.ParquetDestination(), "part-00000.parquet"))
		assert.FileExists(t, filepath.Join(conn.JSONDestination(), "part-00000-0000.json"))
		assert.FileExists(t, filepath.Join(conn.JSONDestination(), "part-00001-0000.json"))
		assert.NoFileExists(t, filepath.Join(conn.ParquetDestination(), "_SUCCESS"))
	})

	t.Run("nonexistent_uri", func(t *testing.T) {
		conn, err := reader.New("agg/missing.parquet",
			reader.WithBucket("analytics"),
			reader.WithCredentials(creds.AccessKeyID, creds.SecretAccessKey),
			reader.WithEndpoint(endpoint),
			reader.WithPathStyle(),
			reader.WithDestinationDir(filepath.Join(t.TempDir(), "out")),
		)
		require.NoError(t, err)

		exists, err := conn.TestConnection(ctx)
		require.NoError(t, err)
		assert.False(t, exists)

		err = conn.DownloadAndConvertToJSON(ctx)
		assert.ErrorIs(t, err, source.ErrNotFound)
		assert.NoDirExists(t, conn.JSONDestination())
	})
}

// setupLocalStackContainer starts a LocalStack container with S3 service
func setupLocalStackContainer(ctx context.Context) (*localstack.LocalStackContainer, string, S3Credentials, error) {
	lsContainer, err := localstack.RunContainer(ctx,
		testcontainers.WithImage("localstack/localstack:3.0"),
		testcontainers.WithEnv(map[string]string{
			"SERVICES": "s3",
		}),
	)
	if err != nil {
		return nil, "", S3Credentials{}, err
	}

	mappedPort, err := lsContainer.MappedPort(ctx, "4566/tcp")
	if err != nil {
		lsContainer.Terminate(ctx)
		return nil, "", S3Credentials{}, err
	}

	host, err := lsContainer.Host(ctx)
	if err != nil {
		lsContainer.Terminate(ctx)
		return nil, "", S3Credentials{}, err
	}

	endpoint := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	// LocalStack default credentials
	creds := S3Credentials{
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}

	return lsContainer, endpoint, creds, nil
}

func newS3Client(ctx context.Context, endpoint string, creds S3Credentials) (*awss3.Client, error) {
	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				creds.AccessKeyID,
				creds.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

func uploadObject(t *testing.T, ctx context.Context, client *awss3.Client, bucket, key string, data []byte) {
	t.Helper()

	_, err := client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	require.NoError(t, err)
}

func fixtureBytes(t *testing.T, n int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	rows := make([]sampleRow, n)
	for i := range rows {
		rows[i] = sampleRow{ID: int64(i), Name: "record", TS: time.Now().UTC()}
	}

	w := pqgo.NewGenericWriter[sampleRow](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
