package s3

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/questanalytics/s3parquet/pkg/source"
)

type Backend struct {
	name       string
	client     *s3.Client
	bucket     string
	downloader *manager.Downloader
}

func init() {
	source.RegisterBackend("s3", func(ctx context.Context, cfg source.Config) (source.Backend, error) {
		return New(ctx, cfg)
	})
}

// New creates a new S3 backend
func New(ctx context.Context, cfg source.Config) (*Backend, error) {
	s3Cfg, err := parseConfig(cfg.Options)
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s3Cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3Cfg.AccessKeyID,
				s3Cfg.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, source.WrapError(cfg.Name, "init", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3Cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3Cfg.Endpoint)
		}
		o.UsePathStyle = s3Cfg.ForcePathStyle
	})

	return &Backend{
		name:       cfg.Name,
		client:     client,
		bucket:     s3Cfg.Bucket,
		downloader: manager.NewDownloader(client),
	}, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "s3" }

// Stat returns metadata about an object
func (b *Backend) Stat(ctx context.Context, key string) (*source.FileInfo, error) {
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, source.WrapError(b.name, "stat", classify(err))
	}

	return &source.FileInfo{
		Path:    key,
		Size:    *result.ContentLength,
		ModTime: *result.LastModified,
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

// List returns all objects under the prefix, sorted by key
func (b *Backend) List(ctx context.Context, prefix string) ([]source.FileInfo, error) {
	var files []source.FileInfo

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, source.WrapError(b.name, "list", classify(err))
		}

		for _, obj := range page.Contents {
			// Skip 0-byte objects (directory markers)
			if *obj.Size == 0 {
				continue
			}

			files = append(files, source.FileInfo{
				Path:    *obj.Key,
				Size:    *obj.Size,
				ModTime: *obj.LastModified,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Fetch downloads an object to localPath
func (b *Backend) Fetch(ctx context.Context, key string, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return source.WrapError(b.name, "download", err)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return source.WrapError(b.name, "download", err)
	}
	defer file.Close()

	_, err = b.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(localPath) // Clean up partial file
		return source.WrapError(b.name, "download", classify(err))
	}

	return nil
}

// Close is a no-op for S3
func (b *Backend) Close() error {
	return nil
}

// classify maps AWS SDK errors onto the source sentinel errors
func classify(err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return source.ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return source.ErrNotFound
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return source.ErrAuthFailed
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return source.ErrConnFailed
	}

	return err
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Region: "us-east-1",
	}

	if v, ok := options["endpoint"].(string); ok {
		cfg.Endpoint = v
	}
	if v, ok := options["region"].(string); ok && v != "" {
		cfg.Region = v
	}
	if v, ok := options["bucket"].(string); ok && v != "" {
		cfg.Bucket = v
	} else {
		return nil, fmt.Errorf("missing required option: bucket")
	}
	if v, ok := options["access_key_id"].(string); ok && v != "" {
		cfg.AccessKeyID = v
	} else {
		return nil, fmt.Errorf("missing required option: access_key_id")
	}
	if v, ok := options["secret_access_key"].(string); ok && v != "" {
		cfg.SecretAccessKey = v
	} else {
		return nil, fmt.Errorf("missing required option: secret_access_key")
	}
	if v, ok := options["force_path_style"].(bool); ok {
		cfg.ForcePathStyle = v
	}

	return cfg, nil
}
