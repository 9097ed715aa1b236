// Package publish uploads rendered charts to S3-compatible object storage.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config locates the target bucket. Static credentials are optional; when
// absent the SDK's default chain is used.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// ObjectPutter is the subset of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes local files under a key prefix in one bucket.
type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewUploader builds an S3 client from cfg.
func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if cfg.Endpoint != "" {
			options.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		options.UsePathStyle = cfg.UsePathStyle
	})

	return NewUploaderWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewUploaderWithClient wraps an existing client.
func NewUploaderWithClient(client ObjectPutter, bucket, prefix string) *Uploader {
	return &Uploader{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}
}

// Key returns the object key a local file is uploaded under.
func (u *Uploader) Key(localPath string) string {
	name := filepath.Base(localPath)
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// UploadFiles uploads each file and returns the keys written, in order. It
// stops at the first failure.
func (u *Uploader) UploadFiles(ctx context.Context, paths ...string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		body, err := os.ReadFile(p)
		if err != nil {
			return keys, err
		}

		key := u.Key(p)
		_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentTypeFor(p)),
		})
		if err != nil {
			return keys, fmt.Errorf("put object %s failed: %w", key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func contentTypeFor(p string) string {
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
