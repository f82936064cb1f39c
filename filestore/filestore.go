// Package filestore keeps uploaded featured images, either in a local
// directory served under /public or in an S3 bucket.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Store saves files and reports the public URL they are reachable at.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// Local writes files into a directory that is served at baseURL.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal returns a Local store rooted at dir, e.g. "public/uploads" served
// at "/public/uploads".
func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put implements Store.
func (l *Local) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, filepath.Base(name)), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return l.baseURL + "/" + filepath.Base(name), nil
}

// Exists implements Store.
func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.dir, filepath.Base(name)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// S3Config locates the bucket images are uploaded to.
type S3Config struct {
	Bucket   string
	Region   string
	Prefix   string // key prefix, e.g. "uploads/"
	BaseURL  string // public URL of the prefix; defaults to the bucket's virtual-hosted URL
	Endpoint string // custom endpoint for S3-compatible services; enables path-style
}

// S3 writes files into a bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
}

// NewS3 loads AWS credentials from the default chain and returns an S3 store.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("filestore: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, strings.TrimLeft(cfg.Prefix, "/"))
	}
	return &S3{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *S3) key(name string) string {
	return s.prefix + filepath.Base(name)
}

// Put implements Store.
func (s *S3) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(s.key(name)),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("filestore: upload %s: %w", name, err)
	}
	return s.baseURL + "/" + filepath.Base(name), nil
}

// Exists implements Store.
func (s *S3) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("filestore: head %s: %w", name, err)
}
