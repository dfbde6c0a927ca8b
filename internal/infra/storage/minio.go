package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const DefaultBucket = "medical-scans"

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicBaseURL overrides the host used in image URLs (CDN, reverse proxy).
	PublicBaseURL string
}

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	publicBase string
}

// New buat koneksi MinIO dan pastikan bucket ada
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	bucket := opts.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}
	s := &Store{client: cli, bucketName: bucket, region: opts.Region}

	s.publicBase = strings.TrimRight(opts.PublicBaseURL, "/")
	if s.publicBase == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		s.publicBase = fmt.Sprintf("%s://%s/%s", scheme, cli.EndpointURL().Host, bucket)
	}

	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureBucket creates the bucket on first start.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucketName, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucketName, err)
		}
	}
	return nil
}

// Upload implementasi ImageStore
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload object %s: %w", key, err)
	}
	return nil
}

// PublicURL assumes a public-read bucket; private buckets need presigned URLs.
func (s *Store) PublicURL(key string) string {
	return publicURL(s.publicBase, key)
}

// Ping is used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucketName); err != nil {
		return fmt.Errorf("minio ping: %w", err)
	}
	return nil
}

func publicURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return base + "/" + strings.Join(parts, "/")
}
