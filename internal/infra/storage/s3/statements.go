package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"pousada/internal/app/policies"
)

const (
	defaultRegion    = "us-east-1"
	defaultLinkTTL   = 15 * time.Minute
	defaultMediaType = "application/octet-stream"
)

type Options struct {
	Endpoint       string
	PublicEndpoint string
	UseSSL         bool
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	// LinkTTL bounds how long a shared statement link stays valid.
	LinkTTL time.Duration
}

// StatementStore keeps folio statements in a private S3-compatible bucket and
// hands out presigned download links.
type StatementStore struct {
	bucket         string
	region         string
	linkTTL        time.Duration
	client         *minio.Client
	signer         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewStatementStore(opts Options, logger *slog.Logger) (*StatementStore, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = defaultRegion
	}
	creds := credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), "")

	client, err := minio.New(parseEndpoint(endpoint), &minio.Options{Creds: creds, Secure: opts.UseSSL, Region: region})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	signer := client
	if public := strings.TrimSpace(opts.PublicEndpoint); public != "" && parseEndpoint(public) != parseEndpoint(endpoint) {
		signer, err = minio.New(parseEndpoint(public), &minio.Options{Creds: creds, Secure: isSecure(public, opts.UseSSL), Region: region})
		if err != nil {
			return nil, fmt.Errorf("s3: create signer: %w", err)
		}
	}
	ttl := opts.LinkTTL
	if ttl <= 0 {
		ttl = defaultLinkTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatementStore{
		bucket:  bucket,
		region:  region,
		linkTTL: ttl,
		client:  client,
		signer:  signer,
		logger:  logger,
	}, nil
}

// Put uploads data under key and returns a presigned GET link.
func (s *StatementStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = defaultMediaType
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	link, err := s.signer.PresignedGetObject(ctx, s.bucket, key, s.linkTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("s3: presign: %w", err)
	}
	s.logger.Info("statement stored", "bucket", s.bucket, "key", key, "bytes", len(data))
	return link.String(), nil
}

// Ping checks the bucket is reachable; used by readiness.
func (s *StatementStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

func (s *StatementStore) ensureBucket(ctx context.Context) error {
	s.bucketInitOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			s.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return s.bucketInitErr
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

func isSecure(endpoint string, fallback bool) bool {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return true
	case strings.HasPrefix(endpoint, "http://"):
		return false
	default:
		return fallback
	}
}

var _ policies.StatementStore = (*StatementStore)(nil)
