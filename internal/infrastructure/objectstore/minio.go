package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/ports"
)

// MinioStore keeps the medallion tiers in MinIO (or any S3 endpoint minio-go speaks to).
type MinioStore struct {
	client  *minio.Client
	buckets Buckets
	region  string
}

var (
	_ ports.ObjectStore   = (*MinioStore)(nil)
	_ ports.BucketEnsurer = (*MinioStore)(nil)
)

// NewMinioStore dials the endpoint with static credentials.
func NewMinioStore(cfg Config) (*MinioStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioStore{client: client, buckets: cfg.Buckets, region: cfg.Region}, nil
}

// EnsureBuckets creates any missing tier bucket.
func (s *MinioStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range s.buckets.all() {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket %s exists: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, tier domain.Tier, key string, body []byte, contentType string, meta map[string]string) error {
	bucket, err := s.buckets.For(tier)
	if err != nil {
		return err
	}
	opts := minio.PutObjectOptions{ContentType: contentType, UserMetadata: meta}
	if _, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), opts); err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *MinioStore) Get(ctx context.Context, tier domain.Tier, key string) ([]byte, error) {
	bucket, err := s.buckets.For(tier)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap(bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap(bucket, key, err)
	}
	return data, nil
}

func (s *MinioStore) Stat(ctx context.Context, tier domain.Tier, key string) (ports.ObjectInfo, error) {
	bucket, err := s.buckets.For(tier)
	if err != nil {
		return ports.ObjectInfo{}, err
	}
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ports.ObjectInfo{}, s.wrap(bucket, key, err)
	}

	meta := make(map[string]string, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		meta[metaKey(k)] = v
	}
	return ports.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		Metadata:     meta,
	}, nil
}

func (s *MinioStore) List(ctx context.Context, tier domain.Tier, prefix string) ([]string, error) {
	bucket, err := s.buckets.For(tier)
	if err != nil {
		return nil, err
	}

	// Returning early must stop the listing goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *MinioStore) wrap(bucket, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s/%s: %w", bucket, key, domain.ErrObjectNotFound)
	}
	return fmt.Errorf("%s/%s: %w", bucket, key, err)
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
