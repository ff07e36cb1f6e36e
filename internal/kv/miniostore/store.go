// Package miniostore implements kv.Store on an S3-compatible bucket: one
// object per key, JSON body.
package miniostore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"resourcehub/internal/config"
	"resourcehub/internal/kv"
)

// scanConcurrency bounds parallel object reads during a prefix scan.
const scanConcurrency = 8

// objectClient is the subset of bucket operations the store needs.
type objectClient interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, body []byte) error
	Remove(ctx context.Context, name string) error
	ListNames(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// Store is a kv.Store backed by MinIO or any S3-compatible service.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	client objectClient
}

var (
	_ kv.Store  = (*Store)(nil)
	_ kv.Pinger = (*Store)(nil)
)

// New creates a MinIO-backed store. It validates connectivity and ensures the
// bucket exists (creates it if missing).
func New(cfg config.MinIOConfig) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Store{client: &bucket{client: cli, name: cfg.Bucket}}, nil
}

// Get downloads the object named key.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	body, err := s.client.Read(ctx, key)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return json.RawMessage(body), nil
}

// Set uploads value as the object named key, replacing any previous version.
func (s *Store) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := s.client.Write(ctx, key, value); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Delete removes the object named key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Remove(ctx, key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// GetByPrefix lists objects under prefix and downloads them with bounded
// concurrency. Objects removed between listing and reading are skipped.
func (s *Store) GetByPrefix(ctx context.Context, prefix string) ([]kv.Entry, error) {
	names, err := s.client.ListNames(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("kv scan %s: %w", prefix, err)
	}

	values := make([]json.RawMessage, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, name := range names {
		g.Go(func() error {
			body, err := s.client.Read(gctx, name)
			if err != nil {
				if isNoSuchKey(err) {
					return nil
				}
				return fmt.Errorf("kv scan %s: read %s: %w", prefix, name, err)
			}
			values[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]kv.Entry, 0, len(names))
	for i, name := range names {
		if values[i] == nil {
			continue
		}
		out = append(out, kv.Entry{Key: name, Value: values[i]})
	}
	return out, nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// bucket adapts *minio.Client to objectClient.
type bucket struct {
	client *minio.Client
	name   string
}

func (b *bucket) Read(ctx context.Context, name string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.name, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (b *bucket) Write(ctx context.Context, name string, body []byte) error {
	_, err := b.client.PutObject(ctx, b.name, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (b *bucket) Remove(ctx context.Context, name string) error {
	return b.client.RemoveObject(ctx, b.name, name, minio.RemoveObjectOptions{})
}

func (b *bucket) ListNames(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		names = append(names, obj.Key)
	}
	return names, nil
}

func (b *bucket) Ping(ctx context.Context) error {
	ok, err := b.client.BucketExists(ctx, b.name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("bucket " + b.name + " does not exist")
	}
	return nil
}
