// Package objectstore uploads export archives to S3-compatible storage and
// hands out presigned download links.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/chrisminnick/starboard2/internal/config"
)

// LinkTTL is how long a presigned download link stays valid.
const LinkTTL = 15 * time.Minute

// Object describes an uploaded file.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Store writes to one bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the endpoint and makes sure the bucket exists.
func New(ctx context.Context, cfg config.ObjectStorage) (*Store, error) {
	const op = "objectstore.New"
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%s: make bucket %s: %w", op, cfg.S3Bucket, err)
		}
	}
	return &Store{client: client, bucket: cfg.S3Bucket}, nil
}

// Upload stores data under key and returns a presigned GET link that makes
// browsers save it as filename.
func (s *Store) Upload(ctx context.Context, key, filename, contentType string, data []byte) (*Object, error) {
	const op = "objectstore.Upload"
	disposition := fmt.Sprintf("attachment; filename=%q", filename)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:        contentType,
			ContentDisposition: disposition,
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", disposition)
	link, err := s.client.PresignedGetObject(ctx, s.bucket, key, LinkTTL, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Object{Key: key, URL: link.String()}, nil
}
