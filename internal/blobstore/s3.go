package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type S3 struct {
	cl     *minio.Client
	bucket string
	secure bool
}

var _ Store = (*S3)(nil)

func NewS3(cfg S3Config) (*S3, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &S3{cl: cl, bucket: cfg.Bucket, secure: cfg.UseSSL}, nil
}

func (s *S3) Upload(ctx context.Context, key string, contentType string, r io.Reader, size int64) (string, error) {
	_, err := s.cl.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("blobstore: put %q: %w", key, err)
	}

	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cl.EndpointURL().Host, s.bucket, key), nil
}
