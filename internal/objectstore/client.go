// Package objectstore provides the S3/MinIO-backed source side of a
// transfer: object size lookup and sequential range reads.
package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"s3smbcopy/config"
	"s3smbcopy/internal/transfer"
)

// Client wraps a minio client for one transfer run.
type Client struct {
	mc  *minio.Client
	log *logrus.Logger
}

// New builds a client from the s3 section of the config.
func New(cfg config.S3Config, log *logrus.Logger) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store %s: %w", cfg.Endpoint, err)
	}

	log.WithField("endpoint", cfg.Endpoint).Debug("object store client ready")
	return &Client{mc: mc, log: log}, nil
}

// HeadSize returns the declared size of the object in bytes.
func (c *Client) HeadSize(ctx context.Context, bucket, key string) (int64, error) {
	info, err := c.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, mapError(err, bucket, key)
	}
	return info.Size, nil
}

// RangeRead fetches the inclusive byte range [start, end] of the object.
// The result may be shorter than requested when the object ends early.
func (c *Client) RangeRead(ctx context.Context, bucket, key string, start, end int64) ([]byte, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, end); err != nil {
		return nil, fmt.Errorf("%w: range %d-%d: %v", transfer.ErrSourceRead, start, end, err)
	}

	obj, err := c.mc.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, mapError(err, bucket, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err, bucket, key)
	}
	return data, nil
}

// mapError folds minio error codes into the transfer taxonomy.
func mapError(err error, bucket, key string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s/%s: %v", transfer.ErrNotFound, bucket, key, err)
	case "AccessDenied":
		return fmt.Errorf("%w: %s/%s: %v", transfer.ErrAccessDenied, bucket, key, err)
	}
	return fmt.Errorf("%w: %s/%s: %v", transfer.ErrSourceRead, bucket, key, err)
}
