// Package objectstore implements the Object Store Client (C2): the
// read/write/download/restore primitives against an S3-compatible
// store, plus GRIB index-sidecar-driven range reads.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/waterinstitute/metget/internal/gribidx"
	"github.com/waterinstitute/metget/internal/model"
)

// Client wraps the primary S3-compatible object store. Glacier-tier
// restore and presigned downloads, which minio-go's simplified client
// doesn't expose, live in glacier.go on top of aws-sdk-go against the
// same bucket.
type Client struct {
	mc     *minio.Client
	bucket string
}

// New constructs a Client against endpoint/bucket using static
// credentials, mirroring the teacher's storage.NewService constructor.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Client, error) {
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, model.NewError(model.ErrInternal, "objectstore.New", err)
	}
	return &Client{mc: mc, bucket: bucket}, nil
}

// retry wraps a transient-prone operation with bounded exponential
// backoff, classifying the final error as transient-io.
func retry(ctx context.Context, op string, fn func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10), ctx)
	err := backoff.Retry(fn, b)
	if err != nil {
		return model.NewError(model.ErrTransientIO, op, err)
	}
	return nil
}

// List returns every object key under prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, model.NewError(classify(obj.Err), "objectstore.List", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Head stats an object, reporting in-cold-storage when the object's
// storage class indicates a Glacier tier that requires restoration.
func (c *Client) Head(ctx context.Context, key string) (minio.ObjectInfo, error) {
	info, err := c.mc.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return info, model.NewError(classify(err), "objectstore.Head", err)
	}
	if isArchived(info) {
		return info, model.NewError(model.ErrInColdStorage, "objectstore.Head", fmt.Errorf("%s is archived", key))
	}
	return info, nil
}

// Download streams key to localPath, retrying transient failures with
// exponential backoff.
func (c *Client) Download(ctx context.Context, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return model.NewError(model.ErrInternal, "objectstore.Download", err)
	}
	return retry(ctx, "objectstore.Download", func() error {
		return c.mc.FGetObject(ctx, c.bucket, key, localPath, minio.GetObjectOptions{})
	})
}

// Upload puts localPath to key.
func (c *Client) Upload(ctx context.Context, localPath, key string) error {
	return retry(ctx, "objectstore.Upload", func() error {
		_, err := c.mc.FPutObject(ctx, c.bucket, key, localPath, minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		return err
	})
}

// RangeDownload downloads only the byte ranges identified by idx for
// the requested GRIB short names, using the sidecar parsed by
// internal/gribidx. Returns the concatenated bytes in index order.
func (c *Client) RangeDownload(ctx context.Context, key string, idx *gribidx.Index, shortNames []string) ([]byte, error) {
	ranges := idx.RangesFor(shortNames)
	if len(ranges) == 0 {
		return nil, model.NewError(model.ErrNoData, "objectstore.RangeDownload", fmt.Errorf("no matching records for %v in %s.idx", shortNames, key))
	}

	var out []byte
	for _, r := range ranges {
		opts := minio.GetObjectOptions{}
		if r.End >= 0 {
			if err := opts.SetRange(r.Start, r.End); err != nil {
				return nil, model.NewError(model.ErrInternal, "objectstore.RangeDownload", err)
			}
		} else {
			if err := opts.SetRange(r.Start, 0); err != nil {
				return nil, model.NewError(model.ErrInternal, "objectstore.RangeDownload", err)
			}
		}

		var buf []byte
		err := retry(ctx, "objectstore.RangeDownload", func() error {
			obj, err := c.mc.GetObject(ctx, c.bucket, key, opts)
			if err != nil {
				return err
			}
			defer obj.Close()
			b, err := io.ReadAll(obj)
			if err != nil {
				return err
			}
			buf = b
			return nil
		})
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}
	return out, nil
}

// isArchived reports whether a MinIO ObjectInfo's storage class
// indicates a Glacier/cold tier.
func isArchived(info minio.ObjectInfo) bool {
	sc := strings.ToUpper(info.StorageClass)
	return strings.Contains(sc, "GLACIER") || strings.Contains(sc, "DEEP_ARCHIVE")
}

func classify(err error) model.ErrorKind {
	if err == nil {
		return model.ErrInternal
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return model.ErrNoData
	case "AccessDenied":
		return model.ErrValidation
	default:
		return model.ErrTransientIO
	}
}

// backoffFloor is not read by retry, which uses the backoff package's
// default exponential intervals.
var backoffFloor = 10 * time.Millisecond
