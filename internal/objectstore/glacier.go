package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/waterinstitute/metget/internal/model"
)

// GlacierClient issues restore requests and presigned/streamed
// downloads against keys minio-go's simplified client can't express,
// mirroring the teacher's own streamFromS3 use of aws-sdk-go alongside
// its minio-go primary client.
type GlacierClient struct {
	s3     *s3.S3
	bucket string
}

// NewGlacierClient builds an aws-sdk-go v1 S3 client pointed at the same
// endpoint/bucket as the primary Client.
func NewGlacierClient(endpoint, accessKey, secretKey, bucket string) (*GlacierClient, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, model.NewError(model.ErrInternal, "objectstore.NewGlacierClient", err)
	}
	return &GlacierClient{s3: s3.New(sess), bucket: bucket}, nil
}

// CheckArchiveAndInitiateRestore reports whether key is in cold storage
// and, if so, initiates an expedited restore. restoreInProgress is true
// when a fresh restore request was just submitted (not when one was
// already outstanding).
func (g *GlacierClient) CheckArchiveAndInitiateRestore(ctx context.Context, key string) (restoreInProgress bool, err error) {
	head, err := g.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return false, model.NewError(model.ErrNoData, "objectstore.CheckArchiveAndInitiateRestore", err)
		}
		return false, model.NewError(model.ErrTransientIO, "objectstore.CheckArchiveAndInitiateRestore", err)
	}

	if head.StorageClass == nil {
		return false, nil
	}
	switch *head.StorageClass {
	case s3.ObjectStorageClassGlacier, s3.ObjectStorageClassDeepArchive:
	default:
		return false, nil
	}

	if head.Restore != nil {
		// already-in-progress restore ("ongoing-request=\"true\"") or a
		// completed one; either way we don't re-submit.
		return false, nil
	}

	_, err = g.s3.RestoreObjectWithContext(ctx, &s3.RestoreObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		RestoreRequest: &s3.RestoreRequest{
			Days: aws.Int64(3),
			GlacierJobParameters: &s3.GlacierJobParameters{
				Tier: aws.String(s3.TierExpedited),
			},
		},
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == "RestoreAlreadyInProgress" {
			return false, nil
		}
		return false, model.NewError(model.ErrTransientIO, "objectstore.CheckArchiveAndInitiateRestore", err)
	}
	return true, nil
}

// PresignedDownloadURL returns a time-limited URL for key, used when the
// caller streams directly rather than through Client.Download.
func (g *GlacierClient) PresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, _ := g.s3.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(expires)
	if err != nil {
		return "", model.NewError(model.ErrInternal, "objectstore.PresignedDownloadURL", fmt.Errorf("presign %s: %w", key, err))
	}
	return url, nil
}
