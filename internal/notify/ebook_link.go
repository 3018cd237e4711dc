package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LinkSigner produces a time-limited download link for the eBook.
type LinkSigner interface {
	DownloadURL(ctx context.Context) (string, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3LinkSigner presigns GET requests for one object.
type S3LinkSigner struct {
	presigner s3Presigner
	bucket    string
	key       string
	ttl       time.Duration
}

// NewS3LinkSigner signs links to s3://bucket/key valid for ttl.
func NewS3LinkSigner(client *s3.Client, bucket, key string, ttl time.Duration) *S3LinkSigner {
	if client == nil {
		panic("notify: S3 client cannot be nil")
	}
	return newS3LinkSigner(s3.NewPresignClient(client), bucket, key, ttl)
}

func newS3LinkSigner(p s3Presigner, bucket, key string, ttl time.Duration) *S3LinkSigner {
	if bucket == "" || key == "" {
		panic("notify: eBook bucket and key are required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &S3LinkSigner{presigner: p, bucket: bucket, key: key, ttl: ttl}
}

// DownloadURL returns a presigned URL for the eBook object.
func (s *S3LinkSigner) DownloadURL(ctx context.Context) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("notify: presign ebook link: %w", err)
	}
	return req.URL, nil
}
