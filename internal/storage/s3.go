package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

type S3Config struct {
	Bucket   string
	Region   string
	Prefix   string
	Endpoint string // for S3-compatible stores such as MinIO
}

type objectDeleter interface {
	DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error)
}

// S3 uploads documents to a bucket. Credentials come from the default AWS chain.
type S3 struct {
	cfg      S3Config
	uploader s3manageriface.UploaderAPI
	deleter  objectDeleter
	logger   *slog.Logger
}

func NewS3(_ context.Context, cfg S3Config, logger *slog.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	return newS3(cfg, s3manager.NewUploader(sess), s3.New(sess), logger), nil
}

func newS3(cfg S3Config, uploader s3manageriface.UploaderAPI, deleter objectDeleter, logger *slog.Logger) *S3 {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3{cfg: cfg, uploader: uploader, deleter: deleter, logger: logger}
}

func (s *S3) Persist(ctx context.Context, key string, content []byte) (string, error) {
	objectKey := path.Join(s.cfg.Prefix, key)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		s.logger.Error("storage.s3.upload_error", "bucket", s.cfg.Bucket, "key", objectKey, "error", err)
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	s.logger.Debug("storage.s3.persisted", "location", out.Location, "bytes", len(content))
	return "s3://" + s.cfg.Bucket + "/" + objectKey, nil
}

// Remove deletes an object given its s3://bucket/key location.
func (s *S3) Remove(ctx context.Context, location string) error {
	rest, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return fmt.Errorf("not an s3 location: %q", location)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || key == "" {
		return fmt.Errorf("malformed s3 location: %q", location)
	}
	_, err := s.deleter.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete: %w", err)
	}
	return nil
}
