package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3Options describes where uploads land and how they are addressed.
type S3Options struct {
	Bucket    string
	KeyPrefix string
	Region    string
	// PublicURL overrides the default virtual-hosted bucket URL (CDN, MinIO, ...).
	PublicURL string
}

// S3Service stores media in Amazon S3 (or compatible APIs).
type S3Service struct {
	uploader *manager.Uploader
	opts     S3Options
}

func NewS3Service(client *s3.Client, opts S3Options) *S3Service {
	return &S3Service{
		uploader: manager.NewUploader(client),
		opts:     opts,
	}
}

func (s *S3Service) Store(ctx context.Context, obj Object) (string, error) {
	if s.opts.Bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	if obj.Body == nil {
		return "", fmt.Errorf("upload body is required")
	}

	key := s.objectKey(obj)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
		ACL:    types.ObjectCannedACLPublicRead,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return s.objectURL(key), nil
}

// Transform points at the rendition written next to the original by the transcoding pipeline.
func (s *S3Service) Transform(_ context.Context, rawURL, format string) (string, error) {
	out, err := renditionURL(rawURL, format)
	if err != nil {
		return "", fmt.Errorf("transform %s: %w", rawURL, err)
	}
	return out, nil
}

func (s *S3Service) objectKey(obj Object) string {
	ext := strings.ToLower(path.Ext(obj.Filename))
	kind := obj.Kind
	if kind == "" {
		kind = KindImage
	}
	parts := []string{}
	if prefix := strings.Trim(s.opts.KeyPrefix, "/"); prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, string(kind), uuid.NewString()+ext)
	return strings.Join(parts, "/")
}

func (s *S3Service) objectURL(key string) string {
	if base := strings.TrimRight(s.opts.PublicURL, "/"); base != "" {
		return base + "/" + key
	}
	region := s.opts.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, region, key)
}

var _ Service = (*S3Service)(nil)
