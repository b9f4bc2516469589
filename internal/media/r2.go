// Package media stores user-uploaded images in Cloudflare R2 through the S3 API.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/brandconnect/brandconnect-be/internal/config"
)

// ErrUnsupportedType is returned for uploads that are not an accepted image format.
var ErrUnsupportedType = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Uploader stores objects and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// R2Uploader is an Uploader backed by an R2 bucket.
type R2Uploader struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewR2Uploader builds an S3 client pointed at the account's R2 endpoint.
func NewR2Uploader(ctx context.Context, cfg config.R2Config) (*R2Uploader, error) {
	if !cfg.Enabled() {
		return nil, errors.New("missing required R2 settings")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load R2 config: %w", err)
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &R2Uploader{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload puts body under key and returns the public URL.
func (u *R2Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to R2: %w", err)
	}
	return PublicURL(u.publicBase, key), nil
}

// Delete removes the object behind fileURL. URLs outside the bucket's public
// base are ignored.
func (u *R2Uploader) Delete(ctx context.Context, fileURL string) error {
	key, ok := KeyFromURL(u.publicBase, fileURL)
	if !ok {
		return nil
	}
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete R2 object: %w", err)
	}
	return nil
}

// AvatarKey builds a unique object key for a user's profile image.
func AvatarKey(userID, contentType string) (string, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext), nil
}

// PublicURL joins base and key, escaping each key segment.
func PublicURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// KeyFromURL recovers the object key from a URL produced by PublicURL.
func KeyFromURL(base, fileURL string) (string, bool) {
	base = strings.TrimRight(base, "/") + "/"
	if base == "/" || !strings.HasPrefix(fileURL, base) {
		return "", false
	}
	escaped := strings.TrimPrefix(fileURL, base)
	key, err := url.PathUnescape(escaped)
	if err != nil || key == "" {
		return "", false
	}
	return path.Clean(key), true
}
