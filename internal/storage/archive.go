package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/pinauth/pin-relay/internal/relay"
)

// ObjectPutter is the subset of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive copies captured photos to a bucket under <prefix><sessionId>/.
type S3Archive struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewS3Archive(client ObjectPutter, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// NewS3ArchiveFromEnv builds the client from the default AWS credential chain.
func NewS3ArchiveFromEnv(ctx context.Context, region, bucket, prefix string) (*S3Archive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3Archive(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// Archive uploads every captured image. It stops at the first failure.
func (a *S3Archive) Archive(ctx context.Context, sessionID string, images relay.Images) error {
	for _, img := range []struct {
		name string
		data string
	}{
		{"front", images.Front},
		{"back", images.Back},
		{"angled", images.Angled},
	} {
		payload := relay.StripDataURI(img.data)
		if payload == "" {
			continue
		}

		raw, err := decodeImage(payload)
		if err != nil {
			return fmt.Errorf("decode %s image: %w", img.name, err)
		}

		contentType := http.DetectContentType(raw)
		key := a.ObjectKey(sessionID, img.name, contentType)

		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(raw),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}

		log.Debug().Str("bucket", a.bucket).Str("key", key).Int("bytes", len(raw)).Msg("image archived")
	}
	return nil
}

func (a *S3Archive) ObjectKey(sessionID, name, contentType string) string {
	return a.prefix + path.Join(sessionID, name+extensionFor(contentType))
}

func decodeImage(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return raw, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

// NopArchive is used when IMAGE_ARCHIVE_BUCKET is unset.
type NopArchive struct{}

func (NopArchive) Archive(context.Context, string, relay.Images) error { return nil }
