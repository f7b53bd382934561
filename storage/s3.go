package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// S3Backend publishes artifacts to Amazon S3 or a compatible object store.
// Without credentials the backend is read-only against public buckets.
type S3Backend struct {
	client         *s3.S3
	writeClient    *s3.S3
	bucket         string
	prefix         string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// NewS3Backend creates an S3 backend. accessKey and secretKey enable write
// access; when empty, reads go unauthenticated and writes will fail unless
// the bucket is publicly writable.
func NewS3Backend(bucket, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Backend, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucket, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	baseCfg := aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
	}

	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}
	readClient := s3.New(baseSess)

	hasWriteAccess := accessKey != "" && secretKey != ""
	writeClient := readClient
	if hasWriteAccess {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")

		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("creating aws write session: %w", err)
		}
		writeClient = s3.New(writeSess)
	} else {
		log.Warn("no s3 credentials provided, writes may fail unless bucket is publicly writable")
	}

	return &S3Backend{
		client:         readClient,
		writeClient:    writeClient,
		bucket:         bucket,
		prefix:         strings.TrimSuffix(prefix, "/"),
		log:            log,
		locationURI:    uri,
		hasWriteAccess: hasWriteAccess,
	}, nil
}

// Store uploads data under its Keccak-256 content id with a public-read
// ACL so other agents can fetch published cards.
func (b *S3Backend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := contentID(data)
	key := b.objectKey(id, contentType)

	_, err := b.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
		ACL:    aws.String("public-read"),
	})
	if err != nil {
		return id, fmt.Errorf("uploading artifact to s3: %w", err)
	}

	b.log.Debug("stored artifact in s3",
		slog.String("bucket", b.bucket),
		slog.String("key", key),
		slog.String("content_id", fmt.Sprintf("%x", id)))
	return id, nil
}

// Fetch downloads the artifact by content id. Returns ErrContentNotFound
// for missing keys.
func (b *S3Backend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	key := b.objectKey(id, contentType)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("fetching artifact from s3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3 object body: %w", err)
	}

	b.log.Debug("fetched artifact from s3",
		slog.String("bucket", b.bucket),
		slog.String("key", key),
		slog.Int("size", len(data)))
	return data, nil
}

// Available heads the bucket to check reachability.
func (b *S3Backend) Available(ctx context.Context) bool {
	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		b.log.Warn("s3 backend unavailable", slog.String("bucket", b.bucket), "err", err)
		return false
	}
	return true
}

// LocationURI returns the URI this backend was created from.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

func (b *S3Backend) objectKey(id interfaces.ContentID, contentType interfaces.ContentType) string {
	idStr := fmt.Sprintf("%x", id)
	if b.prefix == "" {
		return path.Join(string(contentType), idStr)
	}
	return path.Join(b.prefix, string(contentType), idStr)
}
