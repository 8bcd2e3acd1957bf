package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores artifacts as objects in a Google Cloud Storage bucket.
type GCS struct {
	log    *slog.Logger
	client *storage.Client
	bucket string
}

// NewGCS creates a GCS backend. An empty credentialsFile falls back to
// application default credentials.
func NewGCS(ctx context.Context, log *slog.Logger, bucket, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCS{log: log, client: client, bucket: bucket}, nil
}

// Refresh probes the bucket metadata, which exercises the credential path
// end to end before any transfer starts.
func (g *GCS) Refresh(ctx context.Context) error {
	if _, err := g.client.Bucket(g.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs credential check against bucket %s failed: %w", g.bucket, err)
	}
	return nil
}

func (g *GCS) Upload(ctx context.Context, path string, r io.Reader) error {
	writer := g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	writer.ContentType = "application/octet-stream"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to copy artifact to gs://%s/%s: %w", g.bucket, path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", path, err)
	}

	g.log.DebugContext(ctx, "uploaded artifact to gcs", "bucket", g.bucket, "path", path)
	return nil
}

func (g *GCS) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	reader, err := g.client.Bucket(g.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open GCS reader for %s: %w", path, err)
	}
	return reader, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
