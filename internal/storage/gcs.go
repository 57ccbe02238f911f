package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	gcstorage "cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// GCS stores uploads in a Google Cloud Storage bucket under
// uploads/{tenant}/{filename}. It assumes Application Default Credentials
// are configured.
type GCS struct {
	client *gcstorage.Client
	bucket string
}

// NewGCS creates a GCS blob store writing to the given bucket.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCS: creating storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) SaveUpload(ctx context.Context, tenant, filename string, data []byte) (string, error) {
	object := path.Join("uploads", tenant, path.Base(filename))

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("SaveUpload %s: writing object: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("SaveUpload %s: finalizing upload: %w", object, err)
	}

	return fmt.Sprintf("gs://%s/%s", g.bucket, object), nil
}

var _ BlobStore = (*GCS)(nil)
