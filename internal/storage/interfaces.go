// Package storage archives raw uploaded statement files so a job's inputs
// can be inspected after processing.
package storage

import "context"

// BlobStore persists raw upload bytes keyed by tenant and filename.
type BlobStore interface {
	// SaveUpload stores the file and returns its storage URI.
	SaveUpload(ctx context.Context, tenant, filename string, data []byte) (string, error)
}
