package storage

import "context"

// Noop discards uploads. Used in local mode and tests where archiving raw
// files is not wanted.
type Noop struct{}

func (Noop) SaveUpload(_ context.Context, tenant, filename string, _ []byte) (string, error) {
	return "local://" + tenant + "/" + filename, nil
}

var _ BlobStore = Noop{}
