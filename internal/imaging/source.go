package imaging

import (
	"context"
	"errors"
	"io"

	"github.com/Madhu097/realestate-fraud-detection/pkg/storage"
)

var errNoObjectStore = errors.New("imaging: s3 reference but no object storage configured")

// Source opens an image reference for reading.
type Source interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// ObjectSource routes s3:// references to object storage and everything
// else to the local filesystem.
type ObjectSource struct {
	local  storage.Storage
	object storage.Storage
}

// NewObjectSource creates a source. object may be nil when S3 is disabled.
func NewObjectSource(local, object storage.Storage) *ObjectSource {
	if local == nil {
		local = storage.NewLocalStorage("")
	}
	return &ObjectSource{local: local, object: object}
}

func (s *ObjectSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if storage.ProviderFor(ref) == storage.ProviderS3 {
		if s.object == nil {
			return nil, errNoObjectStore
		}
		return s.object.Download(ctx, ref)
	}
	return s.local.Download(ctx, ref)
}
