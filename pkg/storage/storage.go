package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// Provider represents a storage provider type
type Provider string

const (
	ProviderS3    Provider = "s3"
	ProviderLocal Provider = "local"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Storage reads listing media objects.
type Storage interface {
	// Download opens an object for reading. Callers close the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// ParseS3URI splits "s3://bucket/key" into bucket and key.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// ProviderFor picks the provider that serves ref.
func ProviderFor(ref string) Provider {
	if strings.HasPrefix(ref, "s3://") {
		return ProviderS3
	}
	return ProviderLocal
}

// GetMimeTypeFromExtension returns the MIME type for common image extensions
func GetMimeTypeFromExtension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	mimeTypes := map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}

	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsImageMimeType checks if the mime type is an image
func IsImageMimeType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}
