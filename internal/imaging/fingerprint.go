// Package imaging detects reused listing photos by perceptual hashing.
package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/Madhu097/realestate-fraud-detection/pkg/storage"
	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for files that are not jpeg, png or webp.
var ErrUnsupportedFormat = errors.New("imaging: unsupported image format")

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Supported reports whether ref has an image extension we can decode.
func Supported(ref string) bool {
	return supportedTypes[storage.GetMimeTypeFromExtension(ref)]
}

// Fingerprinter computes 64-bit perceptual hashes.
type Fingerprinter struct{}

// Fingerprint decodes r and returns its pHash.
func (Fingerprinter) Fingerprint(r io.Reader) (uint64, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return 0, ErrUnsupportedFormat
		}
		return 0, fmt.Errorf("decode image: %w", err)
	}

	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}
	return h.GetHash(), nil
}

// Distance is the Hamming distance between two pHashes.
func Distance(a, b uint64) int {
	d, err := goimagehash.NewImageHash(a, goimagehash.PHash).
		Distance(goimagehash.NewImageHash(b, goimagehash.PHash))
	if err != nil {
		return 64
	}
	return d
}
