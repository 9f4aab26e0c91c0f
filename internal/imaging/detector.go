package imaging

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/internal/corpus"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"go.uber.org/zap"
)

// DefaultMaxDistance is the largest Hamming distance that still counts as
// the same photo.
const DefaultMaxDistance = 8

const matchesShown = 3

// Match pairs a submitted image with a stored one it duplicates.
type Match struct {
	Image    string
	Previous string
	Distance int
}

// Detector compares listing photos against every fingerprint seen before.
type Detector struct {
	source      Source
	store       corpus.FingerprintStore
	guard       *corpus.Guard
	hasher      Fingerprinter
	maxDistance int
	now         func() time.Time
}

// NewDetector creates an image detector. A non-positive maxDistance uses
// DefaultMaxDistance.
func NewDetector(source Source, store corpus.FingerprintStore, maxDistance int) *Detector {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	return &Detector{
		source:      source,
		store:       store,
		guard:       corpus.NewGuard(store),
		maxDistance: maxDistance,
		now:         time.Now,
	}
}

// DuplicateScore maps a duplicate count to a module score.
func DuplicateScore(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 0.5
	default:
		return math.Min(0.3+0.2*float64(n), 1)
	}
}

// Detect fingerprints refs, counts duplicates against the store and, when
// persist is set, appends the new fingerprints afterwards.
func (d *Detector) Detect(ctx context.Context, refs []string, persist bool) scoring.Score {
	if len(refs) == 0 {
		return scoring.New(0, "No images provided.")
	}

	log := logger.WithContext(ctx)
	var fresh []corpus.Fingerprint
	for _, ref := range refs {
		hash, err := d.fingerprint(ctx, ref)
		if err != nil {
			log.Warn("image skipped", zap.String("image", ref), zap.Error(err))
			continue
		}
		fresh = append(fresh, corpus.Fingerprint{Path: ref, Hash: hash, CreatedAt: d.now().UTC()})
	}
	if len(fresh) == 0 {
		return scoring.New(0, fmt.Sprintf("None of the %d images could be read; image reuse not checked.", len(refs)))
	}

	var matches []Match
	var stored int
	err := d.guard.Do(ctx, func(ctx context.Context) error {
		existing, err := d.store.ReadAll(ctx)
		if err != nil {
			return fmt.Errorf("read fingerprints: %w", err)
		}
		stored = len(existing)
		matches = d.compare(fresh, existing)

		if persist {
			for _, fp := range fresh {
				if err := d.store.Append(ctx, fp); err != nil {
					log.Warn("fingerprint append failed", zap.String("image", fp.Path), zap.Error(err))
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("fingerprint store unavailable, image reuse not checked", zap.Error(err))
		matches, stored = nil, 0
	}

	return scoring.New(DuplicateScore(len(matches)), describe(matches, len(fresh), len(refs), stored))
}

func (d *Detector) fingerprint(ctx context.Context, ref string) (uint64, error) {
	if !Supported(ref) {
		return 0, ErrUnsupportedFormat
	}
	rc, err := d.source.Open(ctx, ref)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return d.hasher.Fingerprint(rc)
}

func (d *Detector) compare(fresh, existing []corpus.Fingerprint) []Match {
	var out []Match
	for _, f := range fresh {
		for _, e := range existing {
			if dist := Distance(f.Hash, e.Hash); dist <= d.maxDistance {
				out = append(out, Match{Image: f.Path, Previous: e.Path, Distance: dist})
			}
		}
	}
	return out
}

func describe(matches []Match, hashed, submitted, stored int) string {
	skipped := ""
	if hashed < submitted {
		skipped = fmt.Sprintf(" (%d unreadable skipped)", submitted-hashed)
	}
	if len(matches) == 0 {
		return fmt.Sprintf("No reused images: %d images%s checked against %d known fingerprints.", hashed, skipped, stored)
	}

	shown := matches
	if len(shown) > matchesShown {
		shown = shown[:matchesShown]
	}
	pairs := make([]string, len(shown))
	for i, m := range shown {
		pairs[i] = fmt.Sprintf("%s matches %s (distance %d)", filepath.Base(m.Image), filepath.Base(m.Previous), m.Distance)
	}
	return fmt.Sprintf("%d duplicate image matches across %d images%s: %s.",
		len(matches), hashed, skipped, strings.Join(pairs, "; "))
}
