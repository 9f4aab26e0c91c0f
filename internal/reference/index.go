package reference

import (
	"fmt"
	"math"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/uber/h3-go/v4"
)

const maxIndexRings = 8

// Index buckets locality centroids by H3 cell for nearest-locality queries.
type Index struct {
	resolution int
	cells      map[h3.Cell][]Locality
	all        []Locality
}

// NewIndex indexes localities at the given H3 resolution.
func NewIndex(localities []Locality, resolution int) (*Index, error) {
	ix := &Index{
		resolution: resolution,
		cells:      make(map[h3.Cell][]Locality),
		all:        localities,
	}
	for _, l := range localities {
		cell, err := geo.Cell(l.Centroid, resolution)
		if err != nil {
			return nil, fmt.Errorf("index locality %q: %w", l.Key(), err)
		}
		ix.cells[cell] = append(ix.cells[cell], l)
	}
	return ix, nil
}

// Len returns the number of indexed localities.
func (ix *Index) Len() int {
	return len(ix.all)
}

// Nearest returns the locality whose centroid is closest to p, ignoring the
// record with key exclude. ok is false when nothing else is indexed.
func (ix *Index) Nearest(p geo.Point, exclude string) (Locality, float64, bool) {
	if ix == nil || len(ix.all) == 0 {
		return Locality{}, 0, false
	}

	for k := 0; k <= maxIndexRings; k++ {
		cells, err := geo.Disk(p, ix.resolution, k)
		if err != nil {
			break
		}
		if !ix.hasCandidate(cells, exclude) {
			continue
		}
		// A closer centroid may sit just across the next ring.
		if wider, err := geo.Disk(p, ix.resolution, k+1); err == nil {
			cells = wider
		}
		return ix.closest(p, ix.collect(cells), exclude)
	}

	return ix.closest(p, ix.all, exclude)
}

func (ix *Index) hasCandidate(cells []h3.Cell, exclude string) bool {
	for _, c := range cells {
		for _, l := range ix.cells[c] {
			if l.Key() != exclude {
				return true
			}
		}
	}
	return false
}

func (ix *Index) collect(cells []h3.Cell) []Locality {
	var out []Locality
	for _, c := range cells {
		out = append(out, ix.cells[c]...)
	}
	return out
}

func (ix *Index) closest(p geo.Point, candidates []Locality, exclude string) (Locality, float64, bool) {
	best := math.Inf(1)
	var found Locality
	ok := false
	for _, l := range candidates {
		if l.Key() == exclude {
			continue
		}
		d := geo.HaversineKm(p, l.Centroid)
		if d < best {
			best, found, ok = d, l, true
		}
	}
	return found, best, ok
}
