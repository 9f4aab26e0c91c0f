package reference

import (
	"context"
	"sort"
)

// MemoryStore is a read-only in-process Store. It is safe for concurrent use
// because it is never mutated after construction.
type MemoryStore struct {
	localities map[string]Locality
	prices     map[string][]float64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds a store from locality records and comparable prices
// keyed by Key(city, locality). Records without an average price inherit
// the mean of their comparable sample.
func NewMemoryStore(localities []Locality, prices map[string][]float64) *MemoryStore {
	s := &MemoryStore{
		localities: make(map[string]Locality, len(localities)),
		prices:     make(map[string][]float64, len(prices)),
	}

	for k, sample := range prices {
		cp := make([]float64, len(sample))
		copy(cp, sample)
		s.prices[k] = cp
	}

	for _, l := range localities {
		sample := s.prices[l.Key()]
		if l.SampleSize == 0 {
			l.SampleSize = len(sample)
		}
		if !l.HasAvgPrice() && len(sample) > 0 {
			l.AvgPrice = mean(sample)
		}
		s.localities[l.Key()] = l
	}

	return s
}

// Locality implements LocalityLookup.
func (s *MemoryStore) Locality(ctx context.Context, city, locality string) (*Locality, error) {
	l, ok := s.localities[Key(city, locality)]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

// ComparablePrices implements PriceSampler. The returned slice is a copy.
func (s *MemoryStore) ComparablePrices(ctx context.Context, city, locality string) ([]float64, error) {
	sample := s.prices[Key(city, locality)]
	out := make([]float64, len(sample))
	copy(out, sample)
	return out, nil
}

// Localities returns every record ordered by key.
func (s *MemoryStore) Localities(ctx context.Context) ([]Locality, error) {
	out := make([]Locality, 0, len(s.localities))
	for _, l := range s.localities {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
