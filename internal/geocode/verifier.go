package geocode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"go.uber.org/zap"
)

const (
	invalidCoordinatesScore = 0.9
	unverifiableScore       = 0.5

	cityWeight     = 0.6
	localityWeight = 0.4

	verifiedBelow = 0.3
	moderateBelow = 0.6
)

// Vote is one provider's answer compared with the declared location.
type Vote struct {
	Provider      string
	Place         Place
	CityMatch     bool
	LocalityMatch bool
}

// Verifier asks every provider where a point is and scores how many agree
// with the declared city and locality.
type Verifier struct {
	providers []Provider
}

// NewVerifier creates a verifier over providers.
func NewVerifier(providers ...Provider) *Verifier {
	return &Verifier{providers: providers}
}

// Providers returns the provider names in registration order.
func (v *Verifier) Providers() []string {
	names := make([]string, len(v.providers))
	for i, p := range v.providers {
		names[i] = p.Name()
	}
	return names
}

// Normalize lowercases, trims and turns '-' and '_' into spaces.
func Normalize(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// matches reports containment in either direction. Empty values never match.
func matches(claimed, reported string) bool {
	if claimed == "" || reported == "" {
		return false
	}
	return strings.Contains(reported, claimed) || strings.Contains(claimed, reported)
}

// Compare scores one provider answer.
func Compare(provider string, place Place, city, locality string) Vote {
	c, l := Normalize(city), Normalize(locality)
	return Vote{
		Provider:  provider,
		Place:     place,
		CityMatch: matches(c, Normalize(place.City)),
		LocalityMatch: matches(l, Normalize(place.Locality)) ||
			matches(l, Normalize(place.Suburb)) ||
			matches(l, Normalize(place.Neighbourhood)),
	}
}

// Consensus is 0.6 × city agreement + 0.4 × locality agreement.
func Consensus(votes []Vote) float64 {
	if len(votes) == 0 {
		return 0
	}
	var cities, localities int
	for _, v := range votes {
		if v.CityMatch {
			cities++
		}
		if v.LocalityMatch {
			localities++
		}
	}
	n := float64(len(votes))
	return cityWeight*float64(cities)/n + localityWeight*float64(localities)/n
}

// Verify queries all providers concurrently. A provider that fails or times
// out does not vote.
func (v *Verifier) Verify(ctx context.Context, p geo.Point, city, locality string) scoring.Score {
	if !p.Valid() {
		return scoring.New(invalidCoordinatesScore, fmt.Sprintf(
			"Invalid coordinates %v: external location verification impossible.", p))
	}

	votes := v.collect(ctx, p, city, locality)
	if len(votes) == 0 {
		return scoring.New(unverifiableScore, fmt.Sprintf(
			"Unable to verify location: none of %d external geocoding providers responded.", len(v.providers)))
	}

	consensus := Consensus(votes)
	score := scoring.Clamp(1 - consensus)
	return scoring.New(score, describe(score, consensus, votes, len(v.providers), city, locality))
}

func (v *Verifier) collect(ctx context.Context, p geo.Point, city, locality string) []Vote {
	results := make([]*Vote, len(v.providers))

	var wg sync.WaitGroup
	for i, provider := range v.providers {
		wg.Add(1)
		go func(i int, provider Provider) {
			defer wg.Done()
			place, err := provider.Reverse(ctx, p)
			if err != nil {
				logger.WithContext(ctx).Warn("geocoding provider did not vote",
					zap.String("provider", provider.Name()),
					zap.Error(err),
				)
				return
			}
			vote := Compare(provider.Name(), *place, city, locality)
			results[i] = &vote
		}(i, provider)
	}
	wg.Wait()

	votes := make([]Vote, 0, len(results))
	for _, r := range results {
		if r != nil {
			votes = append(votes, *r)
		}
	}
	return votes
}

func band(score float64) string {
	switch {
	case score < verifiedBelow:
		return "VERIFIED"
	case score < moderateBelow:
		return "MODERATE RISK"
	default:
		return "HIGH RISK"
	}
}

func describe(score, consensus float64, votes []Vote, registered int, city, locality string) string {
	var cities, localities int
	for _, v := range votes {
		if v.CityMatch {
			cities++
		}
		if v.LocalityMatch {
			localities++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d of %d responding providers confirm %s and %d confirm %s (consensus %.0f%%, %d of %d providers responded).",
		band(score), cities, len(votes), city, localities, locality, consensus*100, len(votes), registered)
	for _, v := range votes {
		fmt.Fprintf(&b, " %s reports %s (city %s, locality %s).",
			v.Provider, reported(v.Place), verdict(v.CityMatch), verdict(v.LocalityMatch))
	}
	return b.String()
}

func reported(p Place) string {
	var parts []string
	for _, s := range []string{p.Locality, p.City, p.State} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "no address"
	}
	return strings.Join(parts, ", ")
}

func verdict(ok bool) string {
	if ok {
		return "match"
	}
	return "mismatch"
}
