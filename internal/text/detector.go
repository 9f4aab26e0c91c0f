package text

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/internal/corpus"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultDuplicateThreshold is the similarity at which texts count as
	// duplicates.
	DefaultDuplicateThreshold = 0.8

	duplicateFloor   = 0.5
	lengthFloor      = 0.2
	snippetsShown    = 3
	snippetMaxLength = 100
)

// Input is the text of one listing.
type Input struct {
	Title       string
	Description string
	City        string
	Locality    string
}

// Signal is one scored text signal.
type Signal struct {
	Score       float64
	Explanation string
}

// Report holds the three signals and the combined score.
type Report struct {
	Duplicate   Signal
	Promotional Signal
	Length      Signal
	Final       scoring.Score
}

// Detector scores duplicated, promotional and abnormally sized listing text.
type Detector struct {
	store      corpus.TextStore
	guard      *corpus.Guard
	threshold  float64
	vectorizer *Vectorizer
	promo      *PromotionalScorer
	now        func() time.Time
}

// NewDetector creates a text detector over store. A non-positive threshold
// uses DefaultDuplicateThreshold.
func NewDetector(store corpus.TextStore, duplicateThreshold float64) *Detector {
	if duplicateThreshold <= 0 {
		duplicateThreshold = DefaultDuplicateThreshold
	}
	return &Detector{
		store:      store,
		guard:      corpus.NewGuard(store),
		threshold:  duplicateThreshold,
		vectorizer: NewVectorizer(),
		promo:      NewPromotionalScorer(),
		now:        time.Now,
	}
}

// Detect returns the combined text score.
func (d *Detector) Detect(ctx context.Context, in Input, persist bool) scoring.Score {
	return d.Analyze(ctx, in, persist).Final
}

// Analyze scores all three signals. The final score is their maximum and
// the explanation lists each signal above its floor, most specific first.
func (d *Detector) Analyze(ctx context.Context, in Input, persist bool) Report {
	var r Report

	r.Duplicate = d.duplicate(ctx, in, persist)

	promo, hits := d.promo.Score(in.Title + " " + in.Description)
	r.Promotional = Signal{Score: promo}
	if promo > 0 {
		r.Promotional.Explanation = describePromotional(promo, hits)
	} else {
		r.Promotional.Explanation = "No promotional language detected."
	}

	ls, lexp := LengthScore(in.Description)
	r.Length = Signal{Score: ls, Explanation: lexp}

	final := math.Max(r.Duplicate.Score, math.Max(r.Promotional.Score, r.Length.Score))

	var parts []string
	if r.Duplicate.Score >= duplicateFloor {
		parts = append(parts, "[Duplicate] "+r.Duplicate.Explanation)
	}
	if r.Promotional.Score > 0 {
		parts = append(parts, "[Promotional] "+r.Promotional.Explanation)
	}
	if r.Length.Score > lengthFloor {
		parts = append(parts, "[Length] "+r.Length.Explanation)
	}
	if len(parts) == 0 {
		parts = append(parts, "No textual fraud indicators detected.")
	}

	r.Final = scoring.New(final, strings.Join(parts, " "))
	return r
}

func (d *Detector) duplicate(ctx context.Context, in Input, persist bool) Signal {
	doc := Preprocess(Combine(in.Title, in.Description))

	var sig Signal
	err := d.guard.Do(ctx, func(ctx context.Context) error {
		entries, err := d.store.ReadAll(ctx)
		if err != nil {
			return fmt.Errorf("read text corpus: %w", err)
		}

		sig = d.compare(doc, entries)

		if persist && doc != "" {
			entry := corpus.TextEntry{
				ID:        uuid.New().String(),
				Text:      doc,
				Metadata:  map[string]string{"city": in.City, "locality": in.Locality},
				CreatedAt: d.now().UTC(),
			}
			if err := d.store.Append(ctx, entry); err != nil {
				logger.WithContext(ctx).Warn("text corpus append failed", zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		logger.WithContext(ctx).Warn("text corpus unavailable, duplicate check skipped", zap.Error(err))
		return d.compare(doc, nil)
	}
	return sig
}

func (d *Detector) compare(doc string, entries []corpus.TextEntry) Signal {
	if len(entries) == 0 {
		return Signal{Score: 0, Explanation: "No previous listings to compare against."}
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	sims := d.vectorizer.Similarities(doc, texts)

	best := 0.0
	var dupes []string
	for i, s := range sims {
		if s > best {
			best = s
		}
		if s >= d.threshold {
			dupes = append(dupes, texts[i])
		}
	}

	switch {
	case len(dupes) > 0:
		shown := dupes
		if len(shown) > snippetsShown {
			shown = shown[:snippetsShown]
		}
		quoted := make([]string, len(shown))
		for i, s := range shown {
			quoted[i] = fmt.Sprintf("%q", snippet(s, snippetMaxLength))
		}
		return Signal{Score: scoring.Clamp(best), Explanation: fmt.Sprintf(
			"Near-duplicate text: %.1f%% similar to a previous listing, %d previous listings at or above the %.0f%% threshold. Matches: %s.",
			best*100, len(dupes), d.threshold*100, strings.Join(quoted, "; "))}
	case best >= duplicateFloor:
		return Signal{Score: best, Explanation: fmt.Sprintf(
			"Moderate similarity (%.1f%%) to a previously analyzed listing.", best*100)}
	default:
		return Signal{Score: scoring.Clamp(best), Explanation: fmt.Sprintf(
			"Text is original: highest similarity %.1f%% across %d previous listings.", best*100, len(entries))}
	}
}
