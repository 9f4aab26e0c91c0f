package fraud

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/internal/fusion"
	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/internal/location"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/internal/text"
	"github.com/Madhu097/realestate-fraud-detection/pkg/common"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PriceDetector scores a price against comparable listings.
type PriceDetector interface {
	Detect(ctx context.Context, price float64, city, locality string) scoring.Score
}

// TextDetector scores listing text. persist appends the text to the corpus
// after comparison.
type TextDetector interface {
	Detect(ctx context.Context, in text.Input, persist bool) scoring.Score
}

// LocationDetector scores declared coordinates against the locality centroid.
type LocationDetector interface {
	Detect(ctx context.Context, in location.Input) scoring.Score
}

// LocationVerifier checks the declared city and locality with third parties.
type LocationVerifier interface {
	Verify(ctx context.Context, p geo.Point, city, locality string) scoring.Score
}

// AmenityVerifier checks amenity claims in the listing text.
type AmenityVerifier interface {
	Verify(ctx context.Context, p geo.Point, title, description string) scoring.Score
}

// ImageDetector scores image reuse. persist appends the fingerprints after
// comparison.
type ImageDetector interface {
	Detect(ctx context.Context, refs []string, persist bool) scoring.Score
}

// Detectors groups the six detectors. A nil detector is skipped and its
// module counts as 0 in the fused result.
type Detectors struct {
	Price            PriceDetector
	Text             TextDetector
	Location         LocationDetector
	ExternalLocation LocationVerifier
	Amenity          AmenityVerifier
	Image            ImageDetector
}

// HistoryRepository stores analyses.
type HistoryRepository interface {
	SaveAnalysis(ctx context.Context, entry *HistoryEntry) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*HistoryEntry, error)
	ListAnalyses(ctx context.Context, limit, offset int) ([]*HistoryEntry, int64, error)
}

// Option configures a Service.
type Option func(*Service)

// WithHistory stores every analysis in repo.
func WithHistory(repo HistoryRepository) Option {
	return func(s *Service) { s.history = repo }
}

// WithPersistByDefault sets whether texts and fingerprints are added to the
// corpora when a request does not say.
func WithPersistByDefault(persist bool) Option {
	return func(s *Service) { s.persistByDefault = persist }
}

// WithModuleTimeout bounds the time all detectors together may take.
func WithModuleTimeout(d time.Duration) Option {
	return func(s *Service) { s.moduleTimeout = d }
}

// Service runs the detectors on a listing and fuses their scores.
type Service struct {
	detectors        Detectors
	history          HistoryRepository
	persistByDefault bool
	moduleTimeout    time.Duration
	now              func() time.Time
}

// NewService creates a new analysis service
func NewService(detectors Detectors, opts ...Option) *Service {
	s := &Service{
		detectors:        detectors,
		persistByDefault: true,
		moduleTimeout:    30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PersistByDefault reports the corpus persistence default.
func (s *Service) PersistByDefault() bool {
	return s.persistByDefault
}

type detection struct {
	module scoring.Module
	score  scoring.Score
}

// Analyze scores listing with every configured detector in parallel and
// fuses the results. Detector failures degrade to module scores, so the
// only errors returned come from a cancelled ctx.
func (s *Service) Analyze(ctx context.Context, listing Listing, persist bool) (*Analysis, error) {
	start := s.now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.moduleTimeout)
	defer cancel()

	jobs := s.jobs(listing, persist)
	results := make(chan detection, len(jobs))

	var wg sync.WaitGroup
	for module, run := range jobs {
		wg.Add(1)
		go func(module scoring.Module, run func(context.Context) scoring.Score) {
			defer wg.Done()
			t := time.Now()
			score := run(runCtx)
			moduleDuration.WithLabelValues(string(module)).Observe(time.Since(t).Seconds())
			results <- detection{module: module, score: score}
		}(module, run)
	}
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := make(map[scoring.Module]scoring.Score, len(scoring.Modules))
	for d := range results {
		scores[d.module] = d.score
	}

	fused := fusion.Fuse(scores)
	analysis := &Analysis{
		ID:               uuid.New(),
		AnalyzedAt:       start.UTC(),
		FraudProbability: scoring.Round3(fused.FinalProbability),
		RiskBand:         fusion.RiskBand(fused.FinalProbability),
		FraudTypes:       fused.FraudTypes,
		Explanations:     fused.Explanations,
		ModuleScores:     make(map[scoring.Module]float64, len(scoring.Modules)),
		Modules:          make(map[scoring.Module]ModuleReport, len(scoring.Modules)),
		DurationMs:       s.now().Sub(start).Milliseconds(),
	}
	for _, m := range scoring.Modules {
		v := scoring.Round3(fused.ModuleScores[m])
		analysis.ModuleScores[m] = v
		analysis.Modules[m] = ModuleReport{Score: v, Explanation: scores[m].Explanation}
		if _, ran := scores[m]; ran {
			moduleScore.WithLabelValues(string(m)).Observe(fused.ModuleScores[m])
		}
	}

	finalProbability.Observe(fused.FinalProbability)
	analysesTotal.WithLabelValues(analysis.RiskBand).Inc()
	for _, ft := range fused.FraudTypes {
		fraudTypesTotal.WithLabelValues(ft).Inc()
	}

	logger.WithContext(ctx).Info("listing analyzed",
		zap.String("analysis_id", analysis.ID.String()),
		zap.String("city", listing.City),
		zap.String("locality", listing.Locality),
		zap.Float64("fraud_probability", analysis.FraudProbability),
		zap.String("risk_band", analysis.RiskBand),
		zap.Strings("fraud_types", analysis.FraudTypes),
		zap.Int64("duration_ms", analysis.DurationMs),
	)

	if s.history != nil {
		if err := s.history.SaveAnalysis(ctx, NewHistoryEntry(listing, analysis)); err != nil {
			logger.WithContext(ctx).Warn("failed to store analysis history",
				zap.String("analysis_id", analysis.ID.String()),
				zap.Error(err),
			)
		}
	}

	return analysis, nil
}

func (s *Service) jobs(l Listing, persist bool) map[scoring.Module]func(context.Context) scoring.Score {
	d := s.detectors
	point := l.Point()
	jobs := make(map[scoring.Module]func(context.Context) scoring.Score, len(scoring.Modules))

	if d.Price != nil {
		jobs[scoring.ModulePrice] = func(ctx context.Context) scoring.Score {
			return d.Price.Detect(ctx, l.Price, l.City, l.Locality)
		}
	}
	if d.Text != nil {
		jobs[scoring.ModuleText] = func(ctx context.Context) scoring.Score {
			return d.Text.Detect(ctx, text.Input{
				Title:       l.Title,
				Description: l.Description,
				City:        l.City,
				Locality:    l.Locality,
			}, persist)
		}
	}
	if d.Location != nil {
		jobs[scoring.ModuleLocation] = func(ctx context.Context) scoring.Score {
			return d.Location.Detect(ctx, location.Input{
				City:     l.City,
				Locality: l.Locality,
				Point:    point,
				Price:    l.Price,
			})
		}
	}
	if d.ExternalLocation != nil {
		jobs[scoring.ModuleExternalLocation] = func(ctx context.Context) scoring.Score {
			return d.ExternalLocation.Verify(ctx, point, l.City, l.Locality)
		}
	}
	if d.Amenity != nil {
		jobs[scoring.ModuleAmenity] = func(ctx context.Context) scoring.Score {
			return d.Amenity.Verify(ctx, point, l.Title, l.Description)
		}
	}
	if d.Image != nil {
		jobs[scoring.ModuleImage] = func(ctx context.Context) scoring.Score {
			return d.Image.Detect(ctx, l.ImagePaths, persist)
		}
	}
	return jobs
}

// GetAnalysis returns a stored analysis.
func (s *Service) GetAnalysis(ctx context.Context, id uuid.UUID) (*HistoryEntry, error) {
	if s.history == nil {
		return nil, common.NewServiceUnavailableError("analysis history is not enabled")
	}
	entry, err := s.history.GetAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAnalysisNotFound) {
			return nil, common.NewNotFoundError("analysis not found", err)
		}
		return nil, common.NewInternalServerError("failed to get analysis")
	}
	return entry, nil
}

// ListAnalyses returns stored analyses, newest first, with the total count.
func (s *Service) ListAnalyses(ctx context.Context, limit, offset int) ([]*HistoryEntry, int64, error) {
	if s.history == nil {
		return nil, 0, common.NewServiceUnavailableError("analysis history is not enabled")
	}
	entries, total, err := s.history.ListAnalyses(ctx, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalServerError("failed to list analyses")
	}
	return entries, total, nil
}
