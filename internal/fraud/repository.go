package fraud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAnalysisNotFound is returned when no analysis has the requested id.
var ErrAnalysisNotFound = errors.New("analysis not found")

// Repository stores analyses in the listing_analyses table
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var _ HistoryRepository = (*Repository)(nil)

// NewRepository creates a new analysis history repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SaveAnalysis stores an analysis
func (r *Repository) SaveAnalysis(ctx context.Context, entry *HistoryEntry) error {
	fraudTypesJSON, err := json.Marshal(entry.FraudTypes)
	if err != nil {
		return err
	}
	explanationsJSON, err := json.Marshal(entry.Explanations)
	if err != nil {
		return err
	}
	scoresJSON, err := json.Marshal(entry.ModuleScores)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO listing_analyses (
			id, title, description, price, area_sqft, city, locality,
			latitude, longitude, fraud_probability, fraud_types,
			explanations, module_scores, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.Exec(ctx, query,
		entry.ID,
		entry.Title,
		entry.Description,
		entry.Price,
		entry.AreaSqft,
		entry.City,
		entry.Locality,
		entry.Latitude,
		entry.Longitude,
		entry.FraudProbability,
		fraudTypesJSON,
		explanationsJSON,
		scoresJSON,
		entry.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves one analysis with its explanations and module scores
func (r *Repository) GetAnalysis(ctx context.Context, id uuid.UUID) (*HistoryEntry, error) {
	query := `
		SELECT id, title, description, price, area_sqft, city, locality,
		       latitude, longitude, fraud_probability, fraud_types,
		       explanations, module_scores, analyzed_at
		FROM listing_analyses
		WHERE id = $1
	`

	var entry HistoryEntry
	var fraudTypesJSON, explanationsJSON, scoresJSON []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&entry.ID,
		&entry.Title,
		&entry.Description,
		&entry.Price,
		&entry.AreaSqft,
		&entry.City,
		&entry.Locality,
		&entry.Latitude,
		&entry.Longitude,
		&entry.FraudProbability,
		&fraudTypesJSON,
		&explanationsJSON,
		&scoresJSON,
		&entry.AnalyzedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}

	if err := json.Unmarshal(fraudTypesJSON, &entry.FraudTypes); err != nil {
		entry.FraudTypes = []string{}
	}
	if err := json.Unmarshal(explanationsJSON, &entry.Explanations); err != nil {
		entry.Explanations = []string{}
	}
	if err := json.Unmarshal(scoresJSON, &entry.ModuleScores); err != nil {
		entry.ModuleScores = make(map[scoring.Module]float64)
	}

	return &entry, nil
}

// ListAnalyses retrieves analysis summaries, newest first, and the total count
func (r *Repository) ListAnalyses(ctx context.Context, limit, offset int) ([]*HistoryEntry, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM listing_analyses`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}

	query := `
		SELECT id, title, price, area_sqft, city, locality, latitude, longitude,
		       fraud_probability, fraud_types, analyzed_at
		FROM listing_analyses
		ORDER BY analyzed_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	entries := make([]*HistoryEntry, 0)
	for rows.Next() {
		var entry HistoryEntry
		var fraudTypesJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&entry.Price,
			&entry.AreaSqft,
			&entry.City,
			&entry.Locality,
			&entry.Latitude,
			&entry.Longitude,
			&entry.FraudProbability,
			&fraudTypesJSON,
			&entry.AnalyzedAt,
		)
		if err != nil {
			continue
		}

		if err := json.Unmarshal(fraudTypesJSON, &entry.FraudTypes); err != nil {
			entry.FraudTypes = []string{}
		}

		entries = append(entries, &entry)
	}

	return entries, total, rows.Err()
}
