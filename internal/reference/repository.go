package reference

import (
	"context"
	"errors"
	"fmt"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository serves reference data from the locality_references and
// comparable_listings tables.
type PostgresRepository struct {
	db *pgxpool.Pool
}

var _ Store = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new reference repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Locality retrieves the reference record for a city+locality
func (r *PostgresRepository) Locality(ctx context.Context, city, locality string) (*Locality, error) {
	query := `
		SELECT lr.city, lr.locality, lr.latitude, lr.longitude,
		       COALESCE(lr.avg_price, (
		           SELECT AVG(cl.price) FROM comparable_listings cl
		           WHERE cl.city_key = lr.city_key AND cl.locality_key = lr.locality_key
		       ), 0),
		       (SELECT COUNT(*) FROM comparable_listings cl
		        WHERE cl.city_key = lr.city_key AND cl.locality_key = lr.locality_key)
		FROM locality_references lr
		WHERE lr.city_key = $1 AND lr.locality_key = $2
	`

	var l Locality
	err := r.db.QueryRow(ctx, query, normalize(city), normalize(locality)).Scan(
		&l.City,
		&l.Name,
		&l.Centroid.Lat,
		&l.Centroid.Lon,
		&l.AvgPrice,
		&l.SampleSize,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query locality reference: %w", err)
	}

	return &l, nil
}

// ComparablePrices retrieves every positive listing price for a locality
func (r *PostgresRepository) ComparablePrices(ctx context.Context, city, locality string) ([]float64, error) {
	query := `
		SELECT price
		FROM comparable_listings
		WHERE city_key = $1 AND locality_key = $2 AND price > 0
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, normalize(city), normalize(locality))
	if err != nil {
		return nil, fmt.Errorf("query comparable prices: %w", err)
	}
	defer rows.Close()

	prices := []float64{}
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}

	return prices, rows.Err()
}

// Localities retrieves every reference record, used to build the H3 index
func (r *PostgresRepository) Localities(ctx context.Context) ([]Locality, error) {
	query := `
		SELECT city, locality, latitude, longitude, COALESCE(avg_price, 0)
		FROM locality_references
		ORDER BY city_key, locality_key
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query localities: %w", err)
	}
	defer rows.Close()

	var out []Locality
	for rows.Next() {
		var l Locality
		var lat, lon float64
		if err := rows.Scan(&l.City, &l.Name, &lat, &lon, &l.AvgPrice); err != nil {
			return nil, err
		}
		l.Centroid = geo.Point{Lat: lat, Lon: lon}
		out = append(out, l)
	}

	return out, rows.Err()
}
