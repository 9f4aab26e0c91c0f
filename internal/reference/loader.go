package reference

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"go.uber.org/zap"
)

type localityFileEntry struct {
	City      string   `json:"city"`
	Locality  string   `json:"locality"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	AvgPrice  *float64 `json:"avg_price"`
}

// LoadFiles builds a MemoryStore from a locality coordinate JSON file and a
// listings CSV. A missing listings file leaves every price sample empty.
func LoadFiles(localitiesPath, listingsPath string) (*MemoryStore, error) {
	lf, err := os.Open(localitiesPath)
	if err != nil {
		return nil, fmt.Errorf("open locality reference: %w", err)
	}
	defer lf.Close()

	localities, err := ReadLocalities(lf)
	if err != nil {
		return nil, err
	}

	prices := map[string][]float64{}
	if listingsPath != "" {
		cf, err := os.Open(listingsPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("listings dataset not found, price samples empty", zap.String("path", listingsPath))
		case err != nil:
			return nil, fmt.Errorf("open listings dataset: %w", err)
		default:
			defer cf.Close()
			if prices, err = ReadComparablePrices(cf); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("reference data loaded",
		zap.Int("localities", len(localities)),
		zap.Int("price_samples", len(prices)),
	)

	return NewMemoryStore(localities, prices), nil
}

// ReadLocalities decodes a JSON array of
// {city, locality, latitude, longitude, avg_price}. Entries with invalid
// coordinates or no locality name are skipped.
func ReadLocalities(r io.Reader) ([]Locality, error) {
	var entries []localityFileEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode locality reference: %w", err)
	}

	out := make([]Locality, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Locality) == "" || !geo.ValidCoordinates(e.Latitude, e.Longitude) {
			logger.Warn("skipping locality reference entry",
				zap.String("city", e.City),
				zap.String("locality", e.Locality),
			)
			continue
		}
		l := Locality{
			City:     strings.TrimSpace(e.City),
			Name:     strings.TrimSpace(e.Locality),
			Centroid: geo.Point{Lat: e.Latitude, Lon: e.Longitude},
		}
		if e.AvgPrice != nil && *e.AvgPrice > 0 {
			l.AvgPrice = *e.AvgPrice
		}
		out = append(out, l)
	}
	return out, nil
}

// ReadComparablePrices reads a listings CSV with a header containing Price,
// City and Locality (or Location) columns, matched case-insensitively.
// Rows with a missing or non-positive price are skipped.
func ReadComparablePrices(r io.Reader) (map[string][]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read listings header: %w", err)
	}

	priceCol, cityCol, localityCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "price":
			priceCol = i
		case "city":
			cityCol = i
		case "locality":
			localityCol = i
		case "location":
			if localityCol == -1 {
				localityCol = i
			}
		}
	}
	if priceCol == -1 || cityCol == -1 || localityCol == -1 {
		return nil, fmt.Errorf("listings dataset needs Price, City and Locality columns, got %v", header)
	}

	prices := map[string][]float64{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read listings row: %w", err)
		}
		if len(record) <= priceCol || len(record) <= cityCol || len(record) <= localityCol {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[priceCol]), 64)
		if err != nil || price <= 0 {
			continue
		}
		key := Key(record[cityCol], record[localityCol])
		prices[key] = append(prices[key], price)
	}

	return prices, nil
}
