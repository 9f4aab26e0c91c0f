package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Reference ReferenceConfig
	Corpus    CorpusConfig
	Detection DetectionConfig
	Providers ProvidersConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig configures where s3:// image references are fetched from.
type StorageConfig struct {
	S3Enabled bool
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// ReferenceConfig points at the locality reference data.
// Source is "file" or "postgres".
type ReferenceConfig struct {
	Source         string
	LocalitiesPath string
	ListingsPath   string
	H3Resolution   int
}

// CorpusConfig selects the backend for the text corpus and image
// fingerprint store: "memory", "file", "redis" or "postgres".
type CorpusConfig struct {
	Backend          string
	TextPath         string
	FingerprintsPath string
	RedisPrefix      string
	LockTTLSeconds   int
}

// DetectionConfig holds the tunable detector thresholds.
type DetectionConfig struct {
	SuspiciousRadiusKm   float64
	HighRiskRadiusKm     float64
	AmenityNearbyKm      float64
	AmenityVeryCloseKm   float64
	MinComparables       int
	DuplicateThreshold   float64
	HashDistanceMax      int
	PersistByDefault     bool
	ModuleTimeoutSeconds int
}

// ProvidersConfig holds the reverse-geocoding and POI provider settings.
type ProvidersConfig struct {
	UserAgent             string
	TimeoutSeconds        int
	NominatimURL          string
	NominatimEnabled      bool
	NominatimMinInterval  time.Duration
	BigDataCloudURL       string
	BigDataCloudEnabled   bool
	LocationIQURL         string
	LocationIQKey         string
	OpenCageURL           string
	OpenCageKey           string
	OverpassURL           string
	OverpassTimeoutSecond int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8000"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 60),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "listing_fraud"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			S3Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Reference: ReferenceConfig{
			Source:         getEnv("REFERENCE_SOURCE", "file"),
			LocalitiesPath: getEnv("REFERENCE_LOCALITIES_PATH", "data/locality_coordinates.json"),
			ListingsPath:   getEnv("REFERENCE_LISTINGS_PATH", "data/listings.csv"),
			H3Resolution:   getEnvAsInt("REFERENCE_H3_RESOLUTION", 7),
		},
		Corpus: CorpusConfig{
			Backend:          getEnv("CORPUS_BACKEND", "file"),
			TextPath:         getEnv("CORPUS_TEXT_PATH", "data/text_corpus.json"),
			FingerprintsPath: getEnv("CORPUS_FINGERPRINTS_PATH", "data/image_hashes.json"),
			RedisPrefix:      getEnv("CORPUS_REDIS_PREFIX", "corpus"),
			LockTTLSeconds:   getEnvAsInt("CORPUS_LOCK_TTL", 30),
		},
		Detection: DetectionConfig{
			SuspiciousRadiusKm:   getEnvAsFloat("LOCATION_SUSPICIOUS_KM", 1.5),
			HighRiskRadiusKm:     getEnvAsFloat("LOCATION_HIGH_RISK_KM", 3.0),
			AmenityNearbyKm:      getEnvAsFloat("AMENITY_NEARBY_KM", 2.0),
			AmenityVeryCloseKm:   getEnvAsFloat("AMENITY_VERY_CLOSE_KM", 0.5),
			MinComparables:       getEnvAsInt("PRICE_MIN_COMPARABLES", 5),
			DuplicateThreshold:   getEnvAsFloat("TEXT_DUPLICATE_THRESHOLD", 0.8),
			HashDistanceMax:      getEnvAsInt("IMAGE_HASH_DISTANCE", 8),
			PersistByDefault:     getEnvAsBool("PERSIST_BY_DEFAULT", true),
			ModuleTimeoutSeconds: getEnvAsInt("MODULE_TIMEOUT", 30),
		},
		Providers: ProvidersConfig{
			UserAgent:             getEnv("GEOCODER_USER_AGENT", "realestate-fraud-detection/1.0"),
			TimeoutSeconds:        getEnvAsInt("GEOCODER_TIMEOUT", 5),
			NominatimURL:          getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			NominatimEnabled:      getEnvAsBool("NOMINATIM_ENABLED", true),
			NominatimMinInterval:  time.Duration(getEnvAsInt("NOMINATIM_MIN_INTERVAL_MS", 1000)) * time.Millisecond,
			BigDataCloudURL:       getEnv("BIGDATACLOUD_URL", "https://api.bigdatacloud.net"),
			BigDataCloudEnabled:   getEnvAsBool("BIGDATACLOUD_ENABLED", true),
			LocationIQURL:         getEnv("LOCATIONIQ_URL", "https://us1.locationiq.com"),
			LocationIQKey:         getEnv("LOCATIONIQ_API_KEY", ""),
			OpenCageURL:           getEnv("OPENCAGE_URL", "https://api.opencagedata.com"),
			OpenCageKey:           getEnv("OPENCAGE_API_KEY", ""),
			OverpassURL:           getEnv("OVERPASS_URL", "https://overpass-api.de"),
			OverpassTimeoutSecond: getEnvAsInt("OVERPASS_TIMEOUT", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	d := c.Detection
	if d.SuspiciousRadiusKm <= 0 || d.HighRiskRadiusKm <= d.SuspiciousRadiusKm {
		return fmt.Errorf("invalid location radii: suspicious=%.2f high_risk=%.2f", d.SuspiciousRadiusKm, d.HighRiskRadiusKm)
	}
	if d.AmenityVeryCloseKm <= 0 || d.AmenityNearbyKm < d.AmenityVeryCloseKm {
		return fmt.Errorf("invalid amenity radii: nearby=%.2f very_close=%.2f", d.AmenityNearbyKm, d.AmenityVeryCloseKm)
	}
	switch strings.ToLower(c.Corpus.Backend) {
	case "memory", "file", "redis", "postgres":
	default:
		return fmt.Errorf("unknown corpus backend %q", c.Corpus.Backend)
	}
	switch strings.ToLower(c.Reference.Source) {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown reference source %q", c.Reference.Source)
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form, as expected by
// golang-migrate.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Timeout returns the per-call provider timeout.
func (c *ProvidersConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
