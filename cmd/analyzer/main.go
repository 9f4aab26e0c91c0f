package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/internal/amenity"
	"github.com/Madhu097/realestate-fraud-detection/internal/corpus"
	"github.com/Madhu097/realestate-fraud-detection/internal/fraud"
	"github.com/Madhu097/realestate-fraud-detection/internal/geocode"
	"github.com/Madhu097/realestate-fraud-detection/internal/imaging"
	"github.com/Madhu097/realestate-fraud-detection/internal/location"
	"github.com/Madhu097/realestate-fraud-detection/internal/price"
	"github.com/Madhu097/realestate-fraud-detection/internal/reference"
	"github.com/Madhu097/realestate-fraud-detection/internal/text"
	"github.com/Madhu097/realestate-fraud-detection/pkg/common"
	"github.com/Madhu097/realestate-fraud-detection/pkg/config"
	"github.com/Madhu097/realestate-fraud-detection/pkg/database"
	"github.com/Madhu097/realestate-fraud-detection/pkg/health"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"github.com/Madhu097/realestate-fraud-detection/pkg/middleware"
	redisclient "github.com/Madhu097/realestate-fraud-detection/pkg/redis"
	"github.com/Madhu097/realestate-fraud-detection/pkg/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	serviceName    = "listing-analyzer"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment, zap.String("service", cfg.Server.ServiceName)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("analyzer stopped", zap.Error(err))
	}
}

// deps holds the connections opened at startup so they can be closed on exit.
type deps struct {
	pool   *pgxpool.Pool
	sqlDB  *sql.DB
	redis  *redisclient.Client
	checks map[string]func() error
}

func (d *deps) close() {
	database.Close(d.pool)
	if d.sqlDB != nil {
		d.sqlDB.Close()
	}
	if d.redis != nil {
		d.redis.Close()
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := &deps{checks: make(map[string]func() error)}
	defer d.close()

	if err := d.connect(cfg); err != nil {
		return err
	}

	svc, err := buildService(ctx, cfg, d)
	if err != nil {
		return err
	}

	router := newRouter(cfg, fraud.NewHandler(svc), d.checks)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("analyzer starting",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down analyzer")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// connect opens the database and Redis connections the configuration asks for.
func (d *deps) connect(cfg *config.Config) error {
	needsDB := cfg.Database.Enabled ||
		strings.EqualFold(cfg.Reference.Source, "postgres") ||
		strings.EqualFold(cfg.Corpus.Backend, "postgres")

	if needsDB {
		pool, err := database.NewPostgresPool(&cfg.Database)
		if err != nil {
			return err
		}
		d.pool = pool
		d.checks["database"] = health.PoolChecker(pool)
		logger.Info("connected to postgres", zap.String("host", cfg.Database.Host))
	}

	if strings.EqualFold(cfg.Corpus.Backend, "postgres") {
		db, err := database.OpenSQL(&cfg.Database)
		if err != nil {
			return err
		}
		d.sqlDB = db
	}

	if strings.EqualFold(cfg.Corpus.Backend, "redis") {
		client, err := redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			return err
		}
		d.redis = client
		d.checks["redis"] = health.RedisChecker(client.Client)
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.RedisAddr()))
	}

	return nil
}

func buildService(ctx context.Context, cfg *config.Config, d *deps) (*fraud.Service, error) {
	ref, err := buildReference(cfg, d.pool)
	if err != nil {
		return nil, err
	}

	localities, err := ref.Localities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load localities: %w", err)
	}
	index, err := reference.NewIndex(localities, cfg.Reference.H3Resolution)
	if err != nil {
		return nil, fmt.Errorf("build locality index: %w", err)
	}
	logger.Info("locality index built",
		zap.String("source", cfg.Reference.Source),
		zap.Int("localities", len(localities)),
	)

	textStore, fingerprints, err := buildCorpus(cfg, d)
	if err != nil {
		return nil, err
	}

	images, err := buildImageSource(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	det := cfg.Detection
	detectors := fraud.Detectors{
		Price: price.NewDetector(ref, det.MinComparables),
		Text:  text.NewDetector(textStore, det.DuplicateThreshold),
		Location: location.NewDetector(ref, index, location.Config{
			SuspiciousRadiusKm: det.SuspiciousRadiusKm,
			HighRiskRadiusKm:   det.HighRiskRadiusKm,
		}),
		Amenity: amenity.NewVerifier(
			amenity.NewOverpassSource(cfg.Providers.OverpassURL, time.Duration(cfg.Providers.OverpassTimeoutSecond)*time.Second),
			amenity.Config{NearbyKm: det.AmenityNearbyKm, VeryCloseKm: det.AmenityVeryCloseKm},
		),
		Image: imaging.NewDetector(images, fingerprints, det.HashDistanceMax),
	}

	providers := geocode.NewProviders(cfg.Providers)
	if len(providers) > 0 {
		detectors.ExternalLocation = geocode.NewVerifier(providers...)
	} else {
		logger.Warn("no reverse geocoding providers configured; external location check disabled")
	}

	opts := []fraud.Option{
		fraud.WithPersistByDefault(det.PersistByDefault),
		fraud.WithModuleTimeout(time.Duration(det.ModuleTimeoutSeconds) * time.Second),
	}
	if cfg.Database.Enabled && d.pool != nil {
		opts = append(opts, fraud.WithHistory(fraud.NewRepository(d.pool)))
	}

	return fraud.NewService(detectors, opts...), nil
}

func buildReference(cfg *config.Config, pool *pgxpool.Pool) (reference.Store, error) {
	switch strings.ToLower(cfg.Reference.Source) {
	case "postgres":
		return reference.NewPostgresRepository(pool), nil
	case "file", "":
		store, err := reference.LoadFiles(cfg.Reference.LocalitiesPath, cfg.Reference.ListingsPath)
		if err != nil {
			return nil, fmt.Errorf("load reference files: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown reference source %q", cfg.Reference.Source)
	}
}

func buildCorpus(cfg *config.Config, d *deps) (corpus.TextStore, corpus.FingerprintStore, error) {
	c := cfg.Corpus
	switch strings.ToLower(c.Backend) {
	case "memory":
		return corpus.NewMemoryTextStore(), corpus.NewMemoryFingerprintStore(), nil
	case "file":
		return corpus.NewFileTextStore(c.TextPath), corpus.NewFileFingerprintStore(c.FingerprintsPath), nil
	case "redis":
		ttl := time.Duration(c.LockTTLSeconds) * time.Second
		return corpus.NewRedisTextStore(d.redis.Client, c.RedisPrefix, ttl),
			corpus.NewRedisFingerprintStore(d.redis.Client, c.RedisPrefix, ttl), nil
	case "postgres":
		return corpus.NewPostgresTextStore(d.sqlDB), corpus.NewPostgresFingerprintStore(d.sqlDB), nil
	default:
		return nil, nil, fmt.Errorf("unknown corpus backend %q", c.Backend)
	}
}

func buildImageSource(ctx context.Context, cfg config.StorageConfig) (*imaging.ObjectSource, error) {
	local := storage.NewLocalStorage("")
	if !cfg.S3Enabled {
		return imaging.NewObjectSource(local, nil), nil
	}

	s3, err := storage.NewS3Storage(ctx, storage.S3Config{
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 storage: %w", err)
	}
	return imaging.NewObjectSource(local, s3), nil
}

// corsOrigins splits the comma-separated origin list.
func corsOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func newRouter(cfg *config.Config, handler *fraud.Handler, checks map[string]func() error) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	if origins := corsOrigins(cfg.Server.CORSOrigins); len(origins) == 0 || origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, serviceVersion, checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router)

	return router
}
