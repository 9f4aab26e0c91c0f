package fraud

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var scoreBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

var (
	moduleScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_fraud_module_score",
			Help:    "Distribution of detector scores",
			Buckets: scoreBuckets,
		},
		[]string{"module"},
	)

	moduleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_fraud_module_duration_seconds",
			Help:    "Time spent in each detector",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"module"},
	)

	finalProbability = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_fraud_probability",
			Help:    "Distribution of fused fraud probabilities",
			Buckets: scoreBuckets,
		},
	)

	fraudTypesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_fraud_types_total",
			Help: "Number of analyses labeled with each fraud type",
		},
		[]string{"fraud_type"},
	)

	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_fraud_analyses_total",
			Help: "Number of analyses by risk band",
		},
		[]string{"risk_band"},
	)
)
