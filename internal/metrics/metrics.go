package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RecordsProcessed *prometheus.CounterVec
	RecordsExcluded  *prometheus.CounterVec
	GeocoderErrors   prometheus.Counter
	GeocoderSeconds  *prometheus.HistogramVec
	RegistryRetries  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RecordsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pscgeo_records_processed_total",
			Help: "Total number of enriched records by outcome.",
		}, []string{"outcome"}),
		RecordsExcluded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pscgeo_records_excluded_total",
			Help: "Total number of records dropped by a filter.",
		}, []string{"reason"}),
		GeocoderErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pscgeo_geocoder_errors_total",
			Help: "Total number of failed geocoder queries, excluding empty results.",
		}),
		GeocoderSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pscgeo_geocoder_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		RegistryRetries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pscgeo_registry_retries_total",
			Help: "Total number of retried company registry requests.",
		}),
	}
}
