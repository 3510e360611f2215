package service

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/pscgeo/internal/geocoding"
	"github.com/UnknownOlympus/pscgeo/internal/metrics"
	"github.com/UnknownOlympus/pscgeo/internal/models"
)

// instrumentedProvider records the duration and failures of every geocoder query.
type instrumentedProvider struct {
	provider     geocoding.Provider
	providerName string
	metrics      *metrics.Metrics
}

// InstrumentProvider wraps provider so that each query is observed in metrics.
func InstrumentProvider(provider geocoding.Provider, providerName string, m *metrics.Metrics) geocoding.Provider {
	if m == nil {
		return provider
	}
	return &instrumentedProvider{provider: provider, providerName: providerName, metrics: m}
}

func (ip *instrumentedProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	startTime := time.Now()
	coords, err := ip.provider.Geocode(ctx, address)
	duration := time.Since(startTime).Seconds()
	ip.metrics.GeocoderSeconds.WithLabelValues(ip.providerName).Observe(duration)

	if err != nil && !errors.Is(err, geocoding.ErrNoResult) {
		ip.metrics.GeocoderErrors.Inc()
	}

	return coords, err
}
