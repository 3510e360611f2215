package geocoding

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
)

// ErrUnsupportedProvider is returned for provider types without a constructor.
var ErrUnsupportedProvider = errors.New("unsupported provider type")

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type         ProviderType
	APIKey       string  // Google only
	RateLimit    float64 // requests per second
	BaseURL      string  // Nominatim only; empty selects the public instance
	UserAgent    string  // Nominatim only
	CountryCodes string  // restricts or biases results to these countries, e.g. "gb"
	Logger       *slog.Logger
}

var constructors = map[ProviderType]func(ProviderConfig) (Provider, error){
	ProviderTypeGoogle:    newGoogleProvider,
	ProviderTypeNominatim: newNominatimProvider,
}

// ParseProviderType accepts a provider name in any case, surrounded by blanks.
func ParseProviderType(name string) (ProviderType, error) {
	providerType := ProviderType(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := constructors[providerType]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
	return providerType, nil
}

// NewProvider creates a geocoding provider based on the provided configuration.
//
// Supported provider types:
// - "google": Google Maps Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API, public or self-hosted
func NewProvider(config ProviderConfig) (Provider, error) {
	construct, ok := constructors[config.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, config.Type)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return construct(config)
}

func newNominatimProvider(config ProviderConfig) (Provider, error) {
	return NewNominatimProvider(NominatimOptions{
		BaseURL:      config.BaseURL,
		UserAgent:    config.UserAgent,
		CountryCodes: config.CountryCodes,
		RateLimit:    config.RateLimit,
	}, config.Logger), nil
}

func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
	// The maps client limits whole requests per second; fractions round up.
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(max(1, int(config.RateLimit+0.999))))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, googleRegion(config.CountryCodes), config.Logger), nil
}

// googleRegion maps an ISO country code to the ccTLD Google expects.
func googleRegion(countryCodes string) string {
	if countryCodes == "gb" {
		return "uk"
	}
	return countryCodes
}
