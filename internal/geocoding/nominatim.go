package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/pscgeo/internal/models"
	"golang.org/x/time/rate"
)

// Nominatim defaults. The public instance allows one request per second and
// requires an identifying User-Agent.
const (
	NominatimBaseURL          = "https://nominatim.openstreetmap.org/search"
	NominatimDefaultUserAgent = "pscgeo/1.0 (https://github.com/UnknownOlympus/pscgeo)"
	nominatimTimeout          = 10 * time.Second
)

// ErrNominatimInvalidCoords is returned when a result carries unparsable coordinates.
var ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")

// NominatimProvider implements Provider on top of an OpenStreetMap Nominatim instance.
type NominatimProvider struct {
	client       HTTPClient
	baseURL      string
	userAgent    string
	countryCodes string // restricts results, e.g. "gb"
	limiter      *rate.Limiter
	log          *slog.Logger
}

type nominatimResponse struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NominatimOptions configures a NominatimProvider. Zero values select the public defaults.
type NominatimOptions struct {
	BaseURL      string
	UserAgent    string
	CountryCodes string
	RateLimit    float64 // requests per second; <= 0 means one per second
}

// NewNominatimProvider creates a provider using a default HTTP client.
func NewNominatimProvider(opts NominatimOptions, log *slog.Logger) *NominatimProvider {
	return NewNominatimProviderWithClient(&http.Client{Timeout: nominatimTimeout}, opts, log)
}

// NewNominatimProviderWithClient creates a provider with a custom HTTP client.
func NewNominatimProviderWithClient(client HTTPClient, opts NominatimOptions, log *slog.Logger) *NominatimProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = NominatimBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = NominatimDefaultUserAgent
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1
	}

	return &NominatimProvider{
		client:       client,
		baseURL:      opts.BaseURL,
		userAgent:    opts.UserAgent,
		countryCodes: opts.CountryCodes,
		limiter:      rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		log:          log,
	}
}

// Geocode sends one search request for address and returns the top result.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	if np.countryCodes != "" {
		query.Set("countrycodes", np.countryCodes)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoResult
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
