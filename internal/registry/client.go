// Package registry fetches company profiles from the Companies House public data API.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/pscgeo/internal/models"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Companies House public data API.
	BaseURL = "https://api.company-information.service.gov.uk"

	// Companies House allows 600 requests per five minutes per key.
	defaultRateLimit = 2
	requestTimeout   = 30 * time.Second
)

var (
	// ErrNotFound is returned when the registry has no company with the requested number.
	ErrNotFound = errors.New("company not found in registry")
	// ErrEmptyCompanyNumber is returned for a blank company number.
	ErrEmptyCompanyNumber = errors.New("empty company number")
)

// TransientError is a failure worth retrying: a transport error, a rate
// limit response or a server error.
type TransientError struct {
	StatusCode int // zero for transport errors
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("registry returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("registry request failed: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client requests company profiles with basic authentication.
type Client struct {
	http    HTTPClient
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	log     *slog.Logger
}

// ClientOptions configures a Client. Zero values select the public API defaults.
type ClientOptions struct {
	BaseURL   string
	APIKey    string
	RateLimit float64 // requests per second
}

// NewClient creates a Client using a default HTTP client.
func NewClient(opts ClientOptions, log *slog.Logger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: requestTimeout}, opts, log)
}

// NewClientWithHTTP creates a Client with a custom HTTP client.
func NewClientWithHTTP(client HTTPClient, opts ClientOptions, log *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	return &Client{
		http:    client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		log:     log,
	}
}

// Profile fetches the profile of one company. It returns ErrNotFound on 404
// and a *TransientError when the request may succeed if repeated.
func (c *Client) Profile(ctx context.Context, companyNumber string) (*models.CompanyProfile, error) {
	companyNumber = strings.TrimSpace(companyNumber)
	if companyNumber == "" {
		return nil, ErrEmptyCompanyNumber
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/company/"+url.PathEscape(companyNumber), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	c.log.DebugContext(ctx, "Fetching company profile", "company_number", companyNumber)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, companyNumber)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, &TransientError{StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	default:
		return nil, fmt.Errorf("registry returned status %d for %s: %s", resp.StatusCode, companyNumber, string(body))
	}

	var profile models.CompanyProfile
	if err = json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode company profile: %w", err)
	}

	return &profile, nil
}
