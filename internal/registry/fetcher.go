package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/pscgeo/internal/metrics"
	"github.com/UnknownOlympus/pscgeo/internal/models"
)

const defaultBackoff = 10 * time.Second

// ProfileFetcher returns the registry profile of a company.
type ProfileFetcher interface {
	Profile(ctx context.Context, companyNumber string) (*models.CompanyProfile, error)
}

// RetryPolicy says how often and how patiently transient failures are retried.
type RetryPolicy struct {
	MaxAttempts int // total attempts; zero retries forever
	Backoff     func(attempt int) time.Duration
}

// FixedBackoff waits d before every retry.
func FixedBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// DefaultRetryPolicy retries transient failures forever, ten seconds apart.
var DefaultRetryPolicy = RetryPolicy{Backoff: FixedBackoff(defaultBackoff)}

// Fetcher retries transient failures of another ProfileFetcher.
type Fetcher struct {
	client  ProfileFetcher
	policy  RetryPolicy
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewFetcher wraps client with policy. metrics may be nil.
func NewFetcher(client ProfileFetcher, policy RetryPolicy, log *slog.Logger, m *metrics.Metrics) *Fetcher {
	if policy.Backoff == nil {
		policy.Backoff = FixedBackoff(defaultBackoff)
	}
	return &Fetcher{client: client, policy: policy, log: log, metrics: m}
}

// Profile calls the wrapped client until it succeeds, fails permanently, the
// attempts run out or ctx is done. Only *TransientError is retried.
func (f *Fetcher) Profile(ctx context.Context, companyNumber string) (*models.CompanyProfile, error) {
	for attempt := 1; ; attempt++ {
		profile, err := f.client.Profile(ctx, companyNumber)
		if err == nil {
			return profile, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		if f.policy.MaxAttempts > 0 && attempt >= f.policy.MaxAttempts {
			return nil, fmt.Errorf("failed to fetch company %s after %d attempts: %w", companyNumber, attempt, err)
		}

		wait := f.policy.Backoff(attempt)
		f.log.WarnContext(ctx, "Registry request failed, retrying",
			"company_number", companyNumber, "attempt", attempt, "retry_in", wait, "error", err)
		if f.metrics != nil {
			f.metrics.RegistryRetries.Inc()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
