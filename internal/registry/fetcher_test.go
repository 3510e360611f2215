package registry_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/pscgeo/internal/metrics"
	"github.com/UnknownOlympus/pscgeo/internal/models"
	"github.com/UnknownOlympus/pscgeo/internal/registry"
	"github.com/UnknownOlympus/pscgeo/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Profile(t *testing.T) {
	logger := slog.Default()
	quick := registry.RetryPolicy{Backoff: registry.FixedBackoff(time.Millisecond)}
	profile := &models.CompanyProfile{CompanyNumber: "01234567"}
	transient := &registry.TransientError{StatusCode: 503, Err: assert.AnError}

	t.Run("retries transient failures until success", func(t *testing.T) {
		client := mocks.NewProfileFetcher(t)
		m := metrics.NewMetrics(prometheus.NewRegistry())
		client.On("Profile", mock.Anything, "01234567").Return(nil, transient).Twice()
		client.On("Profile", mock.Anything, "01234567").Return(profile, nil).Once()

		got, err := registry.NewFetcher(client, quick, logger, m).Profile(context.Background(), "01234567")

		require.NoError(t, err)
		assert.Same(t, profile, got)
		assert.InDelta(t, 2.0, testutil.ToFloat64(m.RegistryRetries), 0)
	})

	t.Run("not found is not retried", func(t *testing.T) {
		client := mocks.NewProfileFetcher(t)
		client.On("Profile", mock.Anything, "99999999").Return(nil, registry.ErrNotFound).Once()

		_, err := registry.NewFetcher(client, quick, logger, nil).Profile(context.Background(), "99999999")

		require.ErrorIs(t, err, registry.ErrNotFound)
	})

	t.Run("attempts are bounded when configured", func(t *testing.T) {
		client := mocks.NewProfileFetcher(t)
		client.On("Profile", mock.Anything, "01234567").Return(nil, transient).Times(3)
		policy := quick
		policy.MaxAttempts = 3

		_, err := registry.NewFetcher(client, policy, logger, nil).Profile(context.Background(), "01234567")

		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "after 3 attempts")
	})

	t.Run("context cancellation stops the wait", func(t *testing.T) {
		client := mocks.NewProfileFetcher(t)
		ctx, cancel := context.WithCancel(context.Background())
		client.On("Profile", mock.Anything, "01234567").
			Run(func(mock.Arguments) { cancel() }).
			Return(nil, transient).Once()
		slow := registry.RetryPolicy{Backoff: registry.FixedBackoff(time.Hour)}

		_, err := registry.NewFetcher(client, slow, logger, nil).Profile(ctx, "01234567")

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestDefaultRetryPolicy(t *testing.T) {
	assert.Zero(t, registry.DefaultRetryPolicy.MaxAttempts)
	assert.Equal(t, 10*time.Second, registry.DefaultRetryPolicy.Backoff(1))
	assert.Equal(t, 10*time.Second, registry.DefaultRetryPolicy.Backoff(42))
}
