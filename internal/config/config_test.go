package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/UnknownOlympus/pscgeo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MustLoadFromEnv(t *testing.T) {
	t.Setenv("PSCGEO_ENV", "local")
	t.Setenv("PSCGEO_MONITORING_PORT", "8080")
	t.Setenv("PSCGEO_PROVIDER_TYPE", "google")
	t.Setenv("PSCGEO_PROVIDER_KEY", "testAPIKey")
	t.Setenv("PSCGEO_REGISTRY_KEY", "registryKey")
	t.Setenv("PSCGEO_REGISTRY_BACKOFF", "2s")
	t.Setenv("PSCGEO_REGISTRY_ATTEMPTS", "5")
	t.Setenv("PSCGEO_CORPORATE_TOKENS", "ltd, plc,,gmbh")
	t.Setenv("DB_HOST", "testHost")
	t.Setenv("DB_PORT", "12345")
	t.Setenv("DB_USERNAME", "admin")
	t.Setenv("DB_PASSWORD", "adminpass")
	t.Setenv("DB_NAME", "testName")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "google", cfg.Geocoder.Type)
	assert.Equal(t, "testAPIKey", cfg.Geocoder.APIKey)
	assert.Equal(t, "gb", cfg.Geocoder.CountryCodes)
	assert.InDelta(t, 1.0, cfg.Geocoder.RateLimit, 1e-9)
	assert.Equal(t, "registryKey", cfg.Registry.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Registry.Backoff)
	assert.Equal(t, 5, cfg.Registry.MaxAttempts)
	assert.Equal(t, 8, cfg.Resolver.MaxParts)
	assert.True(t, cfg.Resolver.SplitPremise)
	assert.InDelta(t, 85.0, cfg.Matching.JurisdictionThreshold, 1e-9)
	assert.InDelta(t, 95.0, cfg.Matching.ListingThreshold, 1e-9)
	assert.Equal(t, []string{"ltd", "plc", "gmbh"}, cfg.Matching.CorporateTokens)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "testHost", cfg.Database.Host)
	assert.Equal(t, "12345", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "adminpass", cfg.Database.Password)
	assert.Equal(t, "testName", cfg.Database.Name)
}

func TestMustLoad_Defaults(t *testing.T) {
	cfg := config.MustLoad()

	assert.Equal(t, "nominatim", cfg.Geocoder.Type)
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Registry.Backoff)
	assert.Equal(t, 0, cfg.Registry.MaxAttempts)
	assert.Equal(t, []string{"inc", "llc", "ltd", "corp", "corporation", "class", "series"}, cfg.Matching.CorporateTokens)
	assert.Equal(t, "sic_codes.json", cfg.Reference.SICCodes)
	assert.True(t, cfg.S3.UseSSL)
	assert.Empty(t, cfg.S3.Endpoint)
}

func TestMustLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pscgeo.yaml")
	content := "provider_type: google\nlisting_threshold: 90\nreference_dir: /data/reference\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PSCGEO_CONFIG", path)
	t.Setenv("PSCGEO_PROVIDER_TYPE", "nominatim")

	cfg := config.MustLoad()

	assert.Equal(t, "nominatim", cfg.Geocoder.Type, "environment overrides the file")
	assert.InDelta(t, 90.0, cfg.Matching.ListingThreshold, 1e-9)
	assert.Equal(t, "/data/reference", cfg.Reference.Dir)
}

func TestMustLoad_ConfigFileError(t *testing.T) {
	t.Setenv("PSCGEO_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	assert.PanicsWithValue(t, "failed to read configuration file", func() {
		config.MustLoad()
	})
}

func TestMustLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
		want  string
	}{
		{"port", "PSCGEO_MONITORING_PORT", "error_value", "failed to parse port for monitoring server from configuration"},
		{"provider rate", "PSCGEO_PROVIDER_RATE", "fast", "failed to parse provider rate limit from configuration"},
		{"registry rate", "PSCGEO_REGISTRY_RATE", "fast", "failed to parse registry rate limit from configuration"},
		{"backoff", "PSCGEO_REGISTRY_BACKOFF", "soon", "failed to parse registry backoff from configuration"},
		{
			"attempts", "PSCGEO_REGISTRY_ATTEMPTS", "-1",
			"failed to parse registry attempts from configuration, must be a non-negative integer",
		},
		{
			"max parts", "PSCGEO_RESOLVER_MAX_PARTS", "many",
			"failed to parse resolver max parts from configuration, must be a non-negative integer",
		},
		{
			"premise split", "PSCGEO_RESOLVER_SPLIT_PREMISE", "maybe",
			"failed to parse resolver premise split from configuration, must be a boolean",
		},
		{
			"threshold range", "PSCGEO_LISTING_THRESHOLD", "101",
			"failed to parse matching threshold from configuration, must be between 0 and 100",
		},
		{
			"threshold", "PSCGEO_JURISDICTION_THRESHOLD", "high",
			"failed to parse matching threshold from configuration, must be between 0 and 100",
		},
		{"ssl", "PSCGEO_S3_USE_SSL", "sometimes", "failed to parse S3 SSL flag from configuration, must be a boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			assert.PanicsWithValue(t, tt.want, func() {
				config.MustLoad()
			})
		})
	}
}
