package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/pscgeo/internal/normalize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings of the enrichment tool.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the monitoring server; zero disables it.
// - Geocoder: Which geocoding provider to query and how.
// - Registry: Company registry access and retry policy.
// - Resolver: Limits of the address fallback search.
// - Matching: Fuzzy matching thresholds and corporate tokens.
// - Reference: Where reference data files live.
// - S3: Optional S3-compatible store holding the reference files.
// - Database: Optional PostgreSQL database holding the postcode table.
type Config struct {
	Env       string
	Port      int
	Geocoder  GeocoderConfig
	Registry  RegistryConfig
	Resolver  ResolverConfig
	Matching  MatchingConfig
	Reference ReferenceConfig
	S3        S3Config
	Database  PostgresConfig
}

// GeocoderConfig selects and configures the geocoding provider.
type GeocoderConfig struct {
	Type         string  // google or nominatim
	APIKey       string  // required for google
	BaseURL      string  // self-hosted Nominatim search endpoint
	UserAgent    string  // Nominatim usage policy identification
	CountryCodes string  // result filter, e.g. "gb"
	RateLimit    float64 // requests per second
}

// RegistryConfig configures the company registry client.
type RegistryConfig struct {
	APIKey      string // empty disables registry lookups
	BaseURL     string
	RateLimit   float64
	Backoff     time.Duration
	MaxAttempts int // zero retries forever
}

// ResolverConfig bounds the address fallback search.
type ResolverConfig struct {
	MaxParts     int
	SplitPremise bool
}

// MatchingConfig holds fuzzy matching parameters on the 0-100 scale.
type MatchingConfig struct {
	JurisdictionThreshold float64
	ListingThreshold      float64
	CorporateTokens       []string
}

// ReferenceConfig locates reference data, relative to Dir or to the S3 bucket root.
type ReferenceConfig struct {
	Dir            string
	PostcodePrefix string
	ListingPrefix  string
	SICCodes       string
	Snapshot       string
}

// S3Config holds the S3-compatible store settings. An empty endpoint means local files.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address; empty disables the database.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// Enabled reports whether a database host is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// MustLoad reads the configuration from the environment, a .env file and the
// optional YAML file named by PSCGEO_CONFIG. It panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("pscgeo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	for key, env := range map[string]string{
		"db_host":     "DB_HOST",
		"db_port":     "DB_PORT",
		"db_username": "DB_USERNAME",
		"db_password": "DB_PASSWORD",
		"db_name":     "DB_NAME",
	} {
		_ = v.BindEnv(key, env)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	port, err := strconv.Atoi(v.GetString("monitoring_port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	providerRate, err := strconv.ParseFloat(v.GetString("provider_rate"), 64)
	if err != nil {
		panic("failed to parse provider rate limit from configuration")
	}

	registryRate, err := strconv.ParseFloat(v.GetString("registry_rate"), 64)
	if err != nil {
		panic("failed to parse registry rate limit from configuration")
	}

	backoff, err := time.ParseDuration(v.GetString("registry_backoff"))
	if err != nil {
		panic("failed to parse registry backoff from configuration")
	}

	attempts, err := strconv.Atoi(v.GetString("registry_attempts"))
	if err != nil || attempts < 0 {
		panic("failed to parse registry attempts from configuration, must be a non-negative integer")
	}

	maxParts, err := strconv.Atoi(v.GetString("resolver_max_parts"))
	if err != nil || maxParts < 0 {
		panic("failed to parse resolver max parts from configuration, must be a non-negative integer")
	}

	splitPremise, err := strconv.ParseBool(v.GetString("resolver_split_premise"))
	if err != nil {
		panic("failed to parse resolver premise split from configuration, must be a boolean")
	}

	jurisdiction := mustThreshold(v.GetString("jurisdiction_threshold"))
	listing := mustThreshold(v.GetString("listing_threshold"))

	useSSL, err := strconv.ParseBool(v.GetString("s3_use_ssl"))
	if err != nil {
		panic("failed to parse S3 SSL flag from configuration, must be a boolean")
	}

	return &Config{
		Env:  v.GetString("env"),
		Port: port,
		Geocoder: GeocoderConfig{
			Type:         v.GetString("provider_type"),
			APIKey:       v.GetString("provider_key"),
			BaseURL:      v.GetString("provider_url"),
			UserAgent:    v.GetString("provider_user_agent"),
			CountryCodes: v.GetString("provider_country"),
			RateLimit:    providerRate,
		},
		Registry: RegistryConfig{
			APIKey:      v.GetString("registry_key"),
			BaseURL:     v.GetString("registry_url"),
			RateLimit:   registryRate,
			Backoff:     backoff,
			MaxAttempts: attempts,
		},
		Resolver: ResolverConfig{
			MaxParts:     maxParts,
			SplitPremise: splitPremise,
		},
		Matching: MatchingConfig{
			JurisdictionThreshold: jurisdiction,
			ListingThreshold:      listing,
			CorporateTokens:       splitList(v.GetString("corporate_tokens")),
		},
		Reference: ReferenceConfig{
			Dir:            v.GetString("reference_dir"),
			PostcodePrefix: v.GetString("postcode_prefix"),
			ListingPrefix:  v.GetString("listing_prefix"),
			SICCodes:       v.GetString("sic_codes"),
			Snapshot:       v.GetString("snapshot"),
		},
		S3: S3Config{
			Endpoint:  v.GetString("s3_endpoint"),
			AccessKey: v.GetString("s3_access_key"),
			SecretKey: v.GetString("s3_secret_key"),
			UseSSL:    useSSL,
			Bucket:    v.GetString("s3_bucket"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_username"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("monitoring_port", "0")
	v.SetDefault("provider_type", "nominatim")
	v.SetDefault("provider_country", "gb")
	v.SetDefault("provider_rate", "1")
	v.SetDefault("registry_rate", "2")
	v.SetDefault("registry_backoff", "10s")
	v.SetDefault("registry_attempts", "0")
	v.SetDefault("resolver_max_parts", "8")
	v.SetDefault("resolver_split_premise", "true")
	v.SetDefault("jurisdiction_threshold", "85")
	v.SetDefault("listing_threshold", "95")
	v.SetDefault("corporate_tokens", strings.Join(normalize.DefaultCorporateTokens, ","))
	v.SetDefault("reference_dir", ".")
	v.SetDefault("postcode_prefix", "codepo_gb/Data/CSV/")
	v.SetDefault("listing_prefix", "")
	v.SetDefault("sic_codes", "sic_codes.json")
	v.SetDefault("snapshot", "BasicCompanyDataAsOneFile.csv")
	v.SetDefault("s3_use_ssl", "true")
	v.SetDefault("db_port", "5432")
}

func mustThreshold(raw string) float64 {
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || threshold < 0 || threshold > 100 {
		panic("failed to parse matching threshold from configuration, must be between 0 and 100")
	}
	return threshold
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
