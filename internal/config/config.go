package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const (
	defaultCacheTTL        = 1 * time.Minute
	defaultCacheMaxEntries = 10_000
	defaultUpstreamTimeout = 5 * time.Second
	defaultFollowerTimeout = 2 * time.Second
)

type Config struct {
	port               string
	sentryDSN          string
	producerURL        string
	dbConnectionString string
	cacheTTL           time.Duration
	cacheMaxEntries    uint64
	upstreamTimeout    time.Duration
	followerTimeout    time.Duration
	otelEnabled        bool
	corsAllowedDomains []string
	env                environment
}

// Port returns the configured port, or fallback when PORT is unset
func (c *Config) Port(fallback string) string {
	if c.port == "" {
		return fallback
	}
	return c.port
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) ProducerURL() string {
	return c.producerURL
}

func (c *Config) DBConnectionString() string {
	return c.dbConnectionString
}

func (c *Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c *Config) CacheMaxEntries() uint64 {
	return c.cacheMaxEntries
}

func (c *Config) UpstreamTimeout() time.Duration {
	return c.upstreamTimeout
}

func (c *Config) FollowerTimeout() time.Duration {
	return c.followerTimeout
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

// CORSAllowedDomains lists the domains whose https origins may call the consumer from a browser
func (c *Config) CORSAllowedDomains() []string {
	return c.corsAllowedDomains
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, producerURL: %s, cacheTTL: %s, cacheMaxEntries: %d, upstreamTimeout: %s, followerTimeout: %s, otelEnabled: %t, corsAllowedDomains: %v, ...}",
		string(c.env),
		c.producerURL,
		c.cacheTTL,
		c.cacheMaxEntries,
		c.upstreamTimeout,
		c.followerTimeout,
		c.otelEnabled,
		c.corsAllowedDomains,
	)
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	duration, err := time.ParseDuration(raw)
	if err != nil || duration <= 0 {
		return 0, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, raw)
	}
	return duration, nil
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("COLLAPSER_ENVIRONMENT")
	if !ok {
		return missingKey("COLLAPSER_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: COLLAPSER_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	port := os.Getenv("PORT")
	sentryDSN := os.Getenv("SENTRY_DSN")
	producerURL := os.Getenv("PRODUCER_URL")
	dbConnectionString := os.Getenv("DB_CONNECTION_STRING")

	if env == production || env == staging {
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if producerURL == "" {
			return missingKey("PRODUCER_URL")
		}
		if dbConnectionString == "" {
			return missingKey("DB_CONNECTION_STRING")
		}
	}

	cacheTTL, err := durationFromEnv("CACHE_TTL", defaultCacheTTL)
	if err != nil {
		return Config{}, err
	}
	upstreamTimeout, err := durationFromEnv("UPSTREAM_TIMEOUT", defaultUpstreamTimeout)
	if err != nil {
		return Config{}, err
	}
	followerTimeout, err := durationFromEnv("FOLLOWER_TIMEOUT", defaultFollowerTimeout)
	if err != nil {
		return Config{}, err
	}

	cacheMaxEntries := uint64(defaultCacheMaxEntries)
	if raw := os.Getenv("CACHE_MAX_ENTRIES"); raw != "" {
		cacheMaxEntries, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: CACHE_MAX_ENTRIES (%s)", ErrInvalidValue, raw)
		}
	}

	otelEnabled := false
	if raw := os.Getenv("OTEL_ENABLED"); raw != "" {
		otelEnabled, err = strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: OTEL_ENABLED (%s)", ErrInvalidValue, raw)
		}
	}

	var corsAllowedDomains []string
	for domain := range strings.SplitSeq(os.Getenv("CORS_ALLOWED_DOMAINS"), ",") {
		if domain = strings.TrimSpace(domain); domain != "" {
			corsAllowedDomains = append(corsAllowedDomains, domain)
		}
	}

	return Config{
		port:               port,
		sentryDSN:          sentryDSN,
		producerURL:        producerURL,
		dbConnectionString: dbConnectionString,
		cacheTTL:           cacheTTL,
		cacheMaxEntries:    cacheMaxEntries,
		upstreamTimeout:    upstreamTimeout,
		followerTimeout:    followerTimeout,
		otelEnabled:        otelEnabled,
		corsAllowedDomains: corsAllowedDomains,
		env:                env,
	}, nil
}
