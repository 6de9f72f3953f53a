package cache

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type cacheMetricsCollection struct {
	lookups          metric.Int64Counter
	followerTimeouts metric.Int64Counter
	fetches          metric.Int64Counter
	fetchDuration    metric.Float64Histogram
}

var metrics cacheMetricsCollection

func init() {
	const name = "collapser/cache"
	meter := otel.Meter(name)

	lookups, err := meter.Int64Counter(
		"cache/lookup_count",
		metric.WithDescription("Calls to GetOrFetch by outcome of the cache lookup (hit, leader, follower)"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create lookup count metric: %w", err))
	}

	followerTimeouts, err := meter.Int64Counter(
		"cache/follower_timeout_count",
		metric.WithDescription("Followers that gave up waiting for an in-flight fetch"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create follower timeout metric: %w", err))
	}

	fetches, err := meter.Int64Counter(
		"cache/fetch_count",
		metric.WithDescription("Upstream fetches by outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create fetch count metric: %w", err))
	}

	fetchDuration, err := meter.Float64Histogram(
		"cache/fetch_duration_seconds",
		metric.WithDescription("Time from leader election until the in-flight fetch settled"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create fetch duration metric: %w", err))
	}

	metrics = cacheMetricsCollection{
		lookups:          lookups,
		followerTimeouts: followerTimeouts,
		fetches:          fetches,
		fetchDuration:    fetchDuration,
	}
}
