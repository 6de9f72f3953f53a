package app

import (
	"context"
	"time"

	"github.com/Amund211/collapser/internal/adapters/cache"
	"github.com/Amund211/collapser/internal/domain"
)

type SearchRecords func(ctx context.Context, key string) ([]domain.Record, error)

type recordFinder interface {
	FindRecords(ctx context.Context, key string) ([]domain.Record, error)
}

func BuildSearchRecordsWithCache(
	coordinator *cache.Coordinator[[]domain.Record],
	provider recordFinder,
	followerTimeout time.Duration,
) SearchRecords {
	return func(ctx context.Context, key string) ([]domain.Record, error) {
		// NOTE: The provider handles its own error reporting, and errors from the
		// coordinator are returned as-is so callers can match on them with errors.Is
		return coordinator.GetOrFetch(ctx, key, followerTimeout, provider.FindRecords)
	}
}
