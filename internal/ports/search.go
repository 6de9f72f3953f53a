package ports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/collapser/internal/app"
	"github.com/Amund211/collapser/internal/domain"
	"github.com/Amund211/collapser/internal/logging"
	"github.com/Amund211/collapser/internal/ratelimiting"
	"github.com/Amund211/collapser/internal/reporting"
)

type searchResponseObject struct {
	Success        bool                   `json:"success"`
	SearchedFor    string                 `json:"searchedFor"`
	Found          bool                   `json:"found"`
	Records        []recordResponseObject `json:"records"`
	ResponseTimeMs int64                  `json:"responseTimeMs"`
	Timestamp      int64                  `json:"timestamp"`
}

func statusCodeForSearchError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidKey):
		return http.StatusBadRequest, "Invalid search key"
	case errors.Is(err, domain.ErrFollowerTimeout):
		return http.StatusGatewayTimeout, "Data not available yet, please retry"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout, "Timed out fetching data from the producer"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusServiceUnavailable, "Failed to fetch data from the producer"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func MakeSearchHandler(
	searchRecords app.SearchRecords,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
	nowFunc func() time.Time,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(20),
		ratelimiting.BurstSize(600),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		statusCode := http.StatusTooManyRequests

		logging.FromContext(ctx).InfoContext(ctx, "Rate limit exceeded", "statusCode", statusCode, "reason", "ratelimit exceeded")

		writeJSONResponse(ctx, w, statusCode, errorResponseObject{
			Error:       "Rate limit exceeded",
			SearchedFor: r.URL.Query().Get("key"),
			Timestamp:   nowFunc().UnixMilli(),
		})
	}

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("search"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("search"),
		NewRateLimitMiddleware(ipRateLimiter, onLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		start := nowFunc()
		ctx := r.Context()

		key := r.URL.Query().Get("key")

		if userID := r.Header.Get("X-User-Id"); userID != "" {
			ctx = reporting.SetUserIDInContext(ctx, userID)
		}
		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"key": key,
			},
		)

		records, err := searchRecords(ctx, key)
		if err != nil {
			statusCode, message := statusCodeForSearchError(err)
			if statusCode == http.StatusBadRequest {
				logging.FromContext(ctx).InfoContext(ctx, "Invalid search key", "statusCode", statusCode, "reason", "invalid key", "error", err)
			} else {
				logging.FromContext(ctx).ErrorContext(ctx, "Error searching records", "statusCode", statusCode, "error", err)
			}

			writeJSONResponse(ctx, w, statusCode, errorResponseObject{
				Error:       message,
				Message:     err.Error(),
				SearchedFor: key,
				Timestamp:   nowFunc().UnixMilli(),
			})
			return
		}

		end := nowFunc()
		responseTimeMs := end.Sub(start).Milliseconds()

		logging.FromContext(ctx).InfoContext(ctx, "Search completed", "found", len(records) > 0, "records", len(records), "responseTimeMs", responseTimeMs)

		writeJSONResponse(ctx, w, http.StatusOK, searchResponseObject{
			Success:        true,
			SearchedFor:    key,
			Found:          len(records) > 0,
			Records:        recordsToResponseObjects(records),
			ResponseTimeMs: responseTimeMs,
			Timestamp:      end.UnixMilli(),
		})
	}

	return middleware(handler)
}
