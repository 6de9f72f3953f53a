package ports

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/collapser/internal/logging"
)

const producerPingTimeout = 2 * time.Second

type producerPinger interface {
	Ping(ctx context.Context) (int, error)
}

type consumerHealthResponseObject struct {
	Status         string `json:"status"`
	Consumer       string `json:"consumer"`
	Producer       string `json:"producer"`
	ProducerStatus int    `json:"producerStatus,omitempty"`
	ProducerError  string `json:"producerError,omitempty"`
	NodeID         string `json:"nodeId"`
	Timestamp      int64  `json:"timestamp"`
}

// MakeConsumerHealthHandler always answers 200 while the consumer is up, and
// reports whether the producer could be reached
func MakeConsumerHealthHandler(
	pinger producerPinger,
	nodeID string,
	rootLogger *slog.Logger,
	nowFunc func() time.Time,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("health"),
		logging.NewRequestLoggerMiddleware(rootLogger),
	)

	return middleware(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		response := consumerHealthResponseObject{
			Status:   "UP",
			Consumer: "healthy",
			NodeID:   nodeID,
		}

		pingCtx, cancel := context.WithTimeout(ctx, producerPingTimeout)
		defer cancel()

		statusCode, err := pinger.Ping(pingCtx)
		switch {
		case err != nil:
			logging.FromContext(ctx).WarnContext(ctx, "Producer unreachable", "error", err)
			response.Producer = "disconnected"
			response.ProducerError = err.Error()
		case statusCode != http.StatusOK:
			logging.FromContext(ctx).WarnContext(ctx, "Producer unhealthy", "producerStatus", statusCode)
			response.Producer = "disconnected"
			response.ProducerStatus = statusCode
		default:
			response.Producer = "connected"
			response.ProducerStatus = statusCode
		}
		response.Timestamp = nowFunc().UnixMilli()

		writeJSONResponse(ctx, w, http.StatusOK, response)
	})
}

type producerHealthResponseObject struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	NodeID    string `json:"nodeId"`
	Timestamp int64  `json:"timestamp"`
}

// MakeProducerHealthHandler answers 503 when the database cannot be reached
func MakeProducerHealthHandler(
	pingDB func(ctx context.Context) error,
	nodeID string,
	rootLogger *slog.Logger,
	nowFunc func() time.Time,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("health"),
		logging.NewRequestLoggerMiddleware(rootLogger),
	)

	return middleware(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := pingDB(pingCtx); err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "Database unreachable", "error", err)
			writeJSONResponse(ctx, w, http.StatusServiceUnavailable, producerHealthResponseObject{
				Status:    "DOWN",
				Database:  "disconnected",
				NodeID:    nodeID,
				Timestamp: nowFunc().UnixMilli(),
			})
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, producerHealthResponseObject{
			Status:    "UP",
			Database:  "connected",
			NodeID:    nodeID,
			Timestamp: nowFunc().UnixMilli(),
		})
	})
}
