package ports

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/collapser/internal/app"
	"github.com/Amund211/collapser/internal/domain"
	"github.com/Amund211/collapser/internal/logging"
	"github.com/Amund211/collapser/internal/reporting"
)

const maxRequestBodyBytes = 64 * 1024

type storeRecordRequestObject struct {
	Content string `json:"content"`
}

type storeRecordResponseObject struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func MakeStoreRecordHandler(
	storeRecord app.StoreRecord,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
	nowFunc func() time.Time,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("store_record"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("store_record"),
	)

	badRequest := func(w http.ResponseWriter, r *http.Request, reason string, err error) {
		ctx := r.Context()
		statusCode := http.StatusBadRequest

		logging.FromContext(ctx).InfoContext(ctx, "Invalid store record request", "statusCode", statusCode, "reason", reason, "error", err)

		writeJSONResponse(ctx, w, statusCode, errorResponseObject{
			Error:     reason,
			Message:   err.Error(),
			Timestamp: nowFunc().UnixMilli(),
		})
	}

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil {
			badRequest(w, r, "Could not read request body", err)
			return
		}
		if len(body) == 0 {
			badRequest(w, r, "Empty request body", domain.ErrInvalidContent)
			return
		}

		var request storeRecordRequestObject
		if err := json.Unmarshal(body, &request); err != nil {
			badRequest(w, r, "Request body is not valid JSON", err)
			return
		}

		record, err := storeRecord(ctx, request.Content)
		if errors.Is(err, domain.ErrInvalidContent) {
			badRequest(w, r, "Invalid record content", err)
			return
		} else if err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "Failed to store record", "error", err)
			writeJSONResponse(ctx, w, http.StatusInternalServerError, errorResponseObject{
				Error:     "Failed to store record",
				Timestamp: nowFunc().UnixMilli(),
			})
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Stored record", "id", record.ID)

		writeJSONResponse(ctx, w, http.StatusCreated, storeRecordResponseObject{
			ID:     record.ID,
			Status: "Created",
		})
	}

	return middleware(handler)
}

func MakeListRecordsHandler(
	listRecords app.ListRecords,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
	nowFunc func() time.Time,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("list_records"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("list_records"),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		records, err := listRecords(ctx)
		if err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "Failed to list records", "error", err)
			writeJSONResponse(ctx, w, http.StatusInternalServerError, errorResponseObject{
				Error:     "Failed to list records",
				Timestamp: nowFunc().UnixMilli(),
			})
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, recordsToResponseObjects(records))
	}

	return middleware(handler)
}
