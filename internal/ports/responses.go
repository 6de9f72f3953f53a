package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Amund211/collapser/internal/domain"
	"github.com/Amund211/collapser/internal/logging"
	"github.com/Amund211/collapser/internal/reporting"
)

type recordResponseObject struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func recordsToResponseObjects(records []domain.Record) []recordResponseObject {
	response := make([]recordResponseObject, 0, len(records))
	for _, record := range records {
		response = append(response, recordResponseObject{
			ID:        record.ID,
			Content:   record.Content,
			CreatedAt: record.CreatedAt,
		})
	}
	return response
}

type errorResponseObject struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Message     string `json:"message,omitempty"`
	SearchedFor string `json:"searchedFor,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	responseData, err := json.Marshal(data)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to marshal response", "error", err)
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))

		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(responseData); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to write response", "error", err)
	}
}
