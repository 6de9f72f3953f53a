package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amund211/collapser/internal/domain"
	"github.com/stretchr/testify/require"
)

var noopSentryMiddleware = func(next http.HandlerFunc) http.HandlerFunc {
	return next
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixedNowFunc() time.Time {
	return time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
}

func TestSearchHandler(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	makeSearch := func(t *testing.T, records []domain.Record, err error) func(ctx context.Context, key string) ([]domain.Record, error) {
		return func(ctx context.Context, key string) ([]domain.Record, error) {
			require.Equal(t, "hello", key)
			return records, err
		}
	}

	doRequest := func(t *testing.T, handler http.HandlerFunc) *httptest.ResponseRecorder {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/v1/search?key=hello", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		handler := MakeSearchHandler(
			makeSearch(t, []domain.Record{{ID: 1, Content: "hello world", CreatedAt: createdAt}}, nil),
			testLogger,
			noopSentryMiddleware,
			fixedNowFunc,
		)

		w := doRequest(t, handler)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		require.JSONEq(t, `{
			"success": true,
			"searchedFor": "hello",
			"found": true,
			"records": [{"id": 1, "content": "hello world", "createdAt": "2025-01-01T00:00:00Z"}],
			"responseTimeMs": 0,
			"timestamp": 1741953600000
		}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		handler := MakeSearchHandler(makeSearch(t, []domain.Record{}, nil), testLogger, noopSentryMiddleware, fixedNowFunc)

		w := doRequest(t, handler)

		require.Equal(t, http.StatusOK, w.Code)

		var response searchResponseObject
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.True(t, response.Success)
		require.False(t, response.Found)
		require.NotNil(t, response.Records)
		require.Empty(t, response.Records)
	})

	errorCases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{
			name:       "invalid key",
			err:        fmt.Errorf("%w: key is empty", domain.ErrInvalidKey),
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "upstream failure",
			err:        fmt.Errorf("%w: producer returned status code 500", domain.ErrUpstream),
			statusCode: http.StatusServiceUnavailable,
		},
		{
			name:       "upstream timeout",
			err:        fmt.Errorf("%w: no response within 5s", domain.ErrUpstreamTimeout),
			statusCode: http.StatusGatewayTimeout,
		},
		{
			name:       "follower timeout",
			err:        fmt.Errorf("%w: waited 2s", domain.ErrFollowerTimeout),
			statusCode: http.StatusGatewayTimeout,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("something else"),
			statusCode: http.StatusInternalServerError,
		},
	}

	for _, c := range errorCases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			handler := MakeSearchHandler(makeSearch(t, nil, c.err), testLogger, noopSentryMiddleware, fixedNowFunc)

			w := doRequest(t, handler)

			require.Equal(t, c.statusCode, w.Code)

			var response errorResponseObject
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			require.False(t, response.Success)
			require.Equal(t, "hello", response.SearchedFor)
			require.NotEmpty(t, response.Error)
		})
	}
}
