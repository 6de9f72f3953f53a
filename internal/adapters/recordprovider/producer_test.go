package recordprovider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amund211/collapser/internal/domain"
	"github.com/stretchr/testify/require"
)

type mockedHttpClient struct {
	err error
}

func (m *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	return nil, m.err
}

const producerBody = `[
	{"id": 1, "content": "Hello World", "createdAt": "2025-01-01T00:00:00Z"},
	{"id": 2, "content": "something else", "createdAt": "2025-01-01T00:00:01Z"},
	{"id": 3, "content": "hello again", "createdAt": "2025-01-01T00:00:02Z"}
]`

func newProducerServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/records":
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "collapser/1.0", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		case "/health":
			w.WriteHeader(status)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProducerRecordProvider(t *testing.T) {
	t.Parallel()

	t.Run("filters records case-insensitively in upstream order", func(t *testing.T) {
		t.Parallel()

		server := newProducerServer(t, http.StatusOK, producerBody)
		provider := NewProducerRecordProvider(server.Client(), server.URL+"/")

		records, err := provider.FindRecords(t.Context(), "HELLO")
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.Equal(t, int64(1), records[0].ID)
		require.Equal(t, "Hello World", records[0].Content)
		require.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), records[0].CreatedAt)
		require.Equal(t, int64(3), records[1].ID)
	})

	t.Run("no matches is an empty result", func(t *testing.T) {
		t.Parallel()

		server := newProducerServer(t, http.StatusOK, producerBody)
		provider := NewProducerRecordProvider(server.Client(), server.URL)

		records, err := provider.FindRecords(t.Context(), "missing")
		require.NoError(t, err)
		require.NotNil(t, records)
		require.Empty(t, records)
	})

	t.Run("non-200 is an upstream error", func(t *testing.T) {
		t.Parallel()

		server := newProducerServer(t, http.StatusInternalServerError, `{"error": "boom"}`)
		provider := NewProducerRecordProvider(server.Client(), server.URL)

		_, err := provider.FindRecords(t.Context(), "hello")
		require.ErrorIs(t, err, domain.ErrUpstream)
		require.ErrorContains(t, err, "500")
	})

	t.Run("invalid json is an upstream error", func(t *testing.T) {
		t.Parallel()

		server := newProducerServer(t, http.StatusOK, `not json`)
		provider := NewProducerRecordProvider(server.Client(), server.URL)

		_, err := provider.FindRecords(t.Context(), "hello")
		require.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("transport failure is an upstream error", func(t *testing.T) {
		t.Parallel()

		provider := NewProducerRecordProvider(&mockedHttpClient{err: errors.New("connection refused")}, "http://producer")

		_, err := provider.FindRecords(t.Context(), "hello")
		require.ErrorIs(t, err, domain.ErrUpstream)
		require.NotErrorIs(t, err, domain.ErrUpstreamTimeout)
	})

	t.Run("deadline is an upstream timeout", func(t *testing.T) {
		t.Parallel()

		provider := NewProducerRecordProvider(&mockedHttpClient{err: context.DeadlineExceeded}, "http://producer")

		_, err := provider.FindRecords(t.Context(), "hello")
		require.ErrorIs(t, err, domain.ErrUpstreamTimeout)
		require.NotErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("slow producer hits the context deadline", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(server.Close)
		t.Cleanup(func() { close(release) })

		provider := NewProducerRecordProvider(server.Client(), server.URL)

		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()

		_, err := provider.FindRecords(ctx, "hello")
		require.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	})
}

func TestProducerRecordProviderPing(t *testing.T) {
	t.Parallel()

	t.Run("reports the status code", func(t *testing.T) {
		t.Parallel()

		server := newProducerServer(t, http.StatusOK, "")
		provider := NewProducerRecordProvider(server.Client(), server.URL)

		status, err := provider.Ping(t.Context())
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()

		provider := NewProducerRecordProvider(&mockedHttpClient{err: errors.New("connection refused")}, "http://producer")

		_, err := provider.Ping(t.Context())
		require.Error(t, err)
	})
}

func TestMockedRecordProvider(t *testing.T) {
	t.Parallel()

	provider := NewMockedRecordProvider()

	records, err := provider.FindRecords(t.Context(), "world")
	require.NoError(t, err)
	require.Len(t, records, 2)

	status, err := provider.Ping(t.Context())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
}
