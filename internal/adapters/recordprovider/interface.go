package recordprovider

import (
	"context"
	"net/http"

	"github.com/Amund211/collapser/internal/domain"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type RecordProvider interface {
	// FindRecords returns the upstream records whose content contains key
	FindRecords(ctx context.Context, key string) ([]domain.Record, error)
	// Ping checks that the upstream is reachable and returns its status code
	Ping(ctx context.Context) (int, error)
}
