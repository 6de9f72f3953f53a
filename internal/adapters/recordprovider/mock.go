package recordprovider

import (
	"context"
	"net/http"
	"time"

	"github.com/Amund211/collapser/internal/domain"
)

type mockedRecordProvider struct {
	records []domain.Record
}

func (m *mockedRecordProvider) FindRecords(ctx context.Context, key string) ([]domain.Record, error) {
	return filterRecords(m.records, key), nil
}

func (m *mockedRecordProvider) Ping(ctx context.Context) (int, error) {
	return http.StatusOK, nil
}

// NewMockedRecordProvider serves a few static records, for local development
func NewMockedRecordProvider() RecordProvider {
	createdAt := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &mockedRecordProvider{
		records: []domain.Record{
			{ID: 1, Content: "hello world", CreatedAt: createdAt},
			{ID: 2, Content: "goodbye world", CreatedAt: createdAt},
			{ID: 3, Content: "thundering herd", CreatedAt: createdAt},
		},
	}
}
