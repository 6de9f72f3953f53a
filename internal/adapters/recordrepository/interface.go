package recordrepository

import (
	"context"

	"github.com/Amund211/collapser/internal/domain"
)

type RecordRepository interface {
	StoreRecord(ctx context.Context, content string) (domain.Record, error)
	ListRecords(ctx context.Context) ([]domain.Record, error)
}
