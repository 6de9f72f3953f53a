package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Amund211/collapser/internal/domain"
)

const maxContentLength = 10_000

type StoreRecord func(ctx context.Context, content string) (domain.Record, error)

type ListRecords func(ctx context.Context) ([]domain.Record, error)

type recordRepository interface {
	StoreRecord(ctx context.Context, content string) (domain.Record, error)
	ListRecords(ctx context.Context) ([]domain.Record, error)
}

func BuildStoreRecord(repo recordRepository) StoreRecord {
	return func(ctx context.Context, content string) (domain.Record, error) {
		if strings.TrimSpace(content) == "" {
			return domain.Record{}, fmt.Errorf("%w: content is empty", domain.ErrInvalidContent)
		}
		if len(content) > maxContentLength {
			return domain.Record{}, fmt.Errorf("%w: content is longer than %d bytes", domain.ErrInvalidContent, maxContentLength)
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		record, err := repo.StoreRecord(ctx, content)
		if err != nil {
			return domain.Record{}, fmt.Errorf("failed to store record: %w", err)
		}

		return record, nil
	}
}

func BuildListRecords(repo recordRepository) ListRecords {
	return func(ctx context.Context) ([]domain.Record, error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		records, err := repo.ListRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}

		return records, nil
	}
}
