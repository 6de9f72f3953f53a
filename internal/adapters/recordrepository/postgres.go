package recordrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/collapser/internal/domain"
	"github.com/Amund211/collapser/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("collapser/recordrepository/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		tracer: tracer,
	}
}

type dbRecord struct {
	ID        int64     `db:"id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func (r dbRecord) toDomain() domain.Record {
	return domain.Record{
		ID:        r.ID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

func (p *Postgres) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET LOCAL search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		txx.Rollback()
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"schema": p.schema,
		})
		return nil, err
	}

	return txx, nil
}

func (p *Postgres) StoreRecord(ctx context.Context, content string) (domain.Record, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.StoreRecord")
	defer span.End()

	txx, err := p.beginTx(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	defer txx.Rollback()

	var stored dbRecord
	err = txx.GetContext(
		ctx,
		&stored,
		`INSERT INTO records (content) VALUES ($1) RETURNING id, content, created_at`,
		content,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert record: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"contentLength": fmt.Sprint(len(content)),
		})
		return domain.Record{}, err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return domain.Record{}, err
	}

	span.SetAttributes(attribute.Int64("record.id", stored.ID))

	return stored.toDomain(), nil
}

func (p *Postgres) ListRecords(ctx context.Context) ([]domain.Record, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListRecords")
	defer span.End()

	txx, err := p.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer txx.Rollback()

	var stored []dbRecord
	err = txx.SelectContext(ctx, &stored, "SELECT id, content, created_at FROM records ORDER BY id ASC")
	if err != nil {
		err := fmt.Errorf("failed to select records: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	records := make([]domain.Record, 0, len(stored))
	for _, record := range stored {
		records = append(records, record.toDomain())
	}

	span.SetAttributes(attribute.Int("record.count", len(records)))

	return records, nil
}
