package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"flatfeed/internal/domain"
	"flatfeed/internal/port"
)

type recordRepo struct {
	db *sqlx.DB
}

// NewRecordRepo creates a PostgreSQL-backed RecordStore.
func NewRecordRepo(db *sqlx.DB) port.RecordStore {
	return &recordRepo{db: db}
}

// Stream opens a forward-only cursor over the records of one source. Rows
// are fetched lazily; the full result set is never materialized.
func (r *recordRepo) Stream(ctx context.Context, source string) (port.RecordProvider, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT id, payload, octet_length(payload::text) AS raw_size
		 FROM records WHERE source = $1
		 ORDER BY created_at, id`, source)
	if err != nil {
		return nil, fmt.Errorf("recordRepo.Stream: %w", err)
	}
	return &rowsProvider{rows: rows}, nil
}

// rowsProvider adapts sqlx.Rows to the RecordProvider contract. It decodes
// each payload as it is pulled, so a single malformed record surfaces as a
// MalformedPayloadError without poisoning the rest of the stream.
type rowsProvider struct {
	rows *sqlx.Rows
}

func (p *rowsProvider) Next(ctx context.Context) (*domain.SourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, fmt.Errorf("records stream: %w", err)
		}
		return nil, domain.ErrEndOfStream
	}

	var (
		id      uuid.UUID
		payload []byte
		rawSize int
	)
	if err := p.rows.Scan(&id, &payload, &rawSize); err != nil {
		return nil, fmt.Errorf("records stream scan: %w", err)
	}

	value, err := domain.DecodeValue(payload)
	if err != nil {
		return nil, &domain.MalformedPayloadError{RecordID: id.String(), Err: err}
	}

	return &domain.SourceRecord{
		ID:      id.String(),
		Payload: value,
		RawSize: rawSize,
	}, nil
}

func (p *rowsProvider) Close() error {
	return p.rows.Close()
}
