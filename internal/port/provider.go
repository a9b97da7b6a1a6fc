package port

import (
	"context"

	"flatfeed/internal/domain"
)

// RecordProvider is a forward-only cursor over an external store. Next
// returns domain.ErrEndOfStream once the result set is exhausted, a
// *domain.MalformedPayloadError when a single record's bytes cannot be
// decoded, and any other error for provider-level faults. Next blocks
// until a record is available and returns promptly with ctx.Err() once
// the context is canceled.
type RecordProvider interface {
	Next(ctx context.Context) (*domain.SourceRecord, error)
	Close() error
}

// RecordStore opens record streams from the backing store.
type RecordStore interface {
	Stream(ctx context.Context, source string) (RecordProvider, error)
}
