package port

import (
	"context"

	"flatfeed/internal/domain"
)

// OutputSink consumes flat records and serializes them to an external
// destination. Write blocks on destination I/O and honors ctx
// cancellation. Close flushes and releases the destination; a sink is
// closeable exactly once, and Write or Close after Close returns
// domain.ErrSinkClosed.
type OutputSink interface {
	Write(ctx context.Context, rec *domain.FlatRecord) error
	Close() error
}
