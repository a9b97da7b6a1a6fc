package sink

import (
	"context"

	"flatfeed/internal/domain"
)

// Discard accepts records and drops them. Used for summary-only runs where
// the caller wants RunSummary and aggregation but no output file. It still
// enforces the close-once contract.
type Discard struct {
	closed bool
}

// NewDiscard creates a discarding sink.
func NewDiscard() *Discard {
	return &Discard{}
}

func (d *Discard) Write(ctx context.Context, _ *domain.FlatRecord) error {
	if d.closed {
		return domain.ErrSinkClosed
	}
	return ctx.Err()
}

func (d *Discard) Close() error {
	if d.closed {
		return domain.ErrSinkClosed
	}
	d.closed = true
	return nil
}
