// Package stream decouples producer latency from consumer pace with a
// bounded prefetch window. The window is the only concurrency boundary in
// a run; memory use is O(window), independent of result-set size.
package stream

import (
	"context"
	"errors"
	"sync"

	"flatfeed/internal/domain"
	"flatfeed/internal/port"
)

type item struct {
	rec *domain.SourceRecord
	err error
}

// Prefetcher wraps a RecordProvider with a single producer goroutine and a
// bounded channel. It implements port.RecordProvider itself, so it can be
// dropped in front of any provider.
type Prefetcher struct {
	provider port.RecordProvider
	ch       chan item
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool

	closeOnce sync.Once
	closeErr  error
}

// NewPrefetcher creates a Prefetcher with the given window size. A window
// below 1 is clamped to 1.
func NewPrefetcher(p port.RecordProvider, window int) *Prefetcher {
	if window < 1 {
		window = 1
	}
	return &Prefetcher{
		provider: p,
		ch:       make(chan item, window),
		done:     make(chan struct{}),
	}
}

// Start launches the producer goroutine. It must be called exactly once
// before Next.
func (p *Prefetcher) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.started = true
	go p.fill(ctx)
}

func (p *Prefetcher) fill(ctx context.Context) {
	defer close(p.done)
	defer close(p.ch)
	for {
		rec, err := p.provider.Next(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrEndOfStream) {
				return
			}
			select {
			case p.ch <- item{err: err}:
			case <-ctx.Done():
				return
			}
			// A malformed record does not end the stream; the consumer
			// decides whether to skip or abort. Anything else is a
			// provider fault and the stream stops.
			var malformed *domain.MalformedPayloadError
			if errors.As(err, &malformed) {
				continue
			}
			return
		}
		select {
		case p.ch <- item{rec: rec}:
		case <-ctx.Done():
			return
		}
	}
}

// Next returns the next prefetched record. It blocks until the producer
// delivers one and returns ctx.Err() promptly once the context is
// canceled. After the window drains past the last record it returns
// domain.ErrEndOfStream.
func (p *Prefetcher) Next(ctx context.Context) (*domain.SourceRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case it, ok := <-p.ch:
		if !ok {
			return nil, domain.ErrEndOfStream
		}
		return it.rec, it.err
	}
}

// Close stops the producer, waits for it to exit, and closes the inner
// provider exactly once.
func (p *Prefetcher) Close() error {
	p.closeOnce.Do(func() {
		if p.started {
			p.cancel()
			<-p.done
		}
		p.closeErr = p.provider.Close()
	})
	return p.closeErr
}
