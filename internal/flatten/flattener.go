// Package flatten orchestrates one pipeline run: pull a record, extract,
// write, repeat. Single pass, no re-reading.
package flatten

import (
	"context"
	"errors"
	"fmt"
	"log"

	"flatfeed/internal/domain"
	"flatfeed/internal/extract"
	"flatfeed/internal/port"
	"flatfeed/internal/schema"
)

// Observer receives each emitted flat record, for downstream accumulation
// such as grouped statistics.
type Observer interface {
	Observe(rec *domain.FlatRecord)
}

// Flattener drives records from a provider through extraction into a sink.
// The zero value is not usable; Schema must be set.
type Flattener struct {
	Schema *schema.Schema
	Mode   domain.Mode

	// Tee, when set, sees every record written to the sink.
	Tee Observer

	// Progress, when set, is called every ProgressEvery records with the
	// live summary. The summary must not be retained past the call.
	Progress      func(s *domain.RunSummary)
	ProgressEvery int
}

// Run consumes the provider until end of stream, writing each flattened
// record to the sink. The returned RunSummary is valid on every exit path,
// including aborts, faults, and cancellation. Run does not close the sink
// or the provider; the caller owns both.
func (f *Flattener) Run(ctx context.Context, provider port.RecordProvider, sink port.OutputSink) (*domain.RunSummary, error) {
	mode := f.Mode
	if mode == "" {
		mode = domain.ModeLenient
	}
	sum := domain.NewRunSummary()

	for {
		rec, err := provider.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrEndOfStream):
				return sum, nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return sum, err
			}
			var malformed *domain.MalformedPayloadError
			if errors.As(err, &malformed) {
				if mode == domain.ModeStrict {
					sum.AbortedAt = &domain.AbortPoint{RecordID: malformed.RecordID}
					return sum, fmt.Errorf("%v: %w", err, domain.ErrRunAborted)
				}
				sum.MalformedSkipped++
				log.Printf("flattener: skipping record %s: %v", malformed.RecordID, malformed.Err)
				continue
			}
			return sum, fmt.Errorf("provider fault: %w", err)
		}

		flat := extract.Extract(rec, f.Schema)
		sum.TotalRecords++

		if flat.HasErrors() {
			if mode == domain.ModeStrict {
				// Abort before the offending record reaches the sink.
				col, ferr := firstError(&flat)
				sum.CountFieldError(col, ferr.Kind)
				sum.AbortedAt = &domain.AbortPoint{RecordID: flat.ID, Column: col}
				return sum, fmt.Errorf("record %s field %q: %s: %w", flat.ID, col, ferr, domain.ErrRunAborted)
			}
			for i := range flat.Fields {
				if fv := &flat.Fields[i]; fv.Err != nil {
					sum.CountFieldError(fv.Column, fv.Err.Kind)
				}
			}
		} else {
			sum.SuccessfulRecords++
		}

		if err := sink.Write(ctx, &flat); err != nil {
			return sum, fmt.Errorf("writing record %s: %w", flat.ID, err)
		}
		if f.Tee != nil {
			f.Tee.Observe(&flat)
		}
		if f.Progress != nil && f.ProgressEvery > 0 && sum.TotalRecords%f.ProgressEvery == 0 {
			f.Progress(sum)
		}
	}
}

func firstError(rec *domain.FlatRecord) (string, *domain.FieldError) {
	for i := range rec.Fields {
		if rec.Fields[i].Err != nil {
			return rec.Fields[i].Column, rec.Fields[i].Err
		}
	}
	return "", nil
}
