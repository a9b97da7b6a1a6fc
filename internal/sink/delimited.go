// Package sink serializes flat records to external destinations in fixed
// formats.
package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"flatfeed/internal/domain"
	"flatfeed/internal/schema"
)

// BOM is the UTF-8 byte order mark, prepended for Excel compatibility on
// Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// DelimitedOptions configures a Delimited sink.
type DelimitedOptions struct {
	// Delimiter separates values on a line. Zero means comma.
	Delimiter rune
	// Placeholder is rendered in place of error-tagged fields.
	Placeholder string
	// Header writes the schema's column names as the first line.
	Header bool
	// WriteBOM prepends the UTF-8 BOM.
	WriteBOM bool
}

// Delimited writes one delimiter-separated line per flat record, values in
// schema-declared column order.
type Delimited struct {
	csv         *csv.Writer
	placeholder string
	closed      bool
}

// NewDelimited creates a Delimited sink over w. The header line and BOM,
// when enabled, are written immediately.
func NewDelimited(w io.Writer, s *schema.Schema, opts DelimitedOptions) (*Delimited, error) {
	if opts.WriteBOM {
		if _, err := w.Write(BOM); err != nil {
			return nil, fmt.Errorf("delimited sink: writing BOM: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	d := &Delimited{csv: cw, placeholder: opts.Placeholder}
	if opts.Header {
		if err := cw.Write(s.Columns()); err != nil {
			return nil, fmt.Errorf("delimited sink: writing header: %w", err)
		}
	}
	return d, nil
}

// Write serializes one record as a single line. Error-tagged fields render
// as the placeholder token.
func (d *Delimited) Write(ctx context.Context, rec *domain.FlatRecord) error {
	if d.closed {
		return domain.ErrSinkClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	row := make([]string, len(rec.Fields))
	for i := range rec.Fields {
		fv := &rec.Fields[i]
		if fv.Err != nil {
			row[i] = d.placeholder
			continue
		}
		row[i] = FormatValue(fv.Value)
	}
	if err := d.csv.Write(row); err != nil {
		return fmt.Errorf("delimited sink: %w", err)
	}
	return nil
}

// Close flushes buffered lines. A second Close, like a Write after Close,
// returns domain.ErrSinkClosed.
func (d *Delimited) Close() error {
	if d.closed {
		return domain.ErrSinkClosed
	}
	d.closed = true
	d.csv.Flush()
	if err := d.csv.Error(); err != nil {
		return fmt.Errorf("delimited sink: flush: %w", err)
	}
	return nil
}

// FormatValue renders a coerced value as output text. Nil renders empty.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
