package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"flatfeed/internal/domain"
	"flatfeed/internal/schema"
)

const xlsxSheet = "Sheet1"

// XLSX writes flat records to a spreadsheet via excelize's stream writer,
// which keeps memory bounded regardless of row count. The workbook is
// written to the destination on Close.
type XLSX struct {
	out         io.Writer
	file        *excelize.File
	sw          *excelize.StreamWriter
	placeholder string
	row         int
	closed      bool
}

// NewXLSX creates an XLSX sink over w with a header row.
func NewXLSX(w io.Writer, s *schema.Schema, placeholder string) (*XLSX, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx sink: %w", err)
	}

	header := make([]interface{}, len(s.Columns()))
	for i, col := range s.Columns() {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx sink: writing header: %w", err)
	}

	return &XLSX{out: w, file: f, sw: sw, placeholder: placeholder, row: 2}, nil
}

// Write appends one spreadsheet row. Error-tagged fields render as the
// placeholder token.
func (x *XLSX) Write(ctx context.Context, rec *domain.FlatRecord) error {
	if x.closed {
		return domain.ErrSinkClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cells := make([]interface{}, len(rec.Fields))
	for i := range rec.Fields {
		fv := &rec.Fields[i]
		if fv.Err != nil {
			cells[i] = x.placeholder
			continue
		}
		switch v := fv.Value.(type) {
		case nil:
			cells[i] = ""
		case float64, bool, string:
			cells[i] = v
		default:
			cells[i] = FormatValue(v)
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return fmt.Errorf("xlsx sink: %w", err)
	}
	if err := x.sw.SetRow(cell, cells); err != nil {
		return fmt.Errorf("xlsx sink: %w", err)
	}
	x.row++
	return nil
}

// Close flushes the stream writer and writes the workbook out.
func (x *XLSX) Close() error {
	if x.closed {
		return domain.ErrSinkClosed
	}
	x.closed = true
	defer func() { _ = x.file.Close() }()
	if err := x.sw.Flush(); err != nil {
		return fmt.Errorf("xlsx sink: flush: %w", err)
	}
	if err := x.file.Write(x.out); err != nil {
		return fmt.Errorf("xlsx sink: writing workbook: %w", err)
	}
	return nil
}
