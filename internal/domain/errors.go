package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfStream is returned by a record provider when the result set
	// is exhausted. It is not a fault.
	ErrEndOfStream = errors.New("end of stream")

	// ErrSinkClosed is returned when writing to or closing an already
	// closed output sink.
	ErrSinkClosed = errors.New("output sink already closed")

	// ErrRunAborted marks a strict-mode run that stopped on a field-level
	// error or malformed payload.
	ErrRunAborted = errors.New("run aborted")

	ErrSchemaNotFound = errors.New("schema file not found")
)

// FieldError is a field-level extraction failure, scoped to one output
// column. It travels as data inside a FlatRecord, never as a thrown error.
type FieldError struct {
	Kind   FieldErrorKind `json:"kind"`
	Detail string         `json:"detail,omitempty"`
}

func (e *FieldError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// MalformedPayloadError reports that one record's stored bytes are not
// valid semi-structured data. It is distinct from both end-of-stream and
// provider-level faults so the run can decide to skip or abort.
type MalformedPayloadError struct {
	RecordID string
	Err      error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("record %s: malformed payload: %v", e.RecordID, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}
