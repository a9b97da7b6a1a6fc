package domain

// SourceRecord is one semi-structured record pulled from the store. The
// payload is a decoded JSON value (nil, bool, json.Number, string, []any,
// map[string]any) and is treated as immutable. A record is owned by the
// pipeline stage currently processing it and discarded once flattened.
type SourceRecord struct {
	ID      string
	Payload any
	RawSize int
}

// FieldValue is one output column's extraction outcome: either a coerced
// value or a field-level error, never both.
type FieldValue struct {
	Column string      `json:"column"`
	Value  any         `json:"value,omitempty"`
	Err    *FieldError `json:"error,omitempty"`
}

// FlatRecord is the flattened form of one SourceRecord. Fields are in
// schema order, exactly one per mapping. A FlatRecord is consumed by a
// single sink write and then discarded.
type FlatRecord struct {
	ID     string       `json:"id"`
	Fields []FieldValue `json:"fields"`
}

// HasErrors reports whether any field carries an error tag.
func (r *FlatRecord) HasErrors() bool {
	for i := range r.Fields {
		if r.Fields[i].Err != nil {
			return true
		}
	}
	return false
}

// AbortPoint identifies where a strict-mode run stopped.
type AbortPoint struct {
	RecordID string `json:"record_id"`
	Column   string `json:"column,omitempty"`
}

// RunSummary is the aggregate outcome of one flattening run. It is owned
// by the Flattener while the run is active and published to the caller on
// return.
type RunSummary struct {
	TotalRecords      int                    `json:"total_records"`
	SuccessfulRecords int                    `json:"successful_records"`
	MalformedSkipped  int                    `json:"malformed_skipped"`
	ColumnErrors      map[string]int         `json:"column_errors"`
	KindErrors        map[FieldErrorKind]int `json:"kind_errors"`
	AbortedAt         *AbortPoint            `json:"aborted_at,omitempty"`
}

// NewRunSummary creates an empty summary with initialized counters.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		ColumnErrors: make(map[string]int),
		KindErrors:   make(map[FieldErrorKind]int),
	}
}

// CountFieldError tallies one suppressed or fatal field-level error.
func (s *RunSummary) CountFieldError(column string, kind FieldErrorKind) {
	s.ColumnErrors[column]++
	s.KindErrors[kind]++
}

// ErroredRecords is the number of processed records that carried at least
// one field-level error. In lenient mode,
// SuccessfulRecords + ErroredRecords == TotalRecords.
func (s *RunSummary) ErroredRecords() int {
	return s.TotalRecords - s.SuccessfulRecords
}
