// Package navigate resolves a segmented path into a nested semi-structured
// value, short-circuiting on missing or null segments.
package navigate

import (
	"encoding/json"
	"fmt"

	"flatfeed/internal/domain"
	"flatfeed/internal/schema"
)

// Outcome is the result of walking a path: a value, or a field-level error
// tag. Exactly one of the two is meaningful.
type Outcome struct {
	Value any
	Err   *domain.FieldError
}

// Navigate walks the path left to right over a decoded JSON value. It is a
// pure function: no mutation, no I/O, deterministic. The walk is an
// explicit loop over the segment list, so call-stack depth does not grow
// with data depth.
//
// A string segment requires the current value to be a mapping; an index
// segment requires a sequence. A missing key or out-of-range index yields
// MissingPath. A null before the path is exhausted yields NullEncountered,
// which is distinct from MissingPath (present-but-null vs absent) because
// callers may default the two differently. Navigating into a value of the
// wrong container kind yields TypeMismatch.
func Navigate(v any, path []schema.Segment) Outcome {
	cur := v
	for i, seg := range path {
		if cur == nil {
			return Outcome{Err: &domain.FieldError{
				Kind:   domain.FieldErrorNullEncountered,
				Detail: fmt.Sprintf("null at %q", schema.PathString(path[:i+1])),
			}}
		}
		if seg.IsIndex {
			seq, ok := cur.([]any)
			if !ok {
				return Outcome{Err: mismatch(path, i, "sequence", cur)}
			}
			if seg.Index < 0 || seg.Index >= len(seq) {
				return Outcome{Err: &domain.FieldError{
					Kind:   domain.FieldErrorMissingPath,
					Detail: fmt.Sprintf("index %d out of range at %q (length %d)", seg.Index, schema.PathString(path[:i+1]), len(seq)),
				}}
			}
			cur = seq[seg.Index]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return Outcome{Err: mismatch(path, i, "mapping", cur)}
		}
		next, ok := m[seg.Key]
		if !ok {
			return Outcome{Err: &domain.FieldError{
				Kind:   domain.FieldErrorMissingPath,
				Detail: fmt.Sprintf("no key %q at %q", seg.Key, schema.PathString(path[:i+1])),
			}}
		}
		cur = next
	}
	return Outcome{Value: cur}
}

func mismatch(path []schema.Segment, i int, want string, got any) *domain.FieldError {
	return &domain.FieldError{
		Kind:   domain.FieldErrorTypeMismatch,
		Detail: fmt.Sprintf("expected %s at %q, got %s", want, schema.PathString(path[:i+1]), KindOf(got)),
	}
}

// KindOf names the semi-structured kind of a decoded value, for error
// messages.
func KindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "sequence"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
