// Package extract applies a schema's field mappings to one source record,
// producing a flat record. All failure is encoded as field-level outcomes;
// nothing escapes as a panic or error.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"flatfeed/internal/domain"
	"flatfeed/internal/navigate"
	"flatfeed/internal/schema"
)

// DateLayout is the single accepted date format. Anything else is a
// TypeMismatch, never a guess.
const DateLayout = "2006-01-02"

// Extract flattens one record against the schema. The output has exactly
// one FieldValue per mapping, in schema order.
func Extract(rec *domain.SourceRecord, s *schema.Schema) domain.FlatRecord {
	fields := make([]domain.FieldValue, 0, s.Len())
	for _, m := range s.Mappings() {
		fields = append(fields, extractField(rec.Payload, m))
	}
	return domain.FlatRecord{ID: rec.ID, Fields: fields}
}

func extractField(payload any, m schema.FieldMapping) domain.FieldValue {
	out := navigate.Navigate(payload, m.Path)

	ferr := out.Err
	if ferr == nil && out.Value == nil {
		// A terminal null is treated like an intermediate one so that
		// defaults apply uniformly.
		ferr = &domain.FieldError{
			Kind:   domain.FieldErrorNullEncountered,
			Detail: fmt.Sprintf("null value at %q", schema.PathString(m.Path)),
		}
	}

	if ferr != nil {
		defaultable := ferr.Kind == domain.FieldErrorMissingPath || ferr.Kind == domain.FieldErrorNullEncountered
		if defaultable && m.HasDefault {
			v, cerr := Coerce(m.Default, m.Coercion)
			if cerr != nil {
				return domain.FieldValue{Column: m.OutputColumn, Err: cerr}
			}
			return domain.FieldValue{Column: m.OutputColumn, Value: v}
		}
		return domain.FieldValue{Column: m.OutputColumn, Err: ferr}
	}

	v, cerr := Coerce(out.Value, m.Coercion)
	if cerr != nil {
		return domain.FieldValue{Column: m.OutputColumn, Err: cerr}
	}
	return domain.FieldValue{Column: m.OutputColumn, Value: v}
}

// Coerce converts a navigated value to the mapping's declared type.
// Numbers come back as float64, dates as canonical DateLayout strings,
// raw JSON as a compact string.
func Coerce(v any, c domain.Coercion) (any, *domain.FieldError) {
	switch c {
	case domain.CoercionString:
		return coerceString(v)
	case domain.CoercionNumber:
		return coerceNumber(v)
	case domain.CoercionBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, coerceMismatch("boolean", v)
	case domain.CoercionDate:
		s, ok := v.(string)
		if !ok {
			return nil, coerceMismatch("date string", v)
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, &domain.FieldError{
				Kind:   domain.FieldErrorTypeMismatch,
				Detail: fmt.Sprintf("%q is not a %s date", s, DateLayout),
			}
		}
		return t.Format(DateLayout), nil
	case domain.CoercionRawJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, &domain.FieldError{
				Kind:   domain.FieldErrorTypeMismatch,
				Detail: fmt.Sprintf("value is not marshalable: %v", err),
			}
		}
		return string(b), nil
	}
	return nil, &domain.FieldError{
		Kind:   domain.FieldErrorTypeMismatch,
		Detail: fmt.Sprintf("unknown coercion %q", c),
	}
}

func coerceString(v any) (any, *domain.FieldError) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return nil, coerceMismatch("scalar", v)
}

// coerceNumber accepts JSON numbers and numeric strings: "5", "5.0" and 5
// are all valid numbers. Non-numeric strings are a TypeMismatch, never a
// silent zero.
func coerceNumber(v any) (any, *domain.FieldError) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, &domain.FieldError{
				Kind:   domain.FieldErrorTypeMismatch,
				Detail: fmt.Sprintf("%q is not a representable number", t.String()),
			}
		}
		return f, nil
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, &domain.FieldError{
				Kind:   domain.FieldErrorTypeMismatch,
				Detail: fmt.Sprintf("%q is not numeric", t),
			}
		}
		return f, nil
	}
	return nil, coerceMismatch("number", v)
}

func coerceMismatch(want string, got any) *domain.FieldError {
	return &domain.FieldError{
		Kind:   domain.FieldErrorTypeMismatch,
		Detail: fmt.Sprintf("expected %s, got %s", want, navigate.KindOf(got)),
	}
}
