package domain

import "fmt"

// Coercion names the target type a source value is converted to during
// flattening.
type Coercion string

const (
	CoercionString  Coercion = "string"
	CoercionNumber  Coercion = "number"
	CoercionBoolean Coercion = "boolean"
	CoercionDate    Coercion = "date"
	CoercionRawJSON Coercion = "raw_json"
)

// ParseCoercion converts a configuration string into a Coercion.
func ParseCoercion(s string) (Coercion, error) {
	switch Coercion(s) {
	case CoercionString, CoercionNumber, CoercionBoolean, CoercionDate, CoercionRawJSON:
		return Coercion(s), nil
	}
	return "", fmt.Errorf("unknown coercion %q", s)
}

// Mode controls how a run reacts to field-level errors.
type Mode string

const (
	// ModeStrict aborts the run on the first field-level error not covered
	// by a default.
	ModeStrict Mode = "strict"
	// ModeLenient emits error markers, counts every suppressed error, and
	// keeps going.
	ModeLenient Mode = "lenient"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, ModeLenient:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// FieldErrorKind classifies a field-level extraction failure.
type FieldErrorKind string

const (
	// FieldErrorMissingPath means a path segment named a key or index that
	// does not exist.
	FieldErrorMissingPath FieldErrorKind = "missing_path"
	// FieldErrorNullEncountered means a null was found before the path was
	// exhausted, or the terminal value itself was null.
	FieldErrorNullEncountered FieldErrorKind = "null_encountered"
	// FieldErrorTypeMismatch means the value at the path (or along it) had
	// the wrong kind for the requested navigation or coercion.
	FieldErrorTypeMismatch FieldErrorKind = "type_mismatch"
)
