package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flatfeed/internal/domain"
	"flatfeed/internal/schema"
)

func record(t *testing.T, raw string) *domain.SourceRecord {
	t.Helper()
	v, err := domain.DecodeValue([]byte(raw))
	require.NoError(t, err)
	return &domain.SourceRecord{ID: "rec-1", Payload: v, RawSize: len(raw)}
}

func mustSchema(t *testing.T, mappings []schema.FieldMapping) *schema.Schema {
	t.Helper()
	s, err := schema.New(mappings)
	require.NoError(t, err)
	return s
}

func mapping(col, dotted string, c domain.Coercion) schema.FieldMapping {
	p, _ := schema.ParsePath(dotted)
	return schema.FieldMapping{OutputColumn: col, Path: p, Coercion: c}
}

func TestExtract_NumberRoundTrip(t *testing.T) {
	s := mustSchema(t, []schema.FieldMapping{mapping("ab", "a.b", domain.CoercionNumber)})

	flat := Extract(record(t, `{"a": {"b": 5}}`), s)

	require.Len(t, flat.Fields, 1)
	require.Nil(t, flat.Fields[0].Err)
	assert.Equal(t, "ab", flat.Fields[0].Column)
	assert.Equal(t, float64(5), flat.Fields[0].Value)
}

func TestExtract_NumberAcceptsNumericStrings(t *testing.T) {
	// "5.0", 5.0 and 5 are all valid numbers; source data is untyped.
	s := mustSchema(t, []schema.FieldMapping{
		mapping("s", "s", domain.CoercionNumber),
		mapping("f", "f", domain.CoercionNumber),
		mapping("i", "i", domain.CoercionNumber),
	})

	flat := Extract(record(t, `{"s": "5.0", "f": 5.0, "i": 5}`), s)

	for _, fv := range flat.Fields {
		require.Nil(t, fv.Err, fv.Column)
		assert.Equal(t, float64(5), fv.Value, fv.Column)
	}
}

func TestExtract_NumberRejectsNonNumericString(t *testing.T) {
	s := mustSchema(t, []schema.FieldMapping{mapping("n", "n", domain.CoercionNumber)})

	flat := Extract(record(t, `{"n": "not-a-number"}`), s)

	require.NotNil(t, flat.Fields[0].Err)
	assert.Equal(t, domain.FieldErrorTypeMismatch, flat.Fields[0].Err.Kind)
}

func TestExtract_BooleanStrict(t *testing.T) {
	s := mustSchema(t, []schema.FieldMapping{
		mapping("ok", "ok", domain.CoercionBoolean),
		mapping("bad", "bad", domain.CoercionBoolean),
	})

	flat := Extract(record(t, `{"ok": true, "bad": "true"}`), s)

	require.Nil(t, flat.Fields[0].Err)
	assert.Equal(t, true, flat.Fields[0].Value)
	require.NotNil(t, flat.Fields[1].Err)
	assert.Equal(t, domain.FieldErrorTypeMismatch, flat.Fields[1].Err.Kind)
}

func TestExtract_DateSingleFixedFormat(t *testing.T) {
	s := mustSchema(t, []schema.FieldMapping{
		mapping("good", "good", domain.CoercionDate),
		mapping("ambiguous", "ambiguous", domain.CoercionDate),
		mapping("notdate", "notdate", domain.CoercionDate),
	})

	flat := Extract(record(t, `{"good": "2025-01-15", "ambiguous": "01/02/2025", "notdate": 20250115}`), s)

	require.Nil(t, flat.Fields[0].Err)
	assert.Equal(t, "2025-01-15", flat.Fields[0].Value)
	for _, fv := range flat.Fields[1:] {
		require.NotNil(t, fv.Err, fv.Column)
		assert.Equal(t, domain.FieldErrorTypeMismatch, fv.Err.Kind, fv.Column)
	}
}

func TestExtract_StringCoercion(t *testing.T) {
	s := mustSchema(t, []schema.FieldMapping{
		mapping("s", "s", domain.CoercionString),
		mapping("n", "n", domain.CoercionString),
		mapping("b", "b", domain.CoercionString),
		mapping("obj", "obj", domain.CoercionString),
	})

	flat := Extract(record(t, `{"s": "x", "n": 2.5, "b": false, "obj": {}}`), s)

	assert.Equal(t, "x", flat.Fields[0].Value)
	assert.Equal(t, "2.5", flat.Fields[1].Value)
	assert.Equal(t, "false", flat.Fields[2].Value)
	require.NotNil(t, flat.Fields[3].Err)
	assert.Equal(t, domain.FieldErrorTypeMismatch, flat.Fields[3].Err.Kind)
}

func TestExtract_RawJSON(t *testing.T) {
	s := mustSchema(t, []schema.FieldMapping{mapping("items", "items", domain.CoercionRawJSON)})

	flat := Extract(record(t, `{"items": [1, "two", null]}`), s)

	require.Nil(t, flat.Fields[0].Err)
	assert.JSONEq(t, `[1, "two", null]`, flat.Fields[0].Value.(string))
}

func TestExtract_DefaultAppliesToMissingAndNull(t *testing.T) {
	m := mapping("qty", "qty", domain.CoercionNumber)
	m.Default = "0"
	m.HasDefault = true
	s := mustSchema(t, []schema.FieldMapping{m})

	for _, raw := range []string{`{}`, `{"qty": null}`} {
		flat := Extract(record(t, raw), s)
		require.Nil(t, flat.Fields[0].Err, raw)
		assert.Equal(t, float64(0), flat.Fields[0].Value, raw)
	}
}

func TestExtract_DefaultDoesNotMaskTypeMismatch(t *testing.T) {
	m := mapping("qty", "qty", domain.CoercionNumber)
	m.Default = "0"
	m.HasDefault = true
	s := mustSchema(t, []schema.FieldMapping{m})

	flat := Extract(record(t, `{"qty": "oops"}`), s)

	require.NotNil(t, flat.Fields[0].Err)
	assert.Equal(t, domain.FieldErrorTypeMismatch, flat.Fields[0].Err.Kind)
}

func TestExtract_FieldOrderMatchesSchema(t *testing.T) {
	s := mustSchema(t, []schema.FieldMapping{
		mapping("z", "z", domain.CoercionString),
		mapping("a", "a", domain.CoercionString),
		mapping("m", "m", domain.CoercionString),
	})

	flat := Extract(record(t, `{"a": "1", "m": "2", "z": "3"}`), s)

	cols := []string{flat.Fields[0].Column, flat.Fields[1].Column, flat.Fields[2].Column}
	assert.Equal(t, []string{"z", "a", "m"}, cols)
}

func TestExtract_MixedSuccessAndError(t *testing.T) {
	s := mustSchema(t, []schema.FieldMapping{
		mapping("name", "name", domain.CoercionString),
		mapping("missing", "nope", domain.CoercionString),
	})

	flat := Extract(record(t, `{"name": "ok"}`), s)

	assert.Equal(t, "ok", flat.Fields[0].Value)
	require.NotNil(t, flat.Fields[1].Err)
	assert.Equal(t, domain.FieldErrorMissingPath, flat.Fields[1].Err.Kind)
	assert.True(t, flat.HasErrors())
}
