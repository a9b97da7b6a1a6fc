package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flatfeed/internal/domain"
)

func TestParsePath(t *testing.T) {
	segs, err := ParsePath("items.0.sku")
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, Key("items"), segs[0])
	assert.Equal(t, Index(0), segs[1])
	assert.Equal(t, Key("sku"), segs[2])
	assert.Equal(t, "items.0.sku", PathString(segs))
}

func TestParsePath_Invalid(t *testing.T) {
	for _, p := range []string{"", "a..b", ".a", "a."} {
		_, err := ParsePath(p)
		assert.Error(t, err, p)
	}
}

func TestNew_RejectsDuplicateColumns(t *testing.T) {
	_, err := New([]FieldMapping{
		{OutputColumn: "x", Path: []Segment{Key("a")}, Coercion: domain.CoercionString},
		{OutputColumn: "x", Path: []Segment{Key("b")}, Coercion: domain.CoercionString},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate output column")
}

func TestNew_RejectsBadMappings(t *testing.T) {
	cases := map[string]FieldMapping{
		"empty column":   {Path: []Segment{Key("a")}, Coercion: domain.CoercionString},
		"empty path":     {OutputColumn: "x", Coercion: domain.CoercionString},
		"unknown coerce": {OutputColumn: "x", Path: []Segment{Key("a")}, Coercion: "float"},
	}
	for name, m := range cases {
		_, err := New([]FieldMapping{m})
		assert.Error(t, err, name)
	}

	_, err := New(nil)
	assert.Error(t, err, "empty schema")
}

func TestNew_ColumnsInDeclarationOrder(t *testing.T) {
	s, err := New([]FieldMapping{
		{OutputColumn: "z", Path: []Segment{Key("z")}, Coercion: domain.CoercionString},
		{OutputColumn: "a", Path: []Segment{Key("a")}, Coercion: domain.CoercionNumber},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, s.Columns())
	assert.Equal(t, 2, s.Len())
}

func TestParse_SchemaFile(t *testing.T) {
	data := []byte(`[
		{"output_column": "ab", "source_path": ["a", "b"], "coercion": "number"},
		{"output_column": "first_sku", "source_path": ["items", 0, "sku"], "coercion": "string"},
		{"output_column": "when", "source_path": "meta.date", "coercion": "date"},
		{"output_column": "qty", "source_path": ["qty"], "coercion": "number", "default": 0}
	]`)

	s, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "first_sku", "when", "qty"}, s.Columns())

	m := s.Mappings()
	assert.Equal(t, []Segment{Key("a"), Key("b")}, m[0].Path)
	assert.Equal(t, []Segment{Key("items"), Index(0), Key("sku")}, m[1].Path)
	assert.Equal(t, []Segment{Key("meta"), Key("date")}, m[2].Path)
	assert.False(t, m[2].HasDefault)
	assert.True(t, m[3].HasDefault)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"not an array":    `{"output_column": "x"}`,
		"bad coercion":    `[{"output_column": "x", "source_path": ["a"], "coercion": "float"}]`,
		"bad path elem":   `[{"output_column": "x", "source_path": [true], "coercion": "string"}]`,
		"missing path":    `[{"output_column": "x", "coercion": "string"}]`,
		"empty path list": `[{"output_column": "x", "source_path": [], "coercion": "string"}]`,
	}
	for name, raw := range cases {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile("does/not/exist.json")
	assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	err := os.WriteFile(path, []byte(`[{"output_column": "id", "source_path": ["id"], "coercion": "string"}]`), 0o644)
	require.NoError(t, err)

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, s.Columns())
}
