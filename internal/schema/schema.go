// Package schema defines the declarative mapping between nested source
// paths and flat output columns.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"flatfeed/internal/domain"
)

// Segment is one step of a source path: a mapping key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key builds a mapping-key segment.
func Key(k string) Segment {
	return Segment{Key: k}
}

// Index builds a sequence-index segment.
func Index(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

// String renders the segment the way it appears in a dotted path.
func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// ParsePath splits a dotted path like "items.0.sku" into segments. Purely
// numeric segments become sequence indexes.
func ParsePath(path string) ([]Segment, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	parts := strings.Split(path, ".")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("path %q has an empty segment", path)
		}
		if i, err := strconv.Atoi(p); err == nil {
			segs = append(segs, Index(i))
			continue
		}
		segs = append(segs, Key(p))
	}
	return segs, nil
}

// PathString renders a segment list back to dotted form, for logs and
// error messages.
func PathString(path []Segment) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// FieldMapping declares one output column: where its value comes from,
// what type it is coerced to, and an optional default applied when the
// path is missing or null.
type FieldMapping struct {
	OutputColumn string
	Path         []Segment
	Coercion     domain.Coercion
	Default      any
	HasDefault   bool
}

// Schema is an ordered, immutable collection of field mappings. Output
// columns are unique. A Schema holds no mutable state and is safe to share
// across concurrent runs.
type Schema struct {
	mappings []FieldMapping
	columns  []string
}

// New validates the mappings and builds a Schema.
func New(mappings []FieldMapping) (*Schema, error) {
	if len(mappings) == 0 {
		return nil, fmt.Errorf("schema has no field mappings")
	}
	seen := make(map[string]bool, len(mappings))
	columns := make([]string, 0, len(mappings))
	for i, m := range mappings {
		if m.OutputColumn == "" {
			return nil, fmt.Errorf("mapping %d has an empty output column", i)
		}
		if seen[m.OutputColumn] {
			return nil, fmt.Errorf("duplicate output column %q", m.OutputColumn)
		}
		if len(m.Path) == 0 {
			return nil, fmt.Errorf("column %q has an empty source path", m.OutputColumn)
		}
		if _, err := domain.ParseCoercion(string(m.Coercion)); err != nil {
			return nil, fmt.Errorf("column %q: %w", m.OutputColumn, err)
		}
		seen[m.OutputColumn] = true
		columns = append(columns, m.OutputColumn)
	}
	cp := make([]FieldMapping, len(mappings))
	copy(cp, mappings)
	return &Schema{mappings: cp, columns: columns}, nil
}

// Mappings returns the field mappings in declaration order.
func (s *Schema) Mappings() []FieldMapping {
	return s.mappings
}

// Columns returns the output column names in declaration order.
func (s *Schema) Columns() []string {
	return s.columns
}

// Len is the number of field mappings.
func (s *Schema) Len() int {
	return len(s.mappings)
}
