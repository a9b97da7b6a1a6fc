package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"flatfeed/internal/domain"
)

// mappingFile is the on-disk shape of one field mapping. source_path is an
// array of string keys and integer indexes; a plain dotted string is also
// accepted for convenience.
type mappingFile struct {
	OutputColumn string          `json:"output_column"`
	SourcePath   json.RawMessage `json:"source_path"`
	Coercion     string          `json:"coercion"`
	Default      json.RawMessage `json:"default"`
}

// LoadFile reads a JSON schema file (an array of mapping objects) and
// builds a Schema.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSchemaNotFound, path)
		}
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Schema from raw JSON bytes.
func Parse(data []byte) (*Schema, error) {
	var entries []mappingFile
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	mappings := make([]FieldMapping, 0, len(entries))
	for i, e := range entries {
		coercion, err := domain.ParseCoercion(e.Coercion)
		if err != nil {
			return nil, fmt.Errorf("mapping %d (%s): %w", i, e.OutputColumn, err)
		}
		path, err := parseSourcePath(e.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("mapping %d (%s): %w", i, e.OutputColumn, err)
		}
		m := FieldMapping{
			OutputColumn: e.OutputColumn,
			Path:         path,
			Coercion:     coercion,
		}
		if len(e.Default) > 0 && string(e.Default) != "null" {
			def, err := domain.DecodeValue(e.Default)
			if err != nil {
				return nil, fmt.Errorf("mapping %d (%s): default: %w", i, e.OutputColumn, err)
			}
			m.Default = def
			m.HasDefault = true
		}
		mappings = append(mappings, m)
	}
	return New(mappings)
}

// parseSourcePath accepts either a JSON array of keys/indexes or a dotted
// string.
func parseSourcePath(raw json.RawMessage) ([]Segment, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing source_path")
	}

	var dotted string
	if err := json.Unmarshal(raw, &dotted); err == nil {
		return ParsePath(dotted)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("source_path must be a string or an array: %w", err)
	}
	segs := make([]Segment, 0, len(elems))
	for i, el := range elems {
		var key string
		if err := json.Unmarshal(el, &key); err == nil {
			segs = append(segs, Key(key))
			continue
		}
		var idx int
		if err := json.Unmarshal(el, &idx); err == nil {
			segs = append(segs, Index(idx))
			continue
		}
		return nil, fmt.Errorf("source_path element %d must be a string key or integer index", i)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("source_path is empty")
	}
	return segs, nil
}
