package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeValue decodes raw JSON bytes into a semi-structured value. Numbers
// are kept as json.Number so numeric fidelity survives until coercion. The
// decoder is stateless and safe to use from any number of concurrent runs.
func DecodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	// Trailing non-whitespace content means the payload is not a single
	// JSON document.
	if dec.More() {
		return nil, fmt.Errorf("decoding payload: trailing data after value")
	}
	return v, nil
}
