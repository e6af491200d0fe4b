package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonicalize renders a value as compact JSON with every object's keys in
// ascending order, recursively. The venue verifies signatures over this exact
// byte sequence, so any whitespace or key-order drift invalidates them.
//
// The value is marshaled once, decoded into generic maps, and marshaled
// again: encoding/json writes map keys sorted, and json.Number keeps numeric
// literals byte-identical through the round trip.
func Canonicalize(v any) (string, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(first))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	var out bytes.Buffer
	encoder := json.NewEncoder(&out)
	// Keep <, >, & literal; the verifier hashes the raw bytes.
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(generic); err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	return string(bytes.TrimRight(out.Bytes(), "\n")), nil
}
