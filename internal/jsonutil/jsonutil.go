// Package jsonutil decodes structured LLM responses. The provider is
// instructed to reply with a single bare JSON object, so decoding is strict:
// markdown fences, prose prefixes, or trailing chatter all fail rather than
// being salvaged. A reply that needs salvaging is a broken contract.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeStrict unmarshals raw into T. The input must be exactly one JSON
// document (object or array) surrounded by nothing but whitespace.
func DecodeStrict[T any](raw string) (T, error) {
	var zero T

	text := strings.TrimSpace(raw)
	if text == "" {
		return zero, fmt.Errorf("empty input")
	}
	if text[0] != '{' && text[0] != '[' {
		return zero, fmt.Errorf("response is not a bare JSON document (starts with %q)", preview(text, 40))
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var result T
	if err := dec.Decode(&result); err != nil {
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview(text, 200))
	}

	// Anything after the first document means the reply was not a single
	// JSON object.
	if dec.More() {
		return zero, fmt.Errorf("trailing content after JSON document (text: %s)", preview(text, 200))
	}

	return result, nil
}

// preview truncates s for inclusion in error messages.
func preview(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
