package oracle

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject means no JSON object could be recovered from model output.
var ErrNoObject = errors.New("no json object in output")

// DecodeObject decodes a JSON object from raw model output into v.
// It first tries the whole output, then the outermost brace-delimited
// span embedded in surrounding prose or markdown fences.
func DecodeObject(raw string, v any) error {
	if err := DecodeWhole(raw, v); err == nil {
		return nil
	}
	return DecodeEmbedded(raw, v)
}

// DecodeWhole decodes raw as a single JSON object, ignoring surrounding whitespace.
func DecodeWhole(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return ErrNoObject
	}
	return json.Unmarshal([]byte(trimmed), v)
}

// DecodeEmbedded decodes the span from the first '{' to the last '}' in raw.
func DecodeEmbedded(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ErrNoObject
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return ErrNoObject
	}
	return nil
}
