package modelconfig

import (
	"encoding/json"
	"fmt"
)

// Document is a model configuration as authored in JSON. Only the fields the
// engine reads get typed accessors; everything else passes through untouched.
type Document map[string]any

// Parse decodes a JSON object into a Document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return doc, nil
}

// Has reports whether key is present at the top level.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Map returns the object stored under key, or nil when key is absent or not an object.
func (d Document) Map(key string) Document {
	return asDocument(d[key])
}

// Slice returns the array stored under key, or nil when key is absent or not an array.
func (d Document) Slice(key string) []any {
	v, _ := d[key].([]any)
	return v
}

// String returns the string stored under key, or "" when key is absent or not a string.
func (d Document) String(key string) string {
	v, _ := d[key].(string)
	return v
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	return deepCopy(map[string]any(d)).(map[string]any) //nolint:forcetypeassert
}

// Bytes encodes d as JSON. A nil document encodes as an empty object.
func (d Document) Bytes() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(map[string]any(d))
}

func asDocument(v any) Document {
	switch m := v.(type) {
	case map[string]any:
		return m
	case Document:
		return m
	default:
		return nil
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}

		return out
	case Document:
		return deepCopy(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}

		return out
	default:
		return v
	}
}
