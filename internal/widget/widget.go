package widget

import (
	"encoding/json"
)

// Widget is a widget declaration from a model configuration.
type Widget struct {
	Type     string         `json:"type"`
	Title    string         `json:"title,omitempty"`
	MeshName string         `json:"meshName,omitempty"`
	Props    map[string]any `json:"props,omitempty"`

	// Extra holds any other authored fields, written back as-is.
	Extra map[string]any `json:"-"`
}

// FromMap builds a Widget from a decoded JSON object.
func FromMap(m map[string]any) Widget {
	var w Widget

	for k, v := range m {
		switch k {
		case "type":
			w.Type, _ = v.(string)
		case "title":
			w.Title, _ = v.(string)
		case "meshName":
			w.MeshName, _ = v.(string)
		case "props":
			w.Props, _ = v.(map[string]any)
		default:
			if w.Extra == nil {
				w.Extra = map[string]any{}
			}

			w.Extra[k] = v
		}
	}

	return w
}

// MarshalJSON writes the known fields merged with Extra.
func (w Widget) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(w.Extra)+4) //nolint:mnd
	for k, v := range w.Extra {
		out[k] = v
	}

	out["type"] = w.Type

	if w.Title != "" {
		out["title"] = w.Title
	}

	if w.MeshName != "" {
		out["meshName"] = w.MeshName
	}

	if w.Props != nil {
		out["props"] = w.Props
	}

	return json.Marshal(out)
}

// UnmarshalJSON reads a widget object, keeping unknown fields in Extra.
func (w *Widget) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	*w = FromMap(m)

	return nil
}
