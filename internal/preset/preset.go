// Package preset reads, filters and applies the named part presets of a model.
package preset

import (
	"encoding/json"

	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
	"github.com/configurator-admin/configurator-admin/internal/permission"
)

// Action changes a single part of the model.
type Action struct {
	Part      string         `json:"part"`
	Texture   string         `json:"texture,omitempty"`
	TintColor string         `json:"tintColor,omitempty"`
	Color     string         `json:"color,omitempty"`
	Mapping   map[string]any `json:"mapping,omitempty"`
	Persist   bool           `json:"persist,omitempty"`
}

// Tint returns the tint color of the action, tintColor taking precedence over color.
func (a Action) Tint() string {
	if a.TintColor != "" {
		return a.TintColor
	}

	return a.Color
}

// Preset is a named, ordered list of actions.
type Preset struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Actions []Action `json:"actions"`
}

// Parse returns the presets declared in cfg. The presets field must be an
// array; entries that are not preset objects are skipped.
func Parse(cfg modelconfig.Document) []Preset {
	raw := cfg.Slice("presets")
	out := make([]Preset, 0, len(raw))

	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}

		b, err := json.Marshal(m)
		if err != nil {
			continue
		}

		var p Preset
		if err := json.Unmarshal(b, &p); err != nil {
			continue
		}

		out = append(out, p)
	}

	return out
}

// Accessible keeps the presets perms allows. Without any preset restriction
// every preset is allowed; with restrictions, presets without id are dropped.
func Accessible(presets []Preset, perms permission.Set) []Preset {
	out := make([]Preset, 0, len(presets))

	for _, p := range presets {
		if perms.PresetAllowed(p.ID) {
			out = append(out, p)
		}
	}

	return out
}

// Find returns the preset with the given id.
func Find(presets []Preset, id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID != "" && p.ID == id {
			return p, true
		}
	}

	return Preset{}, false
}
