package widget

import (
	"github.com/rs/zerolog/log"

	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
	"github.com/configurator-admin/configurator-admin/internal/permission"
)

const (
	typeDoorPresets      = "doorPresets"
	typeDoorPresetWidget = "doorPresetWidget"
	typeLightWidget      = "lightWidget"
)

// State tells the client what to show for a widget panel.
type State string

const (
	// StateReady means the widget list is usable as-is.
	StateReady State = "ready"
	// StateNoConfiguration means nothing is visible and the user cannot save either.
	StateNoConfiguration State = "no-configuration"
	// StateAccessRequired means the user has no permissions at all.
	StateAccessRequired State = "access-required"
)

// Resolved is a visible widget together with its capability and required key.
type Resolved struct {
	Widget     Widget         `json:"widget"`
	Capability Capability     `json:"capability"`
	Permission permission.Key `json:"permission"`
}

// Result is the outcome of Evaluate.
type Result struct {
	Widgets []Resolved `json:"widgets"`
	State   State      `json:"state"`
}

// Collect gathers the declared widgets of cfg: direct uiWidgets first, then
// metadata.uiWidgets. A door preset widget is prepended when door selections
// exist without one, a light widget is appended when lights exist without one,
// and light widgets sharing a mesh name are reduced to the first.
func Collect(cfg modelconfig.Document) []Widget {
	raw := make([]Widget, 0, len(cfg.Slice("uiWidgets")))
	raw = appendWidgets(raw, cfg.Slice("uiWidgets"))
	raw = appendWidgets(raw, cfg.Map("metadata").Slice("uiWidgets"))

	if hasDoorSelections(cfg) && !containsType(raw, typeDoorPresets, typeDoorPresetWidget) {
		raw = append([]Widget{{Type: typeDoorPresets, Title: "Door Presets"}}, raw...)
	}

	hasLights := len(cfg.Slice("lights")) > 0 || len(cfg.Map("metadata").Slice("lights")) > 0
	if hasLights && !containsType(raw, typeLightWidget) {
		raw = append(raw, Widget{Type: typeLightWidget, Title: "Lights"})
	}

	return dedupeLights(raw)
}

// Filter keeps the widgets perms grants, preserving order.
func Filter(widgets []Widget, perms permission.Set) []Widget {
	out := make([]Widget, 0, len(widgets))

	for _, w := range widgets {
		key := PermissionKey(w.Type)
		if !perms.Has(key) {
			log.Debug().Str("widget", w.Type).Str("permission", key).Msg("widget hidden")
			continue
		}

		out = append(out, w)
	}

	return out
}

// Evaluate computes the visible widgets of cfg for perms. A nil or empty
// permission set yields StateAccessRequired.
func Evaluate(cfg modelconfig.Document, perms *permission.Set) Result {
	if perms == nil || perms.IsEmpty() {
		return Result{Widgets: []Resolved{}, State: StateAccessRequired}
	}

	visible := Filter(Collect(cfg), *perms)

	res := Result{Widgets: make([]Resolved, 0, len(visible)), State: StateReady}
	for _, w := range visible {
		res.Widgets = append(res.Widgets, Resolved{
			Widget:     w,
			Capability: Resolve(w.Type),
			Permission: PermissionKey(w.Type),
		})
	}

	if len(res.Widgets) == 0 && !perms.Has(permission.SaveConfig) {
		res.State = StateNoConfiguration
	}

	return res
}

func appendWidgets(dst []Widget, src []any) []Widget {
	for _, v := range src {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}

		dst = append(dst, FromMap(m))
	}

	return dst
}

func hasDoorSelections(cfg modelconfig.Document) bool {
	switch sel := cfg.Map("presets")["doorSelections"].(type) {
	case map[string]any:
		return len(sel) > 0
	case []any:
		return len(sel) > 0
	default:
		return false
	}
}

func containsType(widgets []Widget, types ...string) bool {
	for _, w := range widgets {
		for _, t := range types {
			if w.Type == t {
				return true
			}
		}
	}

	return false
}

// dedupeLights drops light widgets whose mesh name was already seen. A missing
// mesh name counts as one name of its own.
func dedupeLights(widgets []Widget) []Widget {
	seen := map[string]struct{}{}
	out := make([]Widget, 0, len(widgets))

	for _, w := range widgets {
		if w.Type == typeLightWidget {
			if _, dup := seen[w.MeshName]; dup {
				continue
			}

			seen[w.MeshName] = struct{}{}
		}

		out = append(out, w)
	}

	return out
}
