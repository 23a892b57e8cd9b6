package widget

import (
	"regexp"
	"strings"
)

// Component names a renderable control of the configurator front-end.
type Component string

// Known components.
const (
	DoorPresetWidget    Component = "DoorPresetWidget"
	TextureWidget       Component = "TextureWidget"
	GlobalTextureWidget Component = "GlobalTextureWidget"
	ColorPickerWidget   Component = "ColorPickerWidget"
	LightWidget         Component = "LightWidget"
	ScreenshotWidget    Component = "ScreenshotWidget"
	PresetWidget        Component = "PresetWidget"
)

type entry struct {
	key       string
	component Component
}

// catalog maps authored widget types to components. Order matters for the
// case-insensitive and suffix-stripped lookups, the first entry wins.
var catalog = []entry{ //nolint:gochecknoglobals
	{"doorPresets", DoorPresetWidget},
	{"doorPresetWidget", DoorPresetWidget},
	{"texture", TextureWidget},
	{"textureWidget", TextureWidget},
	{"globalTextureWidget", GlobalTextureWidget},
	{"colorPicker", ColorPickerWidget},
	{"colorpicker", ColorPickerWidget},
	{"lightWidget", LightWidget},
	{"screenshotWidget", ScreenshotWidget},
	{"reflectionWidget", LightWidget},
	{"customWidget", TextureWidget},
	{"presets", PresetWidget},
	{"presetWidget", PresetWidget},
}

var widgetSuffix = regexp.MustCompile(`(?i)widget$`) //nolint:gochecknoglobals

// Capability is the result of resolving an authored widget type.
type Capability struct {
	// Component is empty when NotFound is set.
	Component Component `json:"component,omitempty"`
	// Key is the catalog key that matched.
	Key string `json:"key,omitempty"`
	// NotFound marks an unmapped type. Such widgets render as an inert marker.
	NotFound bool `json:"notFound,omitempty"`
}

type matcher func(typeName string) (entry, bool)

// matchers are tried in order: exact, first letter lower-cased,
// case-insensitive, and case-insensitive without a trailing "widget".
var matchers = []matcher{ //nolint:gochecknoglobals
	func(t string) (entry, bool) {
		return find(func(e entry) bool { return e.key == t })
	},
	func(t string) (entry, bool) {
		lower := strings.ToLower(t[:1]) + t[1:]
		return find(func(e entry) bool { return e.key == lower })
	},
	func(t string) (entry, bool) {
		return find(func(e entry) bool { return strings.EqualFold(e.key, t) })
	},
	func(t string) (entry, bool) {
		stripped := widgetSuffix.ReplaceAllString(t, "")
		return find(func(e entry) bool {
			return strings.EqualFold(widgetSuffix.ReplaceAllString(e.key, ""), stripped)
		})
	},
}

// Resolve maps an authored widget type to its capability. Unknown or empty
// types resolve to a NotFound capability, never to an error.
func Resolve(typeName string) Capability {
	if typeName == "" {
		return Capability{NotFound: true}
	}

	for _, m := range matchers {
		if e, ok := m(typeName); ok {
			return Capability{Component: e.component, Key: e.key}
		}
	}

	return Capability{NotFound: true}
}

func find(match func(entry) bool) (entry, bool) {
	for _, e := range catalog {
		if match(e) {
			return e, true
		}
	}

	return entry{}, false
}
