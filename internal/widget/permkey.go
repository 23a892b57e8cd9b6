package widget

import (
	"regexp"
	"strings"

	"github.com/configurator-admin/configurator-admin/internal/permission"
)

type alias struct {
	name string
	key  permission.Key
}

// aliases maps normalized widget types to the permission key they require.
// The order is significant for the substring fallback.
var aliases = []alias{ //nolint:gochecknoglobals
	{"preset", permission.CanEdit},
	{"presets", permission.CanEdit},
	{"presetwidget", permission.CanEdit},
	{"doorpresets", permission.DoorPresets},
	{"doorpreset", permission.DoorPresets},
	{"doorpresetwidget", permission.DoorPresets},
	{"doortoggles", permission.DoorToggles},
	{"doortoggle", permission.DoorToggles},
	{"drawertoggles", permission.DrawerToggles},
	{"drawertoggle", permission.DrawerToggles},
	{"texture", permission.TextureWidget},
	{"texturewidget", permission.TextureWidget},
	{"globaltexture", permission.GlobalTextureWidget},
	{"globaltexturewidget", permission.GlobalTextureWidget},
	{"light", permission.LightWidget},
	{"lightwidget", permission.LightWidget},
	{"screenshot", permission.ScreenshotWidget},
	{"screenshotwidget", permission.ScreenshotWidget},
	{"reflection", permission.LightWidget},
	{"movement", permission.CanMove},
	{"saveconfig", permission.SaveConfig},
	{"modelposition", permission.CanMove},
	{"custom", permission.TextureWidget},
}

// keywords is the last resort before the texture default.
var keywords = []alias{ //nolint:gochecknoglobals
	{"door", permission.DoorToggles},
	{"preset", permission.CanEdit},
	{"texture", permission.TextureWidget},
	{"light", permission.LightWidget},
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`) //nolint:gochecknoglobals

// NormalizeType strips non-alphanumerics and a trailing "widget" and lower-cases the rest.
func NormalizeType(typeName string) string {
	s := nonAlphanumeric.ReplaceAllString(typeName, "")
	s = widgetSuffix.ReplaceAllString(s, "")

	return strings.ToLower(s)
}

// PermissionKey returns the permission key a widget of typeName requires.
func PermissionKey(typeName string) permission.Key {
	if typeName == "" {
		return permission.TextureWidget
	}

	n := NormalizeType(typeName)

	for _, a := range aliases {
		if a.name == n {
			return a.key
		}
	}

	for _, a := range aliases {
		if strings.Contains(a.name, n) || strings.Contains(n, a.name) {
			return a.key
		}
	}

	for _, k := range keywords {
		if strings.Contains(n, k.name) {
			return k.key
		}
	}

	return permission.TextureWidget
}
