package permission

// Key is the name of a single permission flag as stored in a user's permission document.
type Key = string

// Permission keys known to the configurator.
const (
	ModelUpload       Key = "modelUpload"
	ModelManageUpload Key = "modelManageUpload"
	ModelManageEdit   Key = "modelManageEdit"
	ModelManageDelete Key = "modelManageDelete"

	UserManagement   Key = "userManagement"
	UserManageCreate Key = "userManageCreate"
	UserManageEdit   Key = "userManageEdit"
	UserManageDelete Key = "userManageDelete"

	DoorPresets         Key = "doorPresets"
	DoorToggles         Key = "doorToggles"
	DrawerToggles       Key = "drawerToggles"
	TextureWidget       Key = "textureWidget"
	LightWidget         Key = "lightWidget"
	GlobalTextureWidget Key = "globalTextureWidget"
	ScreenshotWidget    Key = "screenshotWidget"
	SaveConfig          Key = "saveConfig"
	CanRotate           Key = "canRotate"
	CanPan              Key = "canPan"
	CanZoom             Key = "canZoom"
	CanMove             Key = "canMove"
	ReflectionWidget    Key = "reflectionWidget"
	MovementWidget      Key = "movementWidget"
	CustomWidget        Key = "customWidget"

	// ImageDownloadQualities is the only non-boolean core key.
	ImageDownloadQualities Key = "imageDownloadQualities"
	// PresetAccess holds per-preset restrictions and is metadata, not a core key.
	PresetAccess Key = "presetAccess"

	// CanEdit and CanTexture are aggregate keys derived from widget flags.
	CanEdit    Key = "canEdit"
	CanTexture Key = "canTexture"
)

// coreFlags lists every boolean core key in display order.
var coreFlags = []Key{ //nolint:gochecknoglobals
	ModelUpload, ModelManageUpload, ModelManageEdit, ModelManageDelete,
	UserManagement, UserManageCreate, UserManageEdit, UserManageDelete,
	DoorPresets, DoorToggles, DrawerToggles, TextureWidget, LightWidget,
	GlobalTextureWidget, ScreenshotWidget, SaveConfig, CanRotate, CanPan,
	CanZoom, CanMove, ReflectionWidget, MovementWidget, CustomWidget,
}

// userManagementKeys are the core keys Equal skips.
var userManagementKeys = map[Key]struct{}{ //nolint:gochecknoglobals
	UserManagement:   {},
	UserManageCreate: {},
	UserManageEdit:   {},
	UserManageDelete: {},
}

// CoreFlags returns the boolean core keys in display order.
func CoreFlags() []Key {
	out := make([]Key, len(coreFlags))
	copy(out, coreFlags)

	return out
}

// IsCoreFlag reports whether key is one of the boolean core keys.
func IsCoreFlag(key Key) bool {
	for _, k := range coreFlags {
		if k == key {
			return true
		}
	}

	return false
}

// groups maps an umbrella key to the keys it gates.
var groups = map[Key][]Key{ //nolint:gochecknoglobals
	ModelUpload:    {ModelManageUpload, ModelManageEdit, ModelManageDelete},
	UserManagement: {UserManageCreate, UserManageEdit, UserManageDelete},
}

// Children returns the keys gated by umbrella, or nil if umbrella is not a group key.
func Children(umbrella Key) []Key {
	return groups[umbrella]
}

// Parent returns the umbrella key of child and true, or "" and false.
func Parent(child Key) (Key, bool) {
	for parent, children := range groups {
		for _, c := range children {
			if c == child {
				return parent, true
			}
		}
	}

	return "", false
}

// aggregates lists the flags that grant an aggregate key.
var aggregates = map[Key][]Key{ //nolint:gochecknoglobals
	CanEdit: {
		CanEdit, DoorPresets, DoorToggles, DrawerToggles,
		TextureWidget, GlobalTextureWidget, LightWidget,
	},
	CanTexture: {CanTexture, TextureWidget, GlobalTextureWidget},
}

// Quality is an image download quality tag.
type Quality string

// Image download qualities, lowest first.
const (
	QualityAverage Quality = "average"
	QualityGood    Quality = "good"
	QualityBest    Quality = "best"
)

// AllQualities returns every quality tag, lowest first.
func AllQualities() []Quality {
	return []Quality{QualityAverage, QualityGood, QualityBest}
}

// Valid reports whether q is a known quality tag.
func (q Quality) Valid() bool {
	switch q {
	case QualityAverage, QualityGood, QualityBest:
		return true
	default:
		return false
	}
}
