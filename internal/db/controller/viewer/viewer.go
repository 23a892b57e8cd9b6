// Package viewer holds the settings of the anonymous public viewer.
package viewer

import (
	"errors"

	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/controller/setting"
	"github.com/configurator-admin/configurator-admin/internal/permission"
)

const (
	// SettingKeyPublicPermissions is the key used to store the public viewer permissions.
	SettingKeyPublicPermissions = "public_viewer_permissions"
)

// DefaultPublicPermissions are granted to anonymous viewers until an
// administrator stores something else: camera movement and door and drawer toggles.
func DefaultPublicPermissions() permission.Set {
	s := permission.New()

	for _, k := range permission.CoreFlags() {
		s.Flags[k] = false
	}

	for _, k := range []permission.Key{
		permission.CanRotate,
		permission.CanPan,
		permission.CanZoom,
		permission.DoorToggles,
		permission.DrawerToggles,
	} {
		s.Flags[k] = true
	}

	return s
}

// Settings represents the public viewer configuration.
type Settings struct {
	Permissions permission.Set `json:"permissions"`
}

// Load loads the public viewer settings from the database. A missing setting
// yields the defaults.
func (v *Settings) Load(db *gorm.DB) error {
	err := setting.Load(db, SettingKeyPublicPermissions, v)
	if errors.Is(err, setting.ErrSettingNotFound) {
		v.Permissions = DefaultPublicPermissions()
		return nil
	}

	if err != nil {
		return err
	}

	v.Permissions = v.Permissions.Normalized()

	return nil
}

// Save saves the public viewer settings to the database. Umbrella rules are
// applied before writing.
func (v *Settings) Save(db *gorm.DB) error {
	v.Permissions.Cascade()

	return setting.Store(db, SettingKeyPublicPermissions, v)
}
