package permission

import (
	"strings"
)

// Role is the authority tag stored on a user.
type Role string

// Known roles.
const (
	RoleEmployee         Role = "employee"
	RoleAssistantManager Role = "assistantmanager"
	RoleManager          Role = "manager"
	RoleCustom           Role = "custom"
	RoleAdmin            Role = "admin"
	RoleSuperAdmin       Role = "superadmin"
)

// levels is the total order of authority. Unknown roles have level 0.
var levels = map[Role]int{ //nolint:gochecknoglobals
	RoleEmployee:         1,
	RoleAssistantManager: 2,
	RoleManager:          3,
	RoleCustom:           3,
	RoleAdmin:            4,
	RoleSuperAdmin:       5,
}

// roleOrder lists the known roles in ascending authority.
var roleOrder = []Role{ //nolint:gochecknoglobals
	RoleEmployee, RoleAssistantManager, RoleManager, RoleCustom, RoleAdmin, RoleSuperAdmin,
}

// Roles returns every known role in ascending authority.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)

	return out
}

// ParseRole converts a stored role string. Matching is case-insensitive; the
// second return value is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := levels[r]

	return r, ok
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := levels[r]
	return ok
}

// Level returns the authority level of role.
func Level(role Role) int {
	return levels[role]
}

// AllowedRoles returns the roles strictly below current, lowest first.
func AllowedRoles(current Role) []Role {
	lvl := Level(current)
	out := make([]Role, 0, len(roleOrder))

	for _, r := range roleOrder {
		if Level(r) < lvl {
			out = append(out, r)
		}
	}

	return out
}

// CanAssign reports whether actor may give role to another user.
func CanAssign(actor, role Role) bool {
	if !role.Valid() {
		return false
	}

	return Level(role) < Level(actor)
}

// CanManage reports whether actor may edit or delete a user holding target.
// Authority must be strictly higher; equal levels never manage each other.
func CanManage(actor, target Role) bool {
	return Level(actor) > Level(target)
}

// DisplayName formats a role for people. Custom roles show their custom name.
func DisplayName(role Role, customName string) string {
	switch role {
	case RoleCustom:
		if customName != "" {
			return customName
		}

		return "Custom"
	case RoleAssistantManager:
		return "Assistant Manager"
	case RoleSuperAdmin:
		return "Superadmin"
	case "":
		return "Employee"
	}

	s := string(role)

	return strings.ToUpper(s[:1]) + s[1:]
}

// Defaults returns a fresh copy of the default permission set for role.
// Unknown roles fall back to the lowest authority defaults.
func Defaults(role Role) Set {
	var flags map[Key]bool

	var qualities []Quality

	switch role {
	case RoleManager:
		flags = managerFlags()
		qualities = AllQualities()
	case RoleAssistantManager:
		flags = assistantManagerFlags()
		qualities = []Quality{QualityAverage, QualityGood}
	case RoleCustom:
		flags = managerFlags()
		flags[ModelUpload] = false
		flags[ModelManageUpload] = false
		flags[ModelManageEdit] = false
		flags[ModelManageDelete] = false
		qualities = []Quality{QualityAverage, QualityGood}
	case RoleAdmin, RoleSuperAdmin:
		flags = map[Key]bool{}
		for _, k := range coreFlags {
			flags[k] = true
		}

		qualities = AllQualities()
	default:
		flags = employeeFlags()
		qualities = []Quality{QualityAverage}
	}

	s := New()
	for _, k := range coreFlags {
		s.Flags[k] = flags[k]
	}

	s.Qualities = qualities

	return s
}

func employeeFlags() map[Key]bool {
	return map[Key]bool{
		DoorPresets:   true,
		DoorToggles:   true,
		DrawerToggles: true,
		TextureWidget: true,
		LightWidget:   true,
		SaveConfig:    true,
		CanRotate:     true,
		CanZoom:       true,
	}
}

func assistantManagerFlags() map[Key]bool {
	f := employeeFlags()
	// model editing sits under the model umbrella, so the umbrella is on too
	f[ModelUpload] = true
	f[ModelManageEdit] = true

	return f
}

func managerFlags() map[Key]bool {
	f := employeeFlags()
	f[ModelUpload] = true
	f[ModelManageUpload] = true
	f[ModelManageEdit] = true
	f[ModelManageDelete] = true
	f[GlobalTextureWidget] = true
	f[ScreenshotWidget] = true
	f[CanPan] = true
	f[CanMove] = true

	return f
}
