package permission

// Resolve returns the effective permission set of a user holding role with the
// stored permission document, and whether the stored document deviates from
// the role defaults.
//
// The group rules are applied to the stored document first, so a document
// with a child key but no umbrella resolves the same as its cascaded form.
//
// The stored role is trusted as-is; the role is never guessed from the shape
// of the stored permissions. Users with the custom role are never reported as
// customised since their whole set is custom by definition.
func Resolve(role Role, stored Set) (Set, bool) {
	effective := stored.Normalized()
	effective.Cascade()

	if role == RoleCustom {
		return effective, false
	}

	return effective, !Equal(effective, Defaults(role))
}

// ResetToDefaults returns the defaults of role while keeping the preset access
// map of current.
func ResetToDefaults(role Role, current Set) Set {
	out := Defaults(role)

	for id, allowed := range current.PresetAccess {
		out.PresetAccess[id] = allowed
	}

	return out
}

// ForRoleChange returns the permissions a user gets when an administrator
// switches them to role. Switching to custom keeps the current flags; any
// other role starts from its defaults. Preset access always survives.
func ForRoleChange(role Role, current Set) Set {
	if role == RoleCustom {
		return current.Clone()
	}

	return ResetToDefaults(role, current)
}
