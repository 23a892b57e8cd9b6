package permission

import "errors"

var (
	// ErrSelfManagement is returned when a user tries to edit or delete their own account.
	ErrSelfManagement = errors.New("users cannot edit or delete their own account")

	// ErrInsufficientAuthority is returned when the target's role is at or above the actor's.
	ErrInsufficientAuthority = errors.New("target user is at or above your authority level")

	// ErrRoleNotAssignable is returned when the actor may not hand out the requested role.
	ErrRoleNotAssignable = errors.New("role cannot be assigned at your authority level")

	// ErrUnknownRole is returned for role strings outside the registry.
	ErrUnknownRole = errors.New("unknown role")
)

// CheckManage verifies that the actor may edit or delete the target user.
func CheckManage(actorID string, actor Role, targetID string, target Role) error {
	if actorID != "" && actorID == targetID {
		return ErrSelfManagement
	}

	if !CanManage(actor, target) {
		return ErrInsufficientAuthority
	}

	return nil
}

// CheckAssign verifies that the actor may give role to a user.
func CheckAssign(actor, role Role) error {
	if !role.Valid() {
		return ErrUnknownRole
	}

	if !CanAssign(actor, role) {
		return ErrRoleNotAssignable
	}

	return nil
}
