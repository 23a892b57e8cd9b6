package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/permission"
)

// User represents a back-office account.
// The role ranks the user in the authority order and supplies default
// permissions; Permissions holds the document an administrator edited.
type User struct {
	// ID is the unique identifier for the user (UUID).
	ID string `gorm:"primaryKey;size:36" json:"_id"`
	// Name is the display name of the user.
	Name string `gorm:"size:100;not null" json:"name"`
	// Email is the unique login of the user.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255;not null" json:"-"`
	// Role is the authority tag of the user.
	Role permission.Role `gorm:"type:varchar(32);not null;default:'employee'" json:"role"`
	// CustomRoleName is the display name of a custom role.
	CustomRoleName string `gorm:"size:100" json:"customRoleName,omitempty"`
	// Permissions is the stored permission document.
	Permissions permission.Set `gorm:"type:text;serializer:json" json:"permissions"`
	// CreatedBy is the ID of the user that created this account, empty for seeded accounts.
	CreatedBy string `gorm:"size:36" json:"createdBy,omitempty"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a new UUID to users created without one.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	return nil
}

// Effective resolves the permissions the user actually holds and whether they
// differ from the role defaults.
func (u *User) Effective() (permission.Set, bool) {
	return permission.Resolve(u.Role, u.Permissions)
}

// RoleDisplayName formats the role of the user for people.
func (u *User) RoleDisplayName() string {
	return permission.DisplayName(u.Role, u.CustomRoleName)
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams) //nolint:wrapcheck
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
