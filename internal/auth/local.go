package auth

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/permission"
)

// LocalProvider handles local database authentication and user records.
type LocalProvider struct {
	db *gorm.DB
}

const whereID = "id = ?"

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// NewUser describes an account to create.
type NewUser struct {
	Name           string
	Email          string
	Password       string
	Role           permission.Role
	CustomRoleName string
	// Permissions overrides the role defaults when set.
	Permissions *permission.Set
	CreatedBy   string
}

// Authenticate authenticates a user against the local database.
func (p *LocalProvider) Authenticate(email, password string) (*models.User, error) {
	user, err := p.GetUserByEmail(email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CreateUser creates a new local user. Permissions start from the role
// defaults unless given, and the umbrella rules are applied before saving.
func (p *LocalProvider) CreateUser(in NewUser) (*models.User, error) {
	email := normalizeEmail(in.Email)

	var count int64
	if err := p.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if count > 0 {
		return nil, ErrEmailExists
	}

	hashedPassword, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	perms := permission.Defaults(in.Role)
	if in.Permissions != nil {
		perms = in.Permissions.Normalized()
	}

	perms.Cascade()

	user := models.User{
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Password:    hashedPassword,
		Role:        in.Role,
		Permissions: perms,
		CreatedBy:   in.CreatedBy,
	}

	if in.Role == permission.RoleCustom {
		user.CustomRoleName = strings.TrimSpace(in.CustomRoleName)
	}

	if err := p.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpdateAccess stores a new role and permission document for a user. The
// custom role name is cleared for every role except custom.
func (p *LocalProvider) UpdateAccess(
	userID string,
	role permission.Role,
	customRoleName string,
	perms permission.Set,
) (*models.User, error) {
	user, err := p.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	perms = perms.Normalized()
	perms.Cascade()

	user.Role = role
	user.Permissions = perms
	user.CustomRoleName = ""

	if role == permission.RoleCustom {
		user.CustomRoleName = strings.TrimSpace(customRoleName)
	}

	if err := p.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ChangePassword changes a user's password.
func (p *LocalProvider) ChangePassword(userID, oldPassword, newPassword string) error {
	user, err := p.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return p.ResetPassword(userID, newPassword)
}

// ResetPassword resets a user's password (admin function).
func (p *LocalProvider) ResetPassword(userID, newPassword string) error {
	hashedPassword, err := models.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result := p.db.Model(&models.User{}).Where(whereID, userID).Update("password", hashedPassword)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteUser deletes a user.
func (p *LocalProvider) DeleteUser(userID string) error {
	result := p.db.Where(whereID, userID).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetUserByID retrieves a user by ID.
func (p *LocalProvider) GetUserByID(userID string) (*models.User, error) {
	return p.first(whereID, userID)
}

// GetUserByEmail retrieves a user by email, ignoring case and surrounding spaces.
func (p *LocalProvider) GetUserByEmail(email string) (*models.User, error) {
	return p.first("email = ?", normalizeEmail(email))
}

// ListUsers lists all users, oldest first.
func (p *LocalProvider) ListUsers() ([]models.User, error) {
	users := []models.User{}
	if err := p.db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// Count returns the number of users.
func (p *LocalProvider) Count() (int64, error) {
	var count int64
	err := p.db.Model(&models.User{}).Count(&count).Error

	return count, err
}

func (p *LocalProvider) first(query string, arg any) (*models.User, error) {
	var user models.User

	err := p.db.Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
