// Package user provides the user management endpoints of the admin dashboard.
package user

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/db/controller/savedconfig"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/events"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/uniuri"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "/admin-dashboard/users"

	// Activity actions recorded by this handler.
	ActionUserCreated        = "USER_CREATED"
	ActionPermissionsUpdated = "PERMISSIONS_UPDATED"
	ActionPermissionsReset   = "PERMISSIONS_RESET"
	ActionUserDeleted        = "USER_DELETED"
	paramID                  = "id"
	msgUserNotFound          = "User not found"
	msgInvalidBody           = "Invalid request body"
)

// CreateRequest is the body of a user creation.
type CreateRequest struct {
	Name             string          `json:"name"             validate:"required,min=2,max=100"`
	Email            string          `json:"email"            validate:"required,email"`
	Password         string          `json:"password"         validate:"required,min=8"`
	Role             string          `json:"role"             validate:"required"`
	CustomRoleName   string          `json:"customRoleName"   validate:"max=50"`
	Permissions      *permission.Set `json:"permissions"`
	GeneratePassword bool            `json:"generatePassword"`
}

// AccessRequest is the body of a role and permission update. A nil
// Permissions keeps the current set, adjusted for a role change.
type AccessRequest struct {
	Role           string          `json:"role"`
	CustomRoleName string          `json:"customRoleName" validate:"max=50"`
	Permissions    *permission.Set `json:"permissions"`
}

// Service provides the user management endpoints.
type Service struct {
	handler.Service
	db        *gorm.DB
	users     *auth.LocalProvider
	events    *events.Broker
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.db = deps.DB
	s.users = deps.Auth.Users()
	s.events = deps.Events
	s.validator = deps.Validator

	group := app.Group(Path, auth.RequireAuthenticated(deps.Auth))

	group.Get("/",
		auth.RequirePermission(permission.UserManagement),
		s.List,
	)
	group.Post("/",
		auth.RequirePermission(permission.UserManageCreate),
		s.Create,
	)
	group.Put("/:id/permissions",
		auth.RequirePermission(permission.UserManageEdit),
		s.UpdatePermissions,
	)
	group.Post("/:id/permissions/reset",
		auth.RequirePermission(permission.UserManageEdit),
		s.ResetPermissions,
	)
	group.Delete("/:id",
		auth.RequirePermission(permission.UserManageDelete),
		s.Delete,
	)
}

// List returns the users the caller may manage, with their saved
// configuration counts.
func (s *Service) List(c *fiber.Ctx) error {
	actor := auth.UserFromContext(c)

	all, err := s.users.ListUsers()
	if err != nil {
		return handler.Internal(c, err, "Failed to load users")
	}

	visible := make([]models.User, 0, len(all))
	ids := make([]string, 0, len(all))

	for _, u := range all {
		if u.ID == actor.ID || !permission.CanManage(actor.Role, u.Role) {
			continue
		}

		visible = append(visible, u)
		ids = append(ids, u.ID)
	}

	counts, err := savedconfig.CountByUser(s.db, ids)
	if err != nil {
		return handler.Internal(c, err, "Failed to count saved configurations")
	}

	out := make([]handler.UserView, 0, len(visible))

	for i := range visible {
		view := handler.NewUserView(&visible[i])
		n := counts[visible[i].ID]
		view.SavedConfigCount = &n
		out = append(out, view)
	}

	return c.JSON(out)
}

// Create adds a user. Permissions default to those of the role.
func (s *Service) Create(c *fiber.Ctx) error {
	var in CreateRequest
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	in.Name = strings.TrimSpace(in.Name)

	if in.GeneratePassword {
		in.Password = uniuri.Password(uniuri.PasswordLen)
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	actor := auth.UserFromContext(c)

	role, _ := permission.ParseRole(in.Role)
	if err := permission.CheckAssign(actor.Role, role); err != nil {
		return assignError(c, err)
	}

	if role == permission.RoleCustom && strings.TrimSpace(in.CustomRoleName) == "" {
		return handler.Error(c, fiber.StatusBadRequest, "Custom role name is required")
	}

	created, err := s.users.CreateUser(auth.NewUser{
		Name:           in.Name,
		Email:          in.Email,
		Password:       in.Password,
		Role:           role,
		CustomRoleName: in.CustomRoleName,
		Permissions:    in.Permissions,
		CreatedBy:      actor.ID,
	})
	if errors.Is(err, auth.ErrEmailExists) {
		return handler.Error(c, fiber.StatusConflict, "User with this email already exists")
	}

	if err != nil {
		return handler.Internal(c, err, "Failed to create user")
	}

	handler.Record(c, s.db, ActionUserCreated, "", map[string]any{
		"targetUserId": created.ID,
		"role":         string(created.Role),
	})

	resp := fiber.Map{"user": handler.NewUserView(created)}
	if in.GeneratePassword {
		resp["generatedPassword"] = in.Password
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdatePermissions stores a new role and permission set for a user and
// notifies the user's open streams.
func (s *Service) UpdatePermissions(c *fiber.Ctx) error {
	var in AccessRequest
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	target, ok, err := s.target(c)
	if !ok {
		return err
	}

	role := target.Role
	if in.Role != "" {
		role, _ = permission.ParseRole(in.Role)
	}

	if role != target.Role {
		if err := permission.CheckAssign(auth.UserFromContext(c).Role, role); err != nil {
			return assignError(c, err)
		}
	}

	var perms permission.Set

	switch {
	case in.Permissions != nil:
		perms = *in.Permissions
	case role != target.Role:
		perms = permission.ForRoleChange(role, target.Permissions)
	default:
		perms = target.Permissions
	}

	customName := strings.TrimSpace(in.CustomRoleName)
	if customName == "" {
		customName = target.CustomRoleName
	}

	if role == permission.RoleCustom && customName == "" {
		return handler.Error(c, fiber.StatusBadRequest, "Custom role name is required")
	}

	updated, err := s.users.UpdateAccess(target.ID, role, customName, perms)
	if err != nil {
		return handler.Internal(c, err, "Failed to update permissions")
	}

	handler.Record(c, s.db, ActionPermissionsUpdated, "", map[string]any{
		"targetUserId": updated.ID,
		"role":         string(updated.Role),
	})

	return c.JSON(fiber.Map{"user": s.notify(updated)})
}

// ResetPermissions restores the role defaults of a user, keeping preset access.
func (s *Service) ResetPermissions(c *fiber.Ctx) error {
	target, ok, err := s.target(c)
	if !ok {
		return err
	}

	perms := permission.ResetToDefaults(target.Role, target.Permissions)

	updated, err := s.users.UpdateAccess(target.ID, target.Role, target.CustomRoleName, perms)
	if err != nil {
		return handler.Internal(c, err, "Failed to reset permissions")
	}

	handler.Record(c, s.db, ActionPermissionsReset, "", map[string]any{"targetUserId": updated.ID})

	return c.JSON(fiber.Map{"user": s.notify(updated)})
}

// Delete removes a user. Saved configurations move to the user named by the
// transferTo query parameter, or are deleted with the user.
func (s *Service) Delete(c *fiber.Ctx) error {
	target, ok, err := s.target(c)
	if !ok {
		return err
	}

	transferTo := c.Query("transferTo")
	if transferTo != "" {
		if transferTo == target.ID {
			return handler.Error(c, fiber.StatusBadRequest, "Cannot transfer configurations to the deleted user")
		}

		if _, err := s.users.GetUserByID(transferTo); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return handler.Error(c, fiber.StatusBadRequest, "Transfer target not found")
			}

			return handler.Internal(c, err, "Failed to load transfer target")
		}
	}

	var moved, removed int64

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error

		if transferTo != "" {
			moved, txErr = savedconfig.Transfer(tx, target.ID, transferTo)
		} else {
			removed, txErr = savedconfig.DeleteByUser(tx, target.ID)
		}

		if txErr != nil {
			return txErr
		}

		return auth.NewLocalProvider(tx).DeleteUser(target.ID)
	})
	if err != nil {
		return handler.Internal(c, err, "Failed to delete user")
	}

	handler.Record(c, s.db, ActionUserDeleted, "", map[string]any{
		"targetUserId":       target.ID,
		"targetEmail":        target.Email,
		"transferredConfigs": moved,
		"deletedConfigs":     removed,
	})

	return c.JSON(fiber.Map{
		"message":            "User deleted",
		"transferredConfigs": moved,
		"deletedConfigs":     removed,
	})
}

// target loads the user named by the id parameter and checks that the caller
// may manage it. When ok is false the response has been written.
func (s *Service) target(c *fiber.Ctx) (*models.User, bool, error) {
	target, err := s.users.GetUserByID(c.Params(paramID))
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, false, handler.Error(c, fiber.StatusNotFound, msgUserNotFound)
	}

	if err != nil {
		return nil, false, handler.Internal(c, err, "Failed to load user")
	}

	actor := auth.UserFromContext(c)
	if err := permission.CheckManage(actor.ID, actor.Role, target.ID, target.Role); err != nil {
		return nil, false, handler.Error(c, fiber.StatusForbidden, err.Error())
	}

	return target, true, nil
}

func (s *Service) notify(u *models.User) handler.UserView {
	view := handler.NewUserView(u)

	if s.events != nil {
		s.events.Publish(u.ID, events.Event{
			Name: events.PermissionsUpdated,
			Data: fiber.Map{
				"permissions":    view.Permissions,
				"role":           view.Role,
				"customRoleName": view.CustomRoleName,
				"isCustomized":   view.IsCustomized,
			},
		})
	}

	return view
}

func assignError(c *fiber.Ctx, err error) error {
	if errors.Is(err, permission.ErrUnknownRole) {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	return handler.Error(c, fiber.StatusForbidden, err.Error())
}
