// Package viewer provides the admin endpoints for the public viewer settings.
package viewer

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	controller "github.com/configurator-admin/configurator-admin/internal/db/controller/viewer"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

const (
	// Path is the path of the public viewer permission settings.
	Path = handler.RootPath + "/admin/settings/public-permissions"

	// ActionPublicPermissionsUpdated is recorded when the settings change.
	ActionPublicPermissionsUpdated = "PUBLIC_PERMISSIONS_UPDATED"
)

// Request is the body of a settings update.
type Request struct {
	Permissions *permission.Set `json:"permissions" validate:"required"`
}

// Service is the public viewer settings handler service.
type Service struct {
	handler.Service
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the public viewer settings handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the public viewer settings handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.db = deps.DB
	s.validator = deps.Validator

	// register routes with permission checks
	app.Get(Path,
		auth.RequireAuthenticated(deps.Auth),
		auth.RequirePermission(permission.UserManagement),
		s.Get,
	)
	app.Put(Path,
		auth.RequireAuthenticated(deps.Auth),
		auth.RequirePermission(permission.UserManagement),
		s.Put,
	)
}

// Get returns the current settings, the defaults when none are stored.
func (s *Service) Get(c *fiber.Ctx) error {
	settings := &controller.Settings{}
	if err := settings.Load(s.db); err != nil {
		return handler.Internal(c, err, "Failed to load settings")
	}

	return c.JSON(settings)
}

// Put replaces the public viewer permissions.
func (s *Service) Put(c *fiber.Ctx) error {
	var in Request
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	settings := &controller.Settings{Permissions: in.Permissions.Normalized()}
	if err := settings.Save(s.db); err != nil {
		return handler.Internal(c, err, "Failed to save settings")
	}

	handler.Record(c, s.db, ActionPublicPermissionsUpdated, "", nil)

	return c.JSON(settings)
}
