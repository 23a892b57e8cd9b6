// Package configs stores and lists the scene configurations users save.
package configs

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/db/controller/savedconfig"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

const (
	// Path is the base path of the caller's saved configurations.
	Path = handler.RootPath + "/configs"
	// AdminPath is the base path of saved configuration administration.
	AdminPath = handler.RootPath + "/admin/user-configs"

	// Activity actions recorded by this handler.
	ActionConfigSaved   = "CONFIG_SAVED"
	ActionConfigDeleted = "CONFIG_DELETED"

	msgNotFound = "Configuration not found"
)

// SaveRequest is the body of a configuration save.
type SaveRequest struct {
	ModelName   string         `json:"modelName"   validate:"required,max=100"`
	Name        string         `json:"name"        validate:"required,max=255"`
	Description string         `json:"description" validate:"max=1024"`
	ConfigData  map[string]any `json:"configData"  validate:"required"`
}

// Service is the saved configuration handler service.
type Service struct {
	handler.Service
	db        *gorm.DB
	users     *auth.LocalProvider
	validator *validator.Validate
}

// Handler is the saved configuration handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.db = deps.DB
	s.users = deps.Auth.Users()
	s.validator = deps.Validator

	own := app.Group(Path, auth.RequireAuthenticated(deps.Auth))
	own.Post("/save", auth.RequirePermission(permission.SaveConfig), s.Save)
	own.Get("/", s.List)
	own.Get("/:id", s.Get)
	own.Delete("/:id", s.Delete)

	admin := app.Group(AdminPath, auth.RequireAuthenticated(deps.Auth))
	admin.Get("/:userId", auth.RequirePermission(permission.UserManagement), s.ListForUser)
	admin.Delete("/:id", auth.RequirePermission(permission.UserManageDelete), s.AdminDelete)
}

// Save stores a configuration for the caller.
func (s *Service) Save(c *fiber.Ctx) error {
	var in SaveRequest
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	data, err := json.Marshal(in.ConfigData)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid configData")
	}

	cfg := &models.SavedConfig{
		UserID:      auth.UserFromContext(c).ID,
		ModelName:   in.ModelName,
		Name:        in.Name,
		Description: in.Description,
		ConfigData:  datatypes.JSON(data),
	}

	if err := savedconfig.Create(s.db, cfg); err != nil {
		return handler.Internal(c, err, "Failed to save configuration")
	}

	handler.Record(c, s.db, ActionConfigSaved, cfg.ModelName, map[string]any{
		"configId": cfg.ID,
		"name":     cfg.Name,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"config": cfg})
}

// List returns the caller's configurations, optionally for one ?modelName=.
func (s *Service) List(c *fiber.Ctx) error {
	list, err := savedconfig.ListByUser(s.db, auth.UserFromContext(c).ID, c.Query("modelName"))
	if err != nil {
		return handler.Internal(c, err, "Failed to load configurations")
	}

	return c.JSON(list)
}

// Get returns one of the caller's configurations.
func (s *Service) Get(c *fiber.Ctx) error {
	cfg, ok, err := s.own(c)
	if !ok {
		return err
	}

	return c.JSON(cfg)
}

// Delete removes one of the caller's configurations.
func (s *Service) Delete(c *fiber.Ctx) error {
	cfg, ok, err := s.own(c)
	if !ok {
		return err
	}

	return s.remove(c, cfg)
}

// ListForUser returns the configurations of a user the caller manages.
func (s *Service) ListForUser(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if ok, err := s.manages(c, userID); !ok {
		return err
	}

	list, err := savedconfig.ListByUser(s.db, userID, c.Query("modelName"))
	if err != nil {
		return handler.Internal(c, err, "Failed to load configurations")
	}

	return c.JSON(list)
}

// AdminDelete removes a configuration of a user the caller manages.
func (s *Service) AdminDelete(c *fiber.Ctx) error {
	cfg, err := savedconfig.Get(s.db, c.Params("id"))
	if errors.Is(err, savedconfig.ErrNotFound) {
		return handler.Error(c, fiber.StatusNotFound, msgNotFound)
	}

	if err != nil {
		return handler.Internal(c, err, "Failed to load configuration")
	}

	if ok, err := s.manages(c, cfg.UserID); !ok {
		return err
	}

	return s.remove(c, cfg)
}

func (s *Service) remove(c *fiber.Ctx, cfg *models.SavedConfig) error {
	if err := savedconfig.Delete(s.db, cfg.ID); err != nil {
		return handler.Internal(c, err, "Failed to delete configuration")
	}

	handler.Record(c, s.db, ActionConfigDeleted, cfg.ModelName, map[string]any{
		"configId": cfg.ID,
		"ownerId":  cfg.UserID,
	})

	return c.JSON(fiber.Map{"message": "Configuration deleted"})
}

// own loads the configuration named by the id parameter if the caller owns
// it. Configurations of others are reported as missing.
func (s *Service) own(c *fiber.Ctx) (*models.SavedConfig, bool, error) {
	cfg, err := savedconfig.Get(s.db, c.Params("id"))
	if errors.Is(err, savedconfig.ErrNotFound) || (err == nil && cfg.UserID != auth.UserFromContext(c).ID) {
		return nil, false, handler.Error(c, fiber.StatusNotFound, msgNotFound)
	}

	if err != nil {
		return nil, false, handler.Internal(c, err, "Failed to load configuration")
	}

	return cfg, true, nil
}

// manages reports whether the caller may see the configurations of userID:
// their own, those of users below them and those of deleted users.
func (s *Service) manages(c *fiber.Ctx, userID string) (bool, error) {
	actor := auth.UserFromContext(c)
	if userID == actor.ID {
		return true, nil
	}

	target, err := s.users.GetUserByID(userID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return true, nil
	}

	if err != nil {
		return false, handler.Internal(c, err, "Failed to load user")
	}

	if !permission.CanManage(actor.Role, target.Role) {
		return false, handler.Error(c, fiber.StatusForbidden, permission.ErrInsufficientAuthority.Error())
	}

	return true, nil
}
