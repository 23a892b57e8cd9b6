// Package model serves the model catalogue to the configurator: merged
// configurations, visible widgets and presets.
package model

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/db/controller/activity"
	modelctl "github.com/configurator-admin/configurator-admin/internal/db/controller/model"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/preset"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
	"github.com/configurator-admin/configurator-admin/internal/widget"
)

const (
	// Path is the base path of the model endpoints.
	Path = handler.RootPath + "/models"

	// ActionPresetApplied is recorded when a preset is applied.
	ActionPresetApplied = "PRESET_APPLIED"
)

// Service is the model handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the model handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() || deps.Resolver == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.deps = deps

	group := app.Group(Path, auth.RequireAuthenticated(deps.Auth))

	group.Get("/", s.List)
	group.Get("/:id/config", s.Config)
	group.Get("/:id/widgets", s.Widgets)
	group.Get("/:id/presets", s.Presets)
	group.Post("/:id/presets/:presetId/apply",
		auth.RequirePermission(permission.CanEdit),
		s.ApplyPreset,
	)
}

// List returns the model records, optionally restricted to ?section=.
func (s *Service) List(c *fiber.Ctx) error {
	list, err := modelctl.List(s.deps.DB, c.Query("section"))
	if err != nil {
		return handler.Internal(c, err, "Failed to load models")
	}

	return c.JSON(list)
}

// Config returns the merged configuration of a model.
func (s *Service) Config(c *fiber.Ctx) error {
	m, cfg, ok, err := s.load(c)
	if !ok {
		return err
	}

	handler.Record(c, s.deps.DB, activity.ActionModelLoaded, m.Name, nil)

	return c.JSON(cfg)
}

// Widgets returns the widgets of a model the caller may see.
func (s *Service) Widgets(c *fiber.Ctx) error {
	_, cfg, ok, err := s.load(c)
	if !ok {
		return err
	}

	perms := auth.PermissionsFromContext(c)

	return c.JSON(widget.Evaluate(cfg, &perms))
}

// Presets returns the presets of a model the caller may use.
func (s *Service) Presets(c *fiber.Ctx) error {
	_, cfg, ok, err := s.load(c)
	if !ok {
		return err
	}

	return c.JSON(preset.Accessible(preset.Parse(cfg), auth.PermissionsFromContext(c)))
}

// ApplyPreset runs a preset against a recorded scene and returns the
// resulting state. A failing action stops the preset; the actions before it
// are reported as applied.
func (s *Service) ApplyPreset(c *fiber.Ctx) error {
	m, cfg, ok, err := s.load(c)
	if !ok {
		return err
	}

	p, found := preset.Find(preset.Parse(cfg), c.Params("presetId"))
	if !found {
		return handler.Error(c, fiber.StatusNotFound, "Preset not found")
	}

	if !auth.PermissionsFromContext(c).PresetAllowed(p.ID) {
		return handler.Error(c, fiber.StatusForbidden, "Preset not accessible")
	}

	rec := preset.NewRecorder()
	applied, err := preset.Apply(c.UserContext(), p, rec)

	handler.Record(c, s.deps.DB, ActionPresetApplied, m.Name, map[string]any{
		"presetId": p.ID,
		"label":    p.Label,
		"applied":  applied,
	})

	var applyErr *preset.ApplyError
	if errors.As(err, &applyErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   applyErr.Error(),
			"index":   applyErr.Index,
			"applied": applied,
			"state":   rec.State(),
		})
	}

	if err != nil {
		return handler.Internal(c, err, "Failed to apply preset")
	}

	return c.JSON(fiber.Map{
		"preset":  p.ID,
		"applied": applied,
		"state":   rec.State(),
	})
}

func (s *Service) load(c *fiber.Ctx) (*models.Model, modelconfig.Document, bool, error) {
	m, ok, err := handler.LoadModel(c, s.deps)
	if !ok {
		return nil, nil, false, err
	}

	cfg, err := handler.ModelConfig(c, s.deps, m)
	if err != nil {
		return nil, nil, false, handler.Internal(c, err, "Stored model configuration is invalid")
	}

	return m, cfg, true, nil
}
