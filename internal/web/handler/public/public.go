// Package public serves models to anonymous viewers, either by id or through
// an embed token.
package public

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	modelctl "github.com/configurator-admin/configurator-admin/internal/db/controller/model"
	"github.com/configurator-admin/configurator-admin/internal/db/controller/viewer"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

const (
	// Path is the public model endpoint prefix.
	Path = handler.RootPath + "/public/model"
	// EmbedPath resolves embed tokens.
	EmbedPath = handler.RootPath + "/embed/resolve"
)

// Model is a model as the public viewer receives it.
type Model struct {
	ID          string               `json:"_id"`
	Name        string               `json:"name"`
	DisplayName string               `json:"displayName"`
	Config      modelconfig.Document `json:"config"`
	Permissions permission.Set       `json:"permissions"`
}

// Service is the public handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the public handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the routes. Neither route requires an account.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() || deps.Resolver == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.deps = deps

	app.Get(Path+"/:id", s.Get)
	app.Get(EmbedPath, s.Resolve)
}

// Get returns a model with the public viewer permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	m, ok, err := handler.LoadModel(c, s.deps)
	if !ok {
		return err
	}

	view, err := s.view(c, m)
	if err != nil {
		return handler.Internal(c, err, "Failed to load model")
	}

	return c.JSON(fiber.Map{"model": view})
}

// Resolve exchanges an embed token for its model.
func (s *Service) Resolve(c *fiber.Ctx) error {
	claims, err := s.deps.Auth.Parse(c.Query("token"), auth.AudienceEmbed)
	if err != nil {
		if !auth.IsInvalid(err) {
			log.Error().Err(err).Msg("failed to check embed token")
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid or expired embed link",
		})
	}

	m, err := modelctl.Get(s.deps.DB, claims.Subject)
	if errors.Is(err, modelctl.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Model no longer exists",
		})
	}

	if err != nil {
		return handler.Internal(c, err, "Failed to load model")
	}

	view, err := s.view(c, m)
	if err != nil {
		return handler.Internal(c, err, "Failed to load model")
	}

	return c.JSON(fiber.Map{"success": true, "model": view})
}

func (s *Service) view(c *fiber.Ctx, m *models.Model) (*Model, error) {
	settings := &viewer.Settings{}
	if err := settings.Load(s.deps.DB); err != nil {
		return nil, err
	}

	cfg, err := handler.ModelConfig(c, s.deps, m)
	if err != nil {
		return nil, err
	}

	return &Model{
		ID:          m.ID,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		Config:      cfg,
		Permissions: settings.Permissions,
	}, nil
}
