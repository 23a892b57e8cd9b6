// Package logout revokes the bearer token of the caller.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

const (
	// Path is the logout endpoint.
	Path = handler.RootPath + "/auth/logout"

	// ActionLogout is recorded on logout.
	ActionLogout = "LOGOUT"
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	db   *gorm.DB
	auth *auth.Service
}

// Handler is the logout handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the route.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.db = deps.DB
	s.auth = deps.Auth

	app.Post(Path, auth.RequireAuthenticated(s.auth), s.Post)
}

// Post revokes the token the request was made with.
func (s *Service) Post(c *fiber.Ctx) error {
	if err := s.auth.Revoke(auth.ClaimsFromContext(c)); err != nil {
		return handler.Internal(c, err, "Failed to log out")
	}

	handler.Record(c, s.db, ActionLogout, "", nil)

	return c.JSON(fiber.Map{"message": "Logged out"})
}
