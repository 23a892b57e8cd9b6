// Package role lists the roles a caller may hand out.
package role

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

// Path is the roles endpoint.
const Path = handler.RootPath + "/roles"

// View describes an assignable role with its default permissions.
type View struct {
	Role        permission.Role `json:"role"`
	DisplayName string          `json:"displayName"`
	Level       int             `json:"level"`
	Defaults    permission.Set  `json:"defaults"`
}

// Service is the role handler service.
type Service struct {
	handler.Service
}

// Handler is the role handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the route.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	app.Get(Path, auth.RequireAuthenticated(deps.Auth), s.List)
}

// List returns the roles strictly below the caller's, lowest first.
func (s *Service) List(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	allowed := permission.AllowedRoles(user.Role)

	out := make([]View, 0, len(allowed))
	for _, r := range allowed {
		out = append(out, View{
			Role:        r,
			DisplayName: permission.DisplayName(r, ""),
			Level:       permission.Level(r),
			Defaults:    permission.Defaults(r),
		})
	}

	return c.JSON(fiber.Map{
		"current": user.Role,
		"roles":   out,
	})
}
