// Package activity records client activity and lists, summarises and clears
// the activity log.
package activity

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	controller "github.com/configurator-admin/configurator-admin/internal/db/controller/activity"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

// Path is the base path of the activity endpoints.
const Path = handler.RootPath + "/activity"

const dateOnly = "2006-01-02"

// LogRequest is a client-reported activity.
type LogRequest struct {
	Action    string         `json:"action"    validate:"required,max=100"`
	ModelName string         `json:"modelName" validate:"max=100"`
	Details   map[string]any `json:"details"`
}

// Service is the activity handler service.
type Service struct {
	handler.Service
	db        *gorm.DB
	users     *auth.LocalProvider
	validator *validator.Validate
	now       func() time.Time
}

// Handler is the activity handler.
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
	s.now = time.Now

	group := app.Group(Path, auth.RequireAuthenticated(deps.Auth))

	group.Post("/log", s.Log)
	group.Get("/logs", s.List)
	group.Get("/stats", auth.RequirePermission(permission.UserManagement), s.Stats)
	group.Delete("/clear/:userId", auth.RequirePermission(permission.UserManageDelete), s.Clear)
}

// Log stores an activity reported by the client.
func (s *Service) Log(c *fiber.Ctx) error {
	var in LogRequest
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	user := auth.UserFromContext(c)
	entry := &models.ActivityLog{
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		Action:    in.Action,
		ModelName: in.ModelName,
		Details:   in.Details,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}

	if err := controller.Record(s.db, entry); err != nil {
		return handler.Internal(c, err, "Failed to record activity")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"log": entry})
}

// List returns a page of the activity log. Users without user management
// only see their own entries.
func (s *Service) List(c *fiber.Ctx) error {
	f := controller.Filter{
		Action:    c.Query("action"),
		UserID:    c.Query("userId"),
		ModelName: c.Query("modelName"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", controller.DefaultLimit),
	}

	var err error

	if f.Start, err = parseDate(c.Query("startDate"), false); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid startDate")
	}

	if f.End, err = parseDate(c.Query("endDate"), true); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid endDate")
	}

	if !auth.PermissionsFromContext(c).Has(permission.UserManagement) {
		f.UserID = auth.UserFromContext(c).ID
	}

	page, err := controller.List(s.db, f)
	if err != nil {
		return handler.Internal(c, err, "Failed to load activity logs")
	}

	return c.JSON(page)
}

// Stats returns counters over the whole activity log.
func (s *Service) Stats(c *fiber.Ctx) error {
	st, err := controller.Summarize(s.db, s.now())
	if err != nil {
		return handler.Internal(c, err, "Failed to compute activity stats")
	}

	return c.JSON(st)
}

// Clear deletes the activity of a user. Callers may clear their own log or
// that of users below them; logs of deleted users can always be cleared.
func (s *Service) Clear(c *fiber.Ctx) error {
	actor := auth.UserFromContext(c)
	targetID := c.Params("userId")

	if targetID != actor.ID {
		target, err := s.users.GetUserByID(targetID)

		switch {
		case errors.Is(err, auth.ErrUserNotFound):
		case err != nil:
			return handler.Internal(c, err, "Failed to load user")
		case !permission.CanManage(actor.Role, target.Role):
			return handler.Error(c, fiber.StatusForbidden, permission.ErrInsufficientAuthority.Error())
		}
	}

	deleted, err := controller.Clear(s.db, targetID)
	if err != nil {
		return handler.Internal(c, err, "Failed to clear activity logs")
	}

	return c.JSON(fiber.Map{"deletedCount": deleted})
}

// parseDate accepts RFC 3339 timestamps and plain dates. A plain end date
// covers the whole day.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return time.Time{}, err
	}

	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return t, nil
}
