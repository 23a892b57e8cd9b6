// Package handler holds what the API handlers share: dependencies, error
// bodies and activity recording.
package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/config"
	"github.com/configurator-admin/configurator-admin/internal/db/controller/activity"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/events"
	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
)

const (
	// RootPath is the prefix of every API route.
	RootPath = "/api"

	// ErrNilDepsFatalLogMsg is used if app or a required dependency is nil.
	ErrNilDepsFatalLogMsg = "app, cfg, db or auth service is nil"
)

// Deps bundles the dependencies handlers are initialised with.
type Deps struct {
	Cfg       *config.Config
	DB        *gorm.DB
	Auth      *auth.Service
	Resolver  *modelconfig.Resolver
	Events    *events.Broker
	Validator *validator.Validate
	// Storage backs rate limiting. Nil means in-memory.
	Storage fiber.Storage
}

// Valid reports whether the dependencies every handler needs are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.DB != nil && d.Auth != nil
}

// Service is the interface for an API handler group.
type Service interface {
	Init(app *fiber.App, deps *Deps)
}

// Error writes a JSON error body.
func Error(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// Internal logs err and writes a generic 500 body.
func Internal(c *fiber.Ctx, err error, msg string) error {
	log.Error().Err(err).Str("path", c.Path()).Msg(msg)

	return Error(c, fiber.StatusInternalServerError, msg)
}

// Validate checks v with the validator and writes a 400 body listing the
// failing fields. It returns false when the response has been written.
func Validate(c *fiber.Ctx, v *validator.Validate, payload any) (bool, error) {
	err := v.Struct(payload)
	if err == nil {
		return true, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, Error(c, fiber.StatusBadRequest, err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe.Field())] = message(fe)
	}

	return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validation failed",
		"fields": fields,
	})
}

func jsonName(field string) string {
	if field == "" {
		return field
	}

	return strings.ToLower(field[:1]) + field[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// Record writes an activity log entry for the authenticated user of c.
// Failures are logged and never fail the request.
func Record(c *fiber.Ctx, db *gorm.DB, action, modelName string, details map[string]any) {
	RecordAs(c, db, auth.UserFromContext(c), action, modelName, details)
}

// RecordAs is Record for an explicit user, used before authentication is
// stored on the context.
func RecordAs(c *fiber.Ctx, db *gorm.DB, user *models.User, action, modelName string, details map[string]any) {
	entry := &models.ActivityLog{
		Action:    action,
		ModelName: modelName,
		Details:   details,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}

	if user != nil {
		entry.UserID = user.ID
		entry.UserName = user.Name
		entry.UserEmail = user.Email
	}

	if err := activity.Record(db, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}
