// Package login provides the login, token verification, password change and
// password reset endpoints.
package login

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

const (
	// Path is the base path of the auth endpoints.
	Path = handler.RootPath + "/auth"

	// ActionLogin is recorded on every successful login.
	ActionLogin = "LOGIN"
	// ActionPasswordResetRequested is recorded when a reset link is issued.
	ActionPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	// ActionPasswordReset is recorded when a reset link is used.
	ActionPasswordReset = "PASSWORD_RESET"

	// ResetPage is the client page reset links point to.
	ResetPage = "/reset-password"
	// ResetTTL is how long a reset link stays usable.
	ResetTTL = time.Hour

	defaultMaxAttempts = 10
	defaultWindow      = 15 * time.Minute
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordChange is the password change request body.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8"`
}

// ResetRequest asks for a reset link. An empty email means the caller.
type ResetRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// PasswordReset sets a new password with a reset token.
type PasswordReset struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	db        *gorm.DB
	auth      *auth.Service
	validator *validator.Validate
	origin    string
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the routes. Login attempts are rate limited per IP in the
// shared storage.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.db = deps.DB
	s.auth = deps.Auth
	s.validator = deps.Validator
	s.origin = strings.TrimSuffix(deps.Cfg.Webserver.URL, "/")

	rate := deps.Cfg.Webserver.LoginRate
	if rate.Max <= 0 {
		rate.Max = defaultMaxAttempts
	}

	if rate.Window <= 0 {
		rate.Window = defaultWindow
	}

	limit := limiter.New(limiter.Config{
		Max:        rate.Max,
		Expiration: rate.Window,
		Storage:    deps.Storage,
		LimitReached: func(c *fiber.Ctx) error {
			return handler.Error(c, fiber.StatusTooManyRequests, "Too many login attempts, try again later")
		},
	})

	app.Post(Path+"/login", limit, s.Login)
	app.Get(Path+"/verify", auth.RequireAuthenticated(s.auth), s.Verify)
	app.Post(Path+"/change-password", auth.RequireAuthenticated(s.auth), s.ChangePassword)
	app.Post(Path+"/request-password-reset", auth.RequireAuthenticated(s.auth), s.RequestPasswordReset)
	app.Post(Path+"/reset-password", limit, s.ResetPassword)
}

// Login checks the credentials and returns a token with the user.
func (s *Service) Login(c *fiber.Ctx) error {
	var in Credentials
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	user, token, err := s.auth.Login(in.Email, in.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Info().Str("email", in.Email).Msg("failed login")
		return handler.Error(c, fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	}

	if err != nil {
		return handler.Internal(c, err, ErrInternalServerError.Error())
	}

	handler.RecordAs(c, s.db, user, ActionLogin, "", nil)

	return c.JSON(fiber.Map{
		"token": token,
		"user":  handler.NewUserView(user),
	})
}

// Verify returns the current user with effective permissions. Clients poll it
// to pick up role and permission changes.
func (s *Service) Verify(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": handler.NewUserView(auth.UserFromContext(c))})
}

// ChangePassword changes the password of the current user.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	var in PasswordChange
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	user := auth.UserFromContext(c)

	err := s.auth.Users().ChangePassword(user.ID, in.CurrentPassword, in.NewPassword)
	if errors.Is(err, auth.ErrInvalidOldPassword) {
		return handler.Error(c, fiber.StatusBadRequest, "Current password is incorrect")
	}

	if err != nil {
		return handler.Internal(c, err, "Failed to change password")
	}

	return c.JSON(fiber.Map{"message": "Password changed"})
}

// RequestPasswordReset issues a reset link for the caller or, given the email
// of another account, for a user the caller may manage. There is no mailer, so
// the link is written to the log for an operator to pass on.
func (s *Service) RequestPasswordReset(c *fiber.Ctx) error {
	var in ResetRequest
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	actor := auth.UserFromContext(c)
	target := actor

	if in.Email != "" && !strings.EqualFold(strings.TrimSpace(in.Email), actor.Email) {
		if !auth.PermissionsFromContext(c).Has(permission.UserManageEdit) {
			return handler.Error(c, fiber.StatusForbidden, "Forbidden: You don't have permission to access this resource")
		}

		user, err := s.auth.Users().GetUserByEmail(in.Email)
		if errors.Is(err, auth.ErrUserNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "User not found")
		}

		if err != nil {
			return handler.Internal(c, err, "Failed to load user")
		}

		if err := permission.CheckManage(actor.ID, actor.Role, user.ID, user.Role); err != nil {
			return handler.Error(c, fiber.StatusForbidden, err.Error())
		}

		target = user
	}

	token, claims, err := s.auth.IssuePasswordReset(target.ID, ResetTTL)
	if err != nil {
		return handler.Internal(c, err, "Failed to issue reset link")
	}

	log.Info().
		Str("user_id", target.ID).
		Str("email", target.Email).
		Str("requested_by", actor.ID).
		Time("expires_at", claims.ExpiresAt.Time).
		Str("link", s.origin+ResetPage+"?token="+url.QueryEscape(token)).
		Msg("password reset link issued")

	handler.Record(c, s.db, ActionPasswordResetRequested, "", map[string]any{
		"userId": target.ID,
		"email":  target.Email,
	})

	return c.JSON(fiber.Map{
		"message":   "Password reset link sent",
		"expiresAt": claims.ExpiresAt.Time,
	})
}

// ResetPassword sets a new password with a reset token. A token works once.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	var in PasswordReset
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	claims, err := s.auth.Parse(in.Token, auth.AudiencePasswordReset)
	if err != nil {
		if !auth.IsInvalid(err) {
			return handler.Internal(c, err, "Failed to reset password")
		}

		log.Debug().Err(err).Msg("rejected reset token")

		return handler.Error(c, fiber.StatusBadRequest, ErrInvalidResetToken.Error())
	}

	user, err := s.auth.Users().GetUserByID(claims.Subject)
	if errors.Is(err, auth.ErrUserNotFound) {
		return handler.Error(c, fiber.StatusBadRequest, ErrInvalidResetToken.Error())
	}

	if err != nil {
		return handler.Internal(c, err, "Failed to reset password")
	}

	if err := s.auth.Revoke(claims); err != nil {
		return handler.Internal(c, err, "Failed to reset password")
	}

	if err := s.auth.Users().ResetPassword(user.ID, in.NewPassword); err != nil {
		return handler.Internal(c, err, "Failed to reset password")
	}

	handler.RecordAs(c, s.db, user, ActionPasswordReset, "", nil)

	return c.JSON(fiber.Map{"message": "Password reset successful"})
}
