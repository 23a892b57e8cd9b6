package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/permission"
)

// Keys of the values RequireAuthenticated stores in fiber.Locals.
const (
	LocalsUser        = "user"
	LocalsClaims      = "claims"
	LocalsPermissions = "permissions"
	LocalsUserID      = "userId"
)

// TokenFromRequest returns the bearer token of the request. EventSource
// clients cannot set headers, so the token query parameter is accepted too.
func TokenFromRequest(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return c.Query("token")
}

// RequireAuthenticated validates the bearer token, loads the user and stores
// the user, claims and effective permissions in fiber.Locals.
func RequireAuthenticated(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := authService.Authenticate(TokenFromRequest(c))
		if err != nil {
			if !IsInvalid(err) {
				log.Error().Err(err).Msg("failed to authenticate request")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
			}

			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected token")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		perms, _ := user.Effective()

		c.Locals(LocalsUser, user)
		c.Locals(LocalsClaims, claims)
		c.Locals(LocalsPermissions, perms)
		c.Locals(LocalsUserID, user.ID)

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires a specific permission.
// It must run after RequireAuthenticated.
func RequirePermission(key permission.Key) fiber.Handler {
	return RequireAnyPermission(key)
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(keys ...permission.Key) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := UserFromContext(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		perms := PermissionsFromContext(c)
		for _, k := range keys {
			if perms.Has(k) {
				return c.Next()
			}
		}

		log.Warn().Str("user_id", user.ID).Strs("permissions", keys).Msg("user lacks required permission")

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: You don't have permission to access this resource",
		})
	}
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalsUser).(*models.User)
	return user
}

// ClaimsFromContext returns the claims of the request token, or nil.
func ClaimsFromContext(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(LocalsClaims).(*Claims)
	return claims
}

// PermissionsFromContext returns the effective permissions of the
// authenticated user. Anonymous requests get an empty set.
func PermissionsFromContext(c *fiber.Ctx) permission.Set {
	perms, ok := c.Locals(LocalsPermissions).(permission.Set)
	if !ok {
		return permission.New()
	}

	return perms
}
