package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/db/store"
	"github.com/configurator-admin/configurator-admin/internal/permission"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setup(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	revocations, err := store.New(db, 0)
	require.NoError(t, err)

	svc, err := NewService(db, Options{Secret: testSecret, TTL: time.Hour, Issuer: "test", Revocations: revocations})
	require.NoError(t, err)

	return svc, db
}

func createUser(t *testing.T, svc *Service, email string, role permission.Role) *models.User {
	t.Helper()

	u, err := svc.Users().CreateUser(NewUser{Name: "Test", Email: email, Password: "s3cret-pass", Role: role})
	require.NoError(t, err)

	return u
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(nil, Options{})
	require.ErrorIs(t, err, ErrSecretEmpty)
}

func TestLogin(t *testing.T) {
	svc, _ := setup(t)
	created := createUser(t, svc, "Ann@Example.com ", permission.RoleManager)
	assert.Equal(t, "ann@example.com", created.Email)

	user, token, err := svc.Login("ANN@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login("ann@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "s3cret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUser(t *testing.T) {
	svc, _ := setup(t)

	u := createUser(t, svc, "a@example.com", permission.RoleEmployee)
	assert.Equal(t, permission.Defaults(permission.RoleEmployee), u.Permissions)

	_, err := svc.Users().CreateUser(NewUser{Email: "A@example.com", Password: "x", Role: permission.RoleEmployee})
	require.ErrorIs(t, err, ErrEmailExists)

	perms := permission.New()
	perms.Flags[permission.UserManageEdit] = true

	custom, err := svc.Users().CreateUser(NewUser{
		Email:          "c@example.com",
		Password:       "x",
		Role:           permission.RoleCustom,
		CustomRoleName: " Designer ",
		Permissions:    &perms,
	})
	require.NoError(t, err)
	assert.Equal(t, "Designer", custom.CustomRoleName)
	assert.True(t, custom.Permissions.Get(permission.UserManagement), "umbrella enabled")
	assert.False(t, custom.Permissions.Get(permission.SaveConfig), "missing keys filled")

	loaded, err := svc.Users().GetUserByID(custom.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Permissions.Get(permission.UserManageEdit))
}

func TestUpdateAccess(t *testing.T) {
	svc, _ := setup(t)
	u := createUser(t, svc, "a@example.com", permission.RoleEmployee)

	perms := permission.Defaults(permission.RoleManager)
	updated, err := svc.Users().UpdateAccess(u.ID, permission.RoleManager, "ignored", perms)
	require.NoError(t, err)
	assert.Equal(t, permission.RoleManager, updated.Role)
	assert.Empty(t, updated.CustomRoleName)

	_, customized := updated.Effective()
	assert.False(t, customized)

	_, err = svc.Users().UpdateAccess("missing", permission.RoleManager, "", perms)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestPasswords(t *testing.T) {
	svc, _ := setup(t)
	u := createUser(t, svc, "a@example.com", permission.RoleEmployee)

	require.ErrorIs(t, svc.Users().ChangePassword(u.ID, "wrong", "new-pass"), ErrInvalidOldPassword)
	require.NoError(t, svc.Users().ChangePassword(u.ID, "s3cret-pass", "new-pass"))

	_, _, err := svc.Login("a@example.com", "new-pass")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Users().ResetPassword("missing", "x"), ErrUserNotFound)
}

func TestTokens(t *testing.T) {
	svc, _ := setup(t)
	u := createUser(t, svc, "a@example.com", permission.RoleAdmin)

	token, claims, err := svc.Issue(u)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "admin", claims.Role)

	got, _, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	t.Run("wrong audience", func(t *testing.T) {
		_, err := svc.Parse(token, AudienceEmbed)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewService(nil, Options{Secret: "another-secret-another-secret-xx", Issuer: "test"})
		require.NoError(t, err)

		_, err = other.Parse(token, AudienceAPI)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		later := *svc
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := later.Parse(token, AudienceAPI)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Parse("", AudienceAPI)
		require.ErrorIs(t, err, ErrTokenMissing)
		assert.True(t, IsInvalid(err))
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, svc.Revoke(claims))

		_, _, err := svc.Authenticate(token)
		require.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestAuthenticateDeletedUser(t *testing.T) {
	svc, _ := setup(t)
	u := createUser(t, svc, "a@example.com", permission.RoleAdmin)

	token, _, err := svc.Issue(u)
	require.NoError(t, err)
	require.NoError(t, svc.Users().DeleteUser(u.ID))

	_, _, err = svc.Authenticate(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestEmbedToken(t *testing.T) {
	svc, _ := setup(t)

	token, _, err := svc.IssueEmbed("model-1", time.Hour)
	require.NoError(t, err)

	claims, err := svc.Parse(token, AudienceEmbed)
	require.NoError(t, err)
	assert.Equal(t, "model-1", claims.Subject)

	_, err = svc.Parse(token, AudienceAPI)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordResetToken(t *testing.T) {
	svc, _ := setup(t)

	token, claims, err := svc.IssuePasswordReset("user-1", time.Hour)
	require.NoError(t, err)

	parsed, err := svc.Parse(token, AudiencePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.Subject)

	_, err = svc.Parse(token, AudienceAPI)
	require.ErrorIs(t, err, ErrTokenInvalid)

	require.NoError(t, svc.Revoke(claims))

	_, err = svc.Parse(token, AudiencePasswordReset)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestMiddleware(t *testing.T) {
	svc, _ := setup(t)
	employee := createUser(t, svc, "e@example.com", permission.RoleEmployee)
	manager := createUser(t, svc, "m@example.com", permission.RoleManager)

	app := fiber.New()
	app.Get("/models",
		RequireAuthenticated(svc),
		RequirePermission(permission.ModelUpload),
		func(c *fiber.Ctx) error { return c.SendString(UserFromContext(c).Email) },
	)
	app.Get("/edit",
		RequireAuthenticated(svc),
		RequireAnyPermission(permission.CanEdit),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)

	employeeToken, _, err := svc.Issue(employee)
	require.NoError(t, err)
	managerToken, _, err := svc.Issue(manager)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"no token", "/models", "", fiber.StatusUnauthorized},
		{"garbage token", "/models", "Bearer nope", fiber.StatusUnauthorized},
		{"forbidden", "/models", "Bearer " + employeeToken, fiber.StatusForbidden},
		{"allowed", "/models", "Bearer " + managerToken, fiber.StatusOK},
		{"query token", "/models?token=" + managerToken, "", fiber.StatusOK},
		{"aggregate key", "/edit", "Bearer " + employeeToken, fiber.StatusNoContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
