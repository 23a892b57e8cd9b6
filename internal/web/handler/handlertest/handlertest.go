// Package handlertest builds the database, auth service and request helpers
// the handler tests share.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/config"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/db/store"
	"github.com/configurator-admin/configurator-admin/internal/events"
	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

// Secret signs test tokens.
const Secret = "test-secret-test-secret-test-secret"

// Env is a ready to use handler environment backed by in-memory SQLite.
type Env struct {
	Deps *handler.Deps
	App  *fiber.App
}

// New migrates a fresh database and returns an environment with an empty app.
func New(t *testing.T) *Env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every connection to :memory: is a new database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Model{},
		&models.ActivityLog{},
		&models.SavedConfig{},
		&models.Setting{},
	))

	revocations, err := store.New(db, 0)
	require.NoError(t, err)

	cfg := &config.Config{
		Title: "test",
		Webserver: config.Webserver{
			URL:       "https://api.example.com",
			JWTSecret: Secret,
			Session:   config.Session{ExpiryTime: time.Hour},
		},
		Models: config.Models{UploadDir: t.TempDir(), ConfigFetchTimeout: time.Second},
	}

	authService, err := auth.NewService(db, auth.Options{
		Secret:      Secret,
		TTL:         time.Hour,
		Issuer:      cfg.Title,
		Revocations: revocations,
	})
	require.NoError(t, err)

	return &Env{
		Deps: &handler.Deps{
			Cfg:       cfg,
			DB:        db,
			Auth:      authService,
			Resolver:  modelconfig.NewResolver(modelconfig.FetcherConfig{Origin: cfg.Webserver.URL, Timeout: time.Second}),
			Events:    events.NewBroker(0),
			Validator: validator.New(),
			Storage:   revocations,
		},
		App: fiber.New(),
	}
}

// User creates a user with the role defaults and returns it with a token.
func (e *Env) User(t *testing.T, email string, role permission.Role) (*models.User, string) {
	t.Helper()

	u, err := e.Deps.Auth.Users().CreateUser(auth.NewUser{
		Name:     email,
		Email:    email,
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)

	token, _, err := e.Deps.Auth.Issue(u)
	require.NoError(t, err)

	return u, token
}

// Do sends a JSON request and decodes a JSON response body into out when out is not nil.
func (e *Env) Do(t *testing.T, method, target, token string, body, out any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	if out != nil {
		defer resp.Body.Close()
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp
}
