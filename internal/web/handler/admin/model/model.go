// Package model provides the model administration endpoints: create, upload,
// update, delete and embed token issuing.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	modelctl "github.com/configurator-admin/configurator-admin/internal/db/controller/model"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

const (
	// Path is the base path of model administration.
	Path = handler.RootPath + "/admin/models"

	// AssetPrefix is the URL prefix uploaded files are served under.
	AssetPrefix = "/models/"

	// Activity actions recorded by this handler.
	ActionModelCreated     = "MODEL_CREATED"
	ActionModelUpdated     = "MODEL_UPDATED"
	ActionModelDeleted     = "MODEL_DELETED"
	ActionEmbedTokenIssued = "EMBED_TOKEN_ISSUED"

	defaultEmbedTTL = 30 * 24 * time.Hour
	maxEmbedTTL     = 365 * 24 * time.Hour
	formFieldBase   = "base"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`) //nolint:gochecknoglobals

// Payload is the JSON body of a model create or update.
type Payload struct {
	Name        string         `json:"name"        validate:"required,max=100"`
	DisplayName string         `json:"displayName" validate:"max=255"`
	Type        string         `json:"type"        validate:"max=32"`
	Section     string         `json:"section"     validate:"max=100"`
	File        string         `json:"file"        validate:"max=512"`
	Assets      map[string]any `json:"assets"`
	ConfigURL   string         `json:"configUrl"   validate:"omitempty,max=512"`
	Config      map[string]any `json:"config"`
}

// EmbedRequest is the body of an embed token request.
type EmbedRequest struct {
	TTLHours int `json:"ttlHours" validate:"gte=0"`
}

// Service is the model administration handler service.
type Service struct {
	handler.Service
	deps      *handler.Deps
	validator *validator.Validate
}

// Handler is the model administration handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.deps = deps
	s.validator = deps.Validator

	group := app.Group(Path, auth.RequireAuthenticated(deps.Auth))

	group.Post("/", auth.RequirePermission(permission.ModelManageUpload), s.Create)
	group.Post("/upload", auth.RequirePermission(permission.ModelManageUpload), s.Upload)
	group.Put("/:id", auth.RequirePermission(permission.ModelManageEdit), s.Update)
	group.Delete("/:id", auth.RequirePermission(permission.ModelManageDelete), s.Delete)
	group.Post("/:id/embed-token", auth.RequirePermission(permission.ModelManageEdit), s.EmbedToken)
}

// Create stores a model described by a JSON body.
func (s *Service) Create(c *fiber.Ctx) error {
	var in Payload
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	m := &models.Model{CreatedBy: auth.UserFromContext(c).ID}
	if err := in.apply(m); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	return s.create(c, m)
}

// Upload stores the multipart "base" file in the upload directory and
// creates a model pointing at it.
func (s *Service) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile(formFieldBase)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Model file is required")
	}

	in := Payload{
		Name:        c.FormValue("name"),
		DisplayName: c.FormValue("displayName"),
		Type:        c.FormValue("type"),
		Section:     c.FormValue("section"),
		ConfigURL:   c.FormValue("configUrl"),
	}

	if in.Name == "" {
		in.Name = strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename))
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	if in.Type == "" {
		in.Type = strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safeFileName(file.Filename))

	dir := s.deps.Cfg.Models.UploadDir
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd
		return handler.Internal(c, err, "Failed to prepare upload directory")
	}

	if err := c.SaveFile(file, filepath.Join(dir, name)); err != nil {
		return handler.Internal(c, err, "Failed to store model file")
	}

	in.File = AssetPrefix + name
	in.Assets = map[string]any{"base": in.File}

	m := &models.Model{CreatedBy: auth.UserFromContext(c).ID}
	if err := in.apply(m); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	return s.create(c, m)
}

// Update replaces the fields of a model.
func (s *Service) Update(c *fiber.Ctx) error {
	m, ok, err := handler.LoadModel(c, s.deps)
	if !ok {
		return err
	}

	var in Payload
	if err := c.BodyParser(&in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	oldURL := m.ConfigURL

	if err := in.apply(m); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	err = modelctl.Update(s.deps.DB, m)
	if errors.Is(err, modelctl.ErrNameTaken) {
		return handler.Error(c, fiber.StatusConflict, err.Error())
	}

	if err != nil {
		return handler.Internal(c, err, "Failed to update model")
	}

	s.invalidate(oldURL, m.ConfigURL)
	handler.Record(c, s.deps.DB, ActionModelUpdated, m.Name, nil)

	return c.JSON(m)
}

// Delete removes a model and, when it lives in the upload directory, its file.
func (s *Service) Delete(c *fiber.Ctx) error {
	m, ok, err := handler.LoadModel(c, s.deps)
	if !ok {
		return err
	}

	if err := modelctl.Delete(s.deps.DB, m.ID); err != nil {
		return handler.Internal(c, err, "Failed to delete model")
	}

	if strings.HasPrefix(m.File, AssetPrefix) {
		path := filepath.Join(s.deps.Cfg.Models.UploadDir, filepath.Base(m.File))
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("file", path).Msg("failed to remove model file")
		}
	}

	s.invalidate(m.ConfigURL, "")
	handler.Record(c, s.deps.DB, ActionModelDeleted, m.Name, nil)

	return c.JSON(fiber.Map{"message": "Model deleted"})
}

// EmbedToken issues a token that opens the model in the public viewer
// without an account.
func (s *Service) EmbedToken(c *fiber.Ctx) error {
	m, ok, err := handler.LoadModel(c, s.deps)
	if !ok {
		return err
	}

	var in EmbedRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	if ok, err := handler.Validate(c, s.validator, &in); !ok {
		return err
	}

	ttl := defaultEmbedTTL
	if in.TTLHours > 0 {
		ttl = min(time.Duration(in.TTLHours)*time.Hour, maxEmbedTTL)
	}

	token, claims, err := s.deps.Auth.IssueEmbed(m.ID, ttl)
	if err != nil {
		return handler.Internal(c, err, "Failed to issue embed token")
	}

	handler.Record(c, s.deps.DB, ActionEmbedTokenIssued, m.Name, map[string]any{
		"expiresAt": claims.ExpiresAt.Time,
	})

	return c.JSON(fiber.Map{
		"token":     token,
		"expiresAt": claims.ExpiresAt.Time,
		"url":       strings.TrimSuffix(s.deps.Cfg.Webserver.URL, "/") + handler.RootPath + "/embed/resolve?token=" + token,
	})
}

func (s *Service) create(c *fiber.Ctx, m *models.Model) error {
	err := modelctl.Create(s.deps.DB, m)
	if errors.Is(err, modelctl.ErrNameTaken) {
		return handler.Error(c, fiber.StatusConflict, err.Error())
	}

	if err != nil {
		return handler.Internal(c, err, "Failed to create model")
	}

	handler.Record(c, s.deps.DB, ActionModelCreated, m.Name, map[string]any{"file": m.File})

	return c.Status(fiber.StatusCreated).JSON(m)
}

func (s *Service) invalidate(urls ...string) {
	if s.deps.Resolver == nil || s.deps.Resolver.Fetcher == nil {
		return
	}

	for _, u := range urls {
		if u != "" {
			s.deps.Resolver.Fetcher.Invalidate(u)
		}
	}
}

// apply copies the payload onto m. The stored config must be a JSON object.
func (p *Payload) apply(m *models.Model) error {
	m.Name = p.Name
	m.DisplayName = p.DisplayName
	m.Type = p.Type
	m.Section = p.Section
	m.File = p.File
	m.ConfigURL = strings.TrimSpace(p.ConfigURL)
	m.Assets = datatypes.JSONMap(p.Assets)

	if m.DisplayName == "" {
		m.DisplayName = m.Name
	}

	if p.Config == nil {
		m.Config = nil
		return nil
	}

	raw, err := modelconfig.Document(p.Config).Bytes()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	m.Config = datatypes.JSON(raw)

	return nil
}

func safeFileName(name string) string {
	base := unsafeFileChars.ReplaceAllString(filepath.Base(name), "_")
	if base == "" || base == "." || base == "_" {
		return "model"
	}

	return base
}
