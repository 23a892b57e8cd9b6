package model

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	modelctl "github.com/configurator-admin/configurator-admin/internal/db/controller/model"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/handlertest"
)

func setup(t *testing.T) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t)
	s := &Service{}
	s.Init(env.App, env.Deps)

	return env
}

func upload(t *testing.T, env *handlertest.Env, token, filename string, fields map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer

	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile(formFieldBase, filename)
	require.NoError(t, err)

	_, err = part.Write([]byte("glTF"))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, Path+"/upload", &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestCreate(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "mgr@example.com", permission.RoleManager)
	_, empToken := env.User(t, "emp@example.com", permission.RoleEmployee)
	_, amToken := env.User(t, "am@example.com", permission.RoleAssistantManager)

	body := map[string]any{
		"name":    "chair",
		"file":    "/models/chair.glb",
		"section": "Living",
		"config":  map[string]any{"uiWidgets": []any{map[string]any{"type": "textureWidget"}}},
	}

	var out models.Model

	resp := env.Do(t, http.MethodPost, Path, token, body, &out)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "chair", out.DisplayName)

	stored, err := modelctl.Get(env.Deps.DB, "chair")
	require.NoError(t, err)

	cfg, err := stored.BaseConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Slice("uiWidgets"), 1)

	resp = env.Do(t, http.MethodPost, Path, token, body, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.Do(t, http.MethodPost, Path, token, map[string]any{"file": "x.glb"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.Do(t, http.MethodPost, Path, empToken, body, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// assistant managers may edit models but not add them
	resp = env.Do(t, http.MethodPost, Path, amToken, map[string]any{"name": "stool"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = upload(t, env, amToken, "stool.glb", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpload(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "mgr@example.com", permission.RoleManager)

	resp := upload(t, env, token, "../Kitchen Sink.GLB", map[string]string{"section": "Kitchen"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	m, err := modelctl.Get(env.Deps.DB, "Kitchen Sink")
	require.NoError(t, err)
	assert.Equal(t, "glb", m.Type)
	assert.True(t, strings.HasPrefix(m.File, AssetPrefix))
	assert.True(t, strings.HasSuffix(m.File, "-Kitchen_Sink.GLB"))
	assert.Equal(t, m.File, m.Assets["base"])

	path := filepath.Join(env.Deps.Cfg.Models.UploadDir, filepath.Base(m.File))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "glTF", string(data))

	resp = env.Do(t, http.MethodDelete, Path+"/"+m.ID, token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = modelctl.Get(env.Deps.DB, m.ID)
	assert.ErrorIs(t, err, modelctl.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "mgr@example.com", permission.RoleManager)

	require.NoError(t, modelctl.Create(env.Deps.DB, &models.Model{Name: "chair"}))
	sink := &models.Model{Name: "sink"}
	require.NoError(t, modelctl.Create(env.Deps.DB, sink))

	var out models.Model

	resp := env.Do(t, http.MethodPut, Path+"/"+sink.ID, token,
		map[string]any{"name": "sink", "displayName": "Sink", "configUrl": "/configs/sink.json"}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Sink", out.DisplayName)
	assert.Equal(t, "/configs/sink.json", out.ConfigURL)

	resp = env.Do(t, http.MethodPut, Path+"/"+sink.ID, token, map[string]any{"name": "chair"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.Do(t, http.MethodPut, Path+"/missing", token, map[string]any{"name": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteNeedsDeleteRight(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "am@example.com", permission.RoleAssistantManager)

	m := &models.Model{Name: "chair"}
	require.NoError(t, modelctl.Create(env.Deps.DB, m))

	resp := env.Do(t, http.MethodDelete, Path+"/"+m.ID, token, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEmbedToken(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "mgr@example.com", permission.RoleManager)

	m := &models.Model{Name: "chair"}
	require.NoError(t, modelctl.Create(env.Deps.DB, m))

	var out struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}

	resp := env.Do(t, http.MethodPost, Path+"/"+m.ID+"/embed-token", token, map[string]any{"ttlHours": 2}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(out.URL, "https://api.example.com/api/embed/resolve?token="))

	claims, err := env.Deps.Auth.Parse(out.Token, auth.AudienceEmbed)
	require.NoError(t, err)
	assert.Equal(t, m.ID, claims.Subject)

	// embed tokens are not API tokens
	_, err = env.Deps.Auth.Parse(out.Token, auth.AudienceAPI)
	assert.Error(t, err)
}
