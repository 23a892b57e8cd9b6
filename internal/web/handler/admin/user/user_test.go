package user

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configurator-admin/configurator-admin/internal/db/controller/savedconfig"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/events"
	"github.com/configurator-admin/configurator-admin/internal/permission"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/handlertest"
)

type userView struct {
	ID               string         `json:"_id"`
	Email            string         `json:"email"`
	Role             string         `json:"role"`
	CustomRoleName   string         `json:"customRoleName"`
	RoleDisplayName  string         `json:"roleDisplayName"`
	Permissions      map[string]any `json:"permissions"`
	IsCustomized     bool           `json:"isCustomized"`
	SavedConfigCount *int64         `json:"savedConfigCount"`
}

type userResponse struct {
	User              userView `json:"user"`
	GeneratedPassword string   `json:"generatedPassword"`
	Error             string   `json:"error"`
}

func setup(t *testing.T) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t)
	s := &Service{}
	s.Init(env.App, env.Deps)

	return env
}

func TestListOnlyLowerAuthority(t *testing.T) {
	env := setup(t)

	_, token := env.User(t, "admin@example.com", permission.RoleAdmin)
	emp, _ := env.User(t, "emp@example.com", permission.RoleEmployee)
	env.User(t, "boss@example.com", permission.RoleSuperAdmin)
	env.User(t, "peer@example.com", permission.RoleAdmin)

	require.NoError(t, savedconfig.Create(env.Deps.DB, &models.SavedConfig{UserID: emp.ID, ModelName: "chair", Name: "a"}))

	var out []userView

	resp := env.Do(t, http.MethodGet, Path, token, nil, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out, 1)
	assert.Equal(t, emp.ID, out[0].ID)
	assert.Equal(t, "Employee", out[0].RoleDisplayName)
	require.NotNil(t, out[0].SavedConfigCount)
	assert.Equal(t, int64(1), *out[0].SavedConfigCount)
}

func TestListRequiresUserManagement(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "emp@example.com", permission.RoleEmployee)

	resp := env.Do(t, http.MethodGet, Path, token, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.Do(t, http.MethodGet, Path, "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreate(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "admin@example.com", permission.RoleAdmin)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{
			name:   "employee",
			body:   map[string]any{"name": "Eve", "email": "eve@example.com", "password": "secret12", "role": "employee"},
			status: http.StatusCreated,
		},
		{
			name:   "duplicate email",
			body:   map[string]any{"name": "Eve", "email": "EVE@example.com", "password": "secret12", "role": "employee"},
			status: http.StatusConflict,
		},
		{
			name:   "role at own level",
			body:   map[string]any{"name": "Al", "email": "al@example.com", "password": "secret12", "role": "admin"},
			status: http.StatusForbidden,
		},
		{
			name:   "unknown role",
			body:   map[string]any{"name": "Al", "email": "al@example.com", "password": "secret12", "role": "janitor"},
			status: http.StatusBadRequest,
		},
		{
			name:   "custom without name",
			body:   map[string]any{"name": "Al", "email": "al@example.com", "password": "secret12", "role": "custom"},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.Do(t, http.MethodPost, Path, token, tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCreateValidation(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "admin@example.com", permission.RoleAdmin)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{
			name:  "one letter name",
			body:  map[string]any{"name": "A", "email": "a@example.com", "password": "secret12", "role": "employee"},
			field: "name",
		},
		{
			name:  "name of spaces around one letter",
			body:  map[string]any{"name": "  A  ", "email": "a@example.com", "password": "secret12", "role": "employee"},
			field: "name",
		},
		{
			name:  "seven character password",
			body:  map[string]any{"name": "Al", "email": "al@example.com", "password": "abcdefg", "role": "employee"},
			field: "password",
		},
		{
			name:  "invalid email",
			body:  map[string]any{"name": "Al", "email": "al", "password": "secret12", "role": "employee"},
			field: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}

			resp := env.Do(t, http.MethodPost, Path, token, tt.body, &out)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, out.Fields, tt.field)
		})
	}

	count, err := env.Deps.Auth.Users().Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "nothing written")
}

func TestCreateGeneratedPasswordAndCustomPermissions(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "admin@example.com", permission.RoleAdmin)

	var out userResponse

	resp := env.Do(t, http.MethodPost, Path, token, map[string]any{
		"name":             "Cara",
		"email":            "cara@example.com",
		"role":             "custom",
		"customRoleName":   "Designer",
		"generatePassword": true,
		"permissions":      map[string]any{"modelManageEdit": true},
	}, &out)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Len(t, out.GeneratedPassword, 12)
	assert.Equal(t, "Designer", out.User.RoleDisplayName)
	// enabling a child turns its umbrella on
	assert.Equal(t, true, out.User.Permissions["modelUpload"])
	assert.Equal(t, false, out.User.Permissions["saveConfig"])

	_, _, err := env.Deps.Auth.Login("cara@example.com", out.GeneratedPassword)
	assert.NoError(t, err)
}

func TestUpdatePermissions(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "admin@example.com", permission.RoleAdmin)
	emp, _ := env.User(t, "emp@example.com", permission.RoleEmployee)

	sub := env.Deps.Events.Subscribe(emp.ID)
	defer sub.Close()

	var out userResponse

	resp := env.Do(t, http.MethodPut, Path+"/"+emp.ID+"/permissions", token, map[string]any{
		"permissions": map[string]any{"canPan": true, "textureWidget": false},
	}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "employee", out.User.Role)
	assert.True(t, out.User.IsCustomized)
	assert.Equal(t, true, out.User.Permissions["canPan"])

	select {
	case ev := <-sub.C:
		assert.Equal(t, events.PermissionsUpdated, ev.Name)
	default:
		t.Fatal("no permissionsUpdated event published")
	}

	resp = env.Do(t, http.MethodPut, Path+"/"+emp.ID+"/permissions", token, map[string]any{"role": "manager"}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "manager", out.User.Role)
	assert.False(t, out.User.IsCustomized)
	assert.Equal(t, true, out.User.Permissions["modelManageDelete"])

	resp = env.Do(t, http.MethodPost, Path+"/"+emp.ID+"/permissions/reset", token, nil, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, out.User.IsCustomized)
}

func TestUpdatePermissionsAuthority(t *testing.T) {
	env := setup(t)
	admin, token := env.User(t, "admin@example.com", permission.RoleAdmin)
	peer, _ := env.User(t, "peer@example.com", permission.RoleAdmin)
	emp, _ := env.User(t, "emp@example.com", permission.RoleEmployee)

	tests := []struct {
		name   string
		id     string
		body   map[string]any
		status int
	}{
		{"self", admin.ID, map[string]any{"role": "employee"}, http.StatusForbidden},
		{"peer", peer.ID, map[string]any{"role": "employee"}, http.StatusForbidden},
		{"promote to own level", emp.ID, map[string]any{"role": "admin"}, http.StatusForbidden},
		{"missing user", "nope", map[string]any{"role": "employee"}, http.StatusNotFound},
		{"custom without name", emp.ID, map[string]any{"role": "custom"}, http.StatusBadRequest},
		{"custom with blank name", emp.ID, map[string]any{"role": "custom", "customRoleName": "  "}, http.StatusBadRequest},
		{"custom with name", emp.ID, map[string]any{"role": "custom", "customRoleName": "Designer"}, http.StatusOK},
		{"custom keeps stored name", emp.ID, map[string]any{"role": "custom"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.Do(t, http.MethodPut, Path+"/"+tt.id+"/permissions", token, tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDelete(t *testing.T) {
	env := setup(t)
	admin, token := env.User(t, "admin@example.com", permission.RoleAdmin)
	a, _ := env.User(t, "a@example.com", permission.RoleEmployee)
	b, _ := env.User(t, "b@example.com", permission.RoleEmployee)

	for _, owner := range []string{a.ID, a.ID, b.ID} {
		require.NoError(t, savedconfig.Create(env.Deps.DB, &models.SavedConfig{UserID: owner, ModelName: "chair", Name: "c"}))
	}

	resp := env.Do(t, http.MethodDelete, Path+"/"+a.ID+"?transferTo="+admin.ID, token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	moved, err := savedconfig.ListByUser(env.Deps.DB, admin.ID, "")
	require.NoError(t, err)
	assert.Len(t, moved, 2)

	resp = env.Do(t, http.MethodDelete, Path+"/"+b.ID, token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	left, err := savedconfig.ListByUser(env.Deps.DB, b.ID, "")
	require.NoError(t, err)
	assert.Empty(t, left)

	resp = env.Do(t, http.MethodDelete, Path+"/"+admin.ID, token, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.Do(t, http.MethodDelete, Path+"/"+a.ID, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
