package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configurator-admin/configurator-admin/internal/permission"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	u := User{Password: hash}
	assert.True(t, u.VerifyPassword("correct horse"))
	assert.False(t, u.VerifyPassword("battery staple"))

	broken := User{Password: "not-a-hash"}
	assert.False(t, broken.VerifyPassword("anything"))
}

func TestUserEffective(t *testing.T) {
	u := User{Role: permission.RoleManager, Permissions: permission.Defaults(permission.RoleManager)}

	perms, customized := u.Effective()
	assert.False(t, customized)
	assert.True(t, perms.Get(permission.SaveConfig))

	u.Permissions.Flags[permission.SaveConfig] = !u.Permissions.Flags[permission.SaveConfig]
	_, customized = u.Effective()
	assert.True(t, customized)

	assert.Equal(t, "Manager", u.RoleDisplayName())
}

func TestModelBaseConfig(t *testing.T) {
	m := Model{
		Name:        "chair",
		DisplayName: "Chair",
		Type:        "glb",
		File:        "/models/chair.glb",
		Section:     "Living",
		Config:      []byte(`{"camera":{"fov":45},"uiWidgets":[{"type":"texture"}],"placementMode":"floor"}`),
	}

	doc, err := m.BaseConfig()
	require.NoError(t, err)

	assert.Equal(t, "/models/chair.glb", doc["path"])
	assert.Equal(t, "Chair", doc["displayName"])
	assert.Equal(t, "Living", doc["section"])
	assert.Equal(t, "floor", doc["placementMode"])
	assert.Len(t, doc.Slice("uiWidgets"), 1)
	assert.Equal(t, []any{}, doc["lights"])
	assert.NotContains(t, doc, "assets")

	bare := Model{File: "x.glb"}
	doc, err = bare.BaseConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultPlacementMode, doc["placementMode"])
	assert.NotContains(t, doc, "section")

	bad := Model{Config: []byte(`[]`)}
	_, err = bad.BaseConfig()
	require.Error(t, err)
}
