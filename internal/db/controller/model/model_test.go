package model

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Model{}))

	return db
}

func TestCRUD(t *testing.T) {
	db := newTestDB(t)

	chair := &models.Model{Name: " chair ", File: "/models/chair.glb", Section: "Living"}
	require.NoError(t, Create(db, chair))
	assert.Equal(t, "chair", chair.Name)
	assert.NotEmpty(t, chair.ID)

	require.NoError(t, Create(db, &models.Model{Name: "sink", Section: "Bath"}))

	assert.ErrorIs(t, Create(db, &models.Model{Name: "chair"}), ErrNameTaken)
	assert.ErrorIs(t, Create(db, &models.Model{Name: "  "}), ErrNameEmpty)

	byName, err := Get(db, "chair")
	require.NoError(t, err)
	assert.Equal(t, chair.ID, byName.ID)

	byID, err := Get(db, chair.ID)
	require.NoError(t, err)
	assert.Equal(t, "chair", byID.Name)

	_, err = Get(db, "table")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := List(db, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "sink", all[0].Name)

	bath, err := List(db, "Bath")
	require.NoError(t, err)
	assert.Len(t, bath, 1)

	byID.Name = "sink"
	assert.ErrorIs(t, Update(db, byID), ErrNameTaken)

	byID.Name = "chair"
	byID.DisplayName = "Chair"
	require.NoError(t, Update(db, byID))

	require.NoError(t, Delete(db, chair.ID))
	assert.ErrorIs(t, Delete(db, chair.ID), ErrNotFound)
}
