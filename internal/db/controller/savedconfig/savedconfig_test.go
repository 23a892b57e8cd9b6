package savedconfig

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SavedConfig{}))

	return db
}

func seed(t *testing.T, db *gorm.DB, userID, model, name string) *models.SavedConfig {
	t.Helper()

	cfg := &models.SavedConfig{UserID: userID, ModelName: model, Name: name, ConfigData: []byte(`{"tintSettings":{}}`)}
	require.NoError(t, Create(db, cfg))
	require.NotEmpty(t, cfg.ID)

	return cfg
}

func TestListAndCount(t *testing.T) {
	db := setupTestDB(t)

	seed(t, db, "u1", "chair", "a")
	seed(t, db, "u1", "table", "b")
	seed(t, db, "u2", "chair", "c")

	all, err := ListByUser(db, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	chairs, err := ListByUser(db, "u1", "chair")
	require.NoError(t, err)
	require.Len(t, chairs, 1)
	assert.Equal(t, "a", chairs[0].Name)

	none, err := ListByUser(db, "u3", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	counts, err := CountByUser(db, []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"u1": 2, "u2": 1}, counts)
}

func TestGetDelete(t *testing.T) {
	db := setupTestDB(t)
	cfg := seed(t, db, "u1", "chair", "a")

	got, err := Get(db, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "chair", got.ModelName)

	require.NoError(t, Delete(db, cfg.ID))
	require.ErrorIs(t, Delete(db, cfg.ID), ErrNotFound)

	_, err = Get(db, cfg.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransferAndDeleteByUser(t *testing.T) {
	db := setupTestDB(t)

	seed(t, db, "u1", "chair", "a")
	seed(t, db, "u1", "table", "b")
	seed(t, db, "u2", "chair", "c")

	moved, err := Transfer(db, "u1", "u3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	removed, err := DeleteByUser(db, "u3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := ListByUser(db, "u2", "")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
