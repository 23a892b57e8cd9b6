package setting

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Setting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.Setting{Name: "site_name", Value: []byte("My Site")}).Error)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{name: "nil database", settingName: "test", expectedError: ErrDBNil},
		{name: "empty name", dbParam: db, expectedError: ErrSettingNameEmpty},
		{name: "not found", dbParam: db, settingName: "nonexistent", expectedError: ErrSettingNotFound},
		{name: "found", dbParam: db, settingName: "site_name", expectedValue: []byte("My Site")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Get(tc.dbParam, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, s)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, s.Value)
		})
	}
}

func TestSetUpserts(t *testing.T) {
	db := setupTestDB(t)

	first, err := Set(db, "theme", []byte("dark"))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := Set(db, "theme", []byte("light"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []byte("light"), second.Value)

	var count int64
	db.Model(&models.Setting{}).Count(&count)
	assert.Equal(t, int64(1), count)

	_, err = Set(nil, "theme", nil)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, "theme", []byte("dark"))
	require.NoError(t, err)

	require.NoError(t, Delete(db, "theme"))
	require.ErrorIs(t, Delete(db, "theme"), ErrSettingNotFound)
	require.ErrorIs(t, Delete(db, ""), ErrSettingNameEmpty)
}

func TestLoadStore(t *testing.T) {
	db := setupTestDB(t)

	type prefs struct {
		Zoom  bool `json:"zoom"`
		Limit int  `json:"limit"`
	}

	require.NoError(t, Store(db, "prefs", prefs{Zoom: true, Limit: 3}))

	var got prefs
	require.NoError(t, Load(db, "prefs", &got))
	assert.Equal(t, prefs{Zoom: true, Limit: 3}, got)

	require.ErrorIs(t, Load(db, "missing", &got), ErrSettingNotFound)

	_, err := Set(db, "broken", []byte("{"))
	require.NoError(t, err)
	require.Error(t, Load(db, "broken", &got))
}
