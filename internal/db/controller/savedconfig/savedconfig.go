// Package savedconfig manages the scene configurations users save for a model.
package savedconfig

import (
	"errors"

	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

var (
	// ErrNotFound is returned when a saved configuration does not exist.
	ErrNotFound = errors.New("saved configuration not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create stores a new configuration.
func Create(db *gorm.DB, cfg *models.SavedConfig) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Create(cfg).Error
}

// ListByUser returns the configurations of a user, newest first. An empty
// modelName lists all models.
func ListByUser(db *gorm.DB, userID, modelName string) ([]models.SavedConfig, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Where("user_id = ?", userID)
	if modelName != "" {
		q = q.Where("model_name = ?", modelName)
	}

	configs := []models.SavedConfig{}
	if err := q.Order("created_at DESC").Find(&configs).Error; err != nil {
		return nil, err
	}

	return configs, nil
}

// Get returns a configuration by ID.
func Get(db *gorm.DB, id string) (*models.SavedConfig, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var cfg models.SavedConfig

	err := db.Where("id = ?", id).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Delete removes a configuration by ID.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where("id = ?", id).Delete(&models.SavedConfig{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// CountByUser returns the number of saved configurations per user ID.
func CountByUser(db *gorm.DB, userIDs []string) (map[string]int64, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	counts := make(map[string]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID string
		Count  int64
	}

	err := db.Model(&models.SavedConfig{}).
		Select("user_id, count(*) as count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.UserID] = r.Count
	}

	return counts, nil
}

// Transfer moves every configuration of from to to and returns how many moved.
func Transfer(db *gorm.DB, from, to string) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Model(&models.SavedConfig{}).Where("user_id = ?", from).Update("user_id", to)

	return result.RowsAffected, result.Error
}

// DeleteByUser removes every configuration of a user and returns how many were removed.
func DeleteByUser(db *gorm.DB, userID string) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Where("user_id = ?", userID).Delete(&models.SavedConfig{})

	return result.RowsAffected, result.Error
}
