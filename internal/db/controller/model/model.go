// Package model stores and looks up 3D model records.
package model

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

var (
	// ErrNotFound is returned when no model matches.
	ErrNotFound = errors.New("model not found")
	// ErrNameTaken is returned when another model already uses the name.
	ErrNameTaken = errors.New("model name already exists")
	// ErrNameEmpty is returned for a model without name.
	ErrNameEmpty = errors.New("model name is empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// List returns the models ordered by section and name. A non-empty section
// restricts the result to that section.
func List(db *gorm.DB, section string) ([]models.Model, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Model(&models.Model{})
	if section != "" {
		q = q.Where("section = ?", section)
	}

	out := []models.Model{}
	if err := q.Order("section ASC").Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// Get returns the model whose ID or name is key.
func Get(db *gorm.DB, key string) (*models.Model, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var m models.Model

	err := db.Where("id = ? OR name = ?", key, key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &m, nil
}

// Create stores a new model. Names are unique.
func Create(db *gorm.DB, m *models.Model) error {
	if db == nil {
		return ErrDBNil
	}

	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return ErrNameEmpty
	}

	if err := nameFree(db, m.Name, ""); err != nil {
		return err
	}

	return db.Create(m).Error
}

// Update saves m. Renaming onto an existing name fails with ErrNameTaken.
func Update(db *gorm.DB, m *models.Model) error {
	if db == nil {
		return ErrDBNil
	}

	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return ErrNameEmpty
	}

	if err := nameFree(db, m.Name, m.ID); err != nil {
		return err
	}

	return db.Save(m).Error
}

// Delete removes the model with the given ID.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where("id = ?", id).Delete(&models.Model{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func nameFree(db *gorm.DB, name, exceptID string) error {
	q := db.Model(&models.Model{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return ErrNameTaken
	}

	return nil
}
