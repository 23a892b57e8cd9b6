package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SavedConfig is a scene state a user saved for a model.
type SavedConfig struct {
	ID          string         `gorm:"primaryKey;size:36"     json:"_id"`
	UserID      string         `gorm:"size:36;index;not null" json:"userId"`
	ModelName   string         `gorm:"size:100;not null"      json:"modelName"`
	Name        string         `gorm:"size:255;not null"      json:"name"`
	Description string         `gorm:"size:1024"              json:"description,omitempty"`
	ConfigData  datatypes.JSON `gorm:"type:text"              json:"configData"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TableName specifies the database table name for the SavedConfig model.
func (SavedConfig) TableName() string {
	return "saved_configs"
}

// BeforeCreate assigns a new UUID to configs created without one.
func (s *SavedConfig) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	return nil
}
