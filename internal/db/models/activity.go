package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog records a user action in the configurator.
type ActivityLog struct {
	ID        string            `gorm:"primaryKey;size:36"      json:"_id"`
	UserID    string            `gorm:"size:36;index"           json:"userId"`
	UserName  string            `gorm:"size:100"                json:"userName"`
	UserEmail string            `gorm:"size:255"                json:"userEmail"`
	Action    string            `gorm:"size:64;index;not null"  json:"action"`
	ModelName string            `gorm:"size:100"                json:"modelName,omitempty"`
	Details   datatypes.JSONMap `gorm:"type:text"               json:"details,omitempty"`
	IPAddress string            `gorm:"size:64"                 json:"ipAddress,omitempty"`
	UserAgent string            `gorm:"size:255"                json:"userAgent,omitempty"`
	Timestamp time.Time         `gorm:"index;autoCreateTime"    json:"timestamp"`
}

// TableName specifies the database table name for the ActivityLog model.
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// BeforeCreate assigns a new UUID to logs created without one.
func (a *ActivityLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	return nil
}
