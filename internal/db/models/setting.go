// Package models contains database model definitions.
package models

// Setting represents a named JSON blob stored in the database, such as the
// permission set of the public viewer.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100"`
	Value []byte `gorm:"type:blob"`
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}
