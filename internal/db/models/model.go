package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
)

// DefaultPlacementMode is used for models without an explicit placement mode.
const DefaultPlacementMode = "autofit"

// Model represents a 3D model that can be configured in the viewer.
type Model struct {
	// ID is the unique identifier for the model (UUID).
	ID string `gorm:"primaryKey;size:36" json:"_id"`
	// Name is the unique key of the model, used to look up wrapped external configs.
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	// DisplayName is shown to people.
	DisplayName string `gorm:"size:255" json:"displayName"`
	// Type is the asset format, e.g. glb.
	Type string `gorm:"size:32" json:"type"`
	// Section groups models in the catalogue.
	Section string `gorm:"size:100;index" json:"section,omitempty"`
	// File is the asset path of the model.
	File string `gorm:"size:512" json:"file"`
	// Assets maps asset names to paths, e.g. base.
	Assets datatypes.JSONMap `gorm:"type:text" json:"assets,omitempty"`
	// ConfigURL points to an externally hosted configuration document.
	ConfigURL string `gorm:"size:512" json:"configUrl,omitempty"`
	// Config holds the stored configuration fields (uiWidgets, lights, camera, presets and so on).
	Config datatypes.JSON `gorm:"type:text" json:"config,omitempty"`
	// CreatedBy is the ID of the uploading user.
	CreatedBy string `gorm:"size:36" json:"createdBy,omitempty"`
	// CreatedAt is the timestamp when the model was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the model was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Model model.
func (Model) TableName() string {
	return "models"
}

// BeforeCreate assigns a new UUID to models created without one.
func (m *Model) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	return nil
}

// BaseConfig returns the stored configuration of the model as a document,
// with the record fields and the list defaults filled in.
func (m *Model) BaseConfig() (modelconfig.Document, error) {
	doc := modelconfig.Document{}

	if len(m.Config) > 0 {
		parsed, err := modelconfig.Parse(m.Config)
		if err != nil {
			return nil, err
		}

		doc = parsed
	}

	doc["path"] = m.File
	doc["displayName"] = m.DisplayName
	doc["type"] = m.Type

	if len(m.Assets) > 0 {
		doc["assets"] = map[string]any(m.Assets)
	}

	if m.Section != "" {
		doc["section"] = m.Section
	}

	for _, key := range []string{"uiWidgets", "lights", "hiddenInitially", "interactionGroups"} {
		if doc.Slice(key) == nil {
			doc[key] = []any{}
		}
	}

	if doc.String("placementMode") == "" {
		doc["placementMode"] = DefaultPlacementMode
	}

	return doc, nil
}
