package handler

import (
	"time"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/permission"
)

// UserView is the JSON shape of a user sent to clients. Permissions are the
// effective ones, never the raw stored document.
type UserView struct {
	ID               string          `json:"_id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Role             permission.Role `json:"role"`
	CustomRoleName   string          `json:"customRoleName,omitempty"`
	RoleDisplayName  string          `json:"roleDisplayName"`
	Permissions      permission.Set  `json:"permissions"`
	IsCustomized     bool            `json:"isCustomized"`
	SavedConfigCount *int64          `json:"savedConfigCount,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// NewUserView builds the view of u.
func NewUserView(u *models.User) UserView {
	perms, customized := u.Effective()

	return UserView{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		CustomRoleName:  u.CustomRoleName,
		RoleDisplayName: u.RoleDisplayName(),
		Permissions:     perms,
		IsCustomized:    customized,
		CreatedAt:       u.CreatedAt,
	}
}
