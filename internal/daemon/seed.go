package daemon

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/config"
	"github.com/configurator-admin/configurator-admin/internal/permission"
)

// seed creates the configured superadmin when the user table is empty.
func seed(cfg *config.Config, authService *auth.Service) error {
	count, err := authService.Users().Count()
	if err != nil {
		return errors.Wrap(err, "failed to count users")
	}

	if count > 0 || cfg.Seed.Email == "" {
		return nil
	}

	name := cfg.Seed.Name
	if name == "" {
		name = "Administrator"
	}

	u, err := authService.Users().CreateUser(auth.NewUser{
		Name:     name,
		Email:    cfg.Seed.Email,
		Password: cfg.Seed.Password,
		Role:     permission.RoleSuperAdmin,
	})
	if err != nil {
		return errors.Wrap(err, "failed to seed superadmin")
	}

	log.Warn().Str("email", u.Email).Msg("seeded superadmin account, change its password")

	return nil
}
