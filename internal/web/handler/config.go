package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/configurator-admin/configurator-admin/internal/db/controller/model"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
)

const defaultFetchTimeout = 5 * time.Second

// LoadModel looks up the model named by the id route parameter. When ok is
// false the response has been written.
func LoadModel(c *fiber.Ctx, deps *Deps) (*models.Model, bool, error) {
	m, err := model.Get(deps.DB, c.Params("id"))
	if errors.Is(err, model.ErrNotFound) {
		return nil, false, Error(c, fiber.StatusNotFound, "Model not found")
	}

	if err != nil {
		return nil, false, Internal(c, err, "Failed to load model")
	}

	return m, true, nil
}

// ModelConfig returns the stored configuration of m merged with its external
// document. The external fetch is bounded by the configured timeout.
func ModelConfig(c *fiber.Ctx, deps *Deps, m *models.Model) (modelconfig.Document, error) {
	base, err := m.BaseConfig()
	if err != nil {
		return nil, err
	}

	timeout := deps.Cfg.Models.ConfigFetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
	defer cancel()

	return deps.Resolver.Resolve(ctx, m.Name, base, m.ConfigURL), nil
}
