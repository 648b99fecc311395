package settings

import (
	"go-docbridge/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type SettingsApi struct {
	controller *SettingsController
}

func NewSettingsApi(controller *SettingsController) api.Route {
	return &SettingsApi{controller: controller}
}

func (h *SettingsApi) Setup(app *fiber.App) {
	group := app.Group("/api/settings")

	group.Get("/system", h.controller.GetSystemConfig)
	group.Put("/system", h.controller.UpdateSystemConfig)
}
