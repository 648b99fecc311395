package plugin

import (
	"go-docbridge/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type PluginApi struct {
	controller *PluginController
}

func NewPluginApi(controller *PluginController) api.Route {
	return &PluginApi{
		controller: controller,
	}
}

func (h *PluginApi) Setup(app *fiber.App) {
	plugins := app.Group("/api/plugins")
	plugins.Get("/", h.controller.ListPlugins)
	plugins.Post("/", h.controller.CreatePlugin)
	plugins.Get("/:id", h.controller.GetPlugin)
	plugins.Patch("/:id", h.controller.UpdatePlugin)
	plugins.Delete("/:id", h.controller.DeletePlugin)

	app.Get("/api/plugin-components", h.controller.ListComponents)

	instances := app.Group("/api/plugin-instances")
	instances.Get("/", h.controller.ListInstances)
	instances.Post("/", h.controller.CreateInstance)
	instances.Get("/:id", h.controller.GetInstance)
	instances.Patch("/:id", h.controller.UpdateInstance)
	instances.Delete("/:id", h.controller.DeleteInstance)
	instances.Post("/:id/run", h.controller.RunInstance)
	instances.Get("/:id/executions", h.controller.ListExecutions)

	sources := app.Group("/api/plugin-sources")
	sources.Get("/", h.controller.ListSources)
	sources.Post("/", h.controller.CreateSource)
	sources.Get("/:id", h.controller.GetSource)
	sources.Patch("/:id", h.controller.UpdateSource)
	sources.Delete("/:id", h.controller.DeleteSource)
}
