package catalog

import (
	"go-docbridge/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type CatalogApi struct {
	controller *CatalogController
}

func NewCatalogApi(controller *CatalogController) api.Route {
	return &CatalogApi{controller: controller}
}

func (h *CatalogApi) Setup(app *fiber.App) {
	workspaces := app.Group("/api/workspaces")

	workspaces.Get("/", h.controller.ListWorkspaces)
	workspaces.Post("/refresh", h.controller.RefreshCatalog)
	workspaces.Get("/:identifier/collections", h.controller.ListWorkspaceCollections)

	collections := app.Group("/api/collections")

	collections.Get("/", h.controller.ListCollections)
	collections.Get("/:identifier", h.controller.GetCollection)
	collections.Post("/:identifier/full-sync", h.controller.StartFullSync)
	collections.Get("/:identifier/sync-status", h.controller.GetSyncStatus)
}
