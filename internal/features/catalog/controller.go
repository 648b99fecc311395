package catalog

import (
	"github.com/gofiber/fiber/v2"
)

type CatalogController struct {
	service CatalogService
}

func NewCatalogController(service CatalogService) *CatalogController {
	return &CatalogController{service: service}
}

func (ctl *CatalogController) ListWorkspaces(c *fiber.Ctx) error {
	workspaces, err := ctl.service.ListWorkspaces(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": workspaces,
	})
}

func (ctl *CatalogController) RefreshCatalog(c *fiber.Ctx) error {
	if err := ctl.service.Refresh(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "catalog refreshed",
	})
}

func (ctl *CatalogController) ListWorkspaceCollections(c *fiber.Ctx) error {
	collections, err := ctl.service.WorkspaceCollections(c.Context(), c.Params("identifier"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": collections,
	})
}

func (ctl *CatalogController) ListCollections(c *fiber.Ctx) error {
	collections, err := ctl.service.ListCollections(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": collections,
	})
}

func (ctl *CatalogController) GetCollection(c *fiber.Ctx) error {
	detail, err := ctl.service.GetCollectionDetail(c.Context(), c.Params("identifier"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": detail,
	})
}

func (ctl *CatalogController) StartFullSync(c *fiber.Ctx) error {
	syncID, err := ctl.service.FullSync(c.Context(), c.Params("identifier"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"sync_id": syncID,
	})
}

func (ctl *CatalogController) GetSyncStatus(c *fiber.Ctx) error {
	latest, err := ctl.service.SyncStatus(c.Context(), c.Params("identifier"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if latest == nil {
		return c.JSON(fiber.Map{
			"message": "collection has never been synced",
		})
	}
	return c.JSON(fiber.Map{
		"data": latest,
	})
}
