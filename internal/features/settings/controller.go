package settings

import (
	"github.com/gofiber/fiber/v2"
)

type SettingsController struct {
	service SettingsService
}

func NewSettingsController(service SettingsService) *SettingsController {
	return &SettingsController{service: service}
}

func (ctl *SettingsController) GetSystemConfig(c *fiber.Ctx) error {
	cfg, err := ctl.service.GetSystemConfig(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": cfg,
	})
}

func (ctl *SettingsController) UpdateSystemConfig(c *fiber.Ctx) error {
	var req UpdateSystemConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	cfg, err := ctl.service.UpdateSystemConfig(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": cfg,
	})
}
