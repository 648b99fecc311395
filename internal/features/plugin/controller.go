package plugin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type PluginController struct {
	Service PluginService
}

func NewPluginController(service PluginService) *PluginController {
	return &PluginController{
		Service: service,
	}
}

func (ctrl *PluginController) ListPlugins(c *fiber.Ctx) error {
	plugins, err := ctrl.Service.ListPlugins(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": plugins})
}

func (ctrl *PluginController) GetPlugin(c *fiber.Ctx) error {
	p, err := ctrl.Service.GetPlugin(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(p)
}

func (ctrl *PluginController) CreatePlugin(c *fiber.Ctx) error {
	var p Plugin
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.CreatePlugin(c.UserContext(), &p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Plugin created successfully",
		"data":    p,
	})
}

func (ctrl *PluginController) UpdatePlugin(c *fiber.Ctx) error {
	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.UpdatePlugin(c.UserContext(), c.Params("id"), updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plugin updated successfully",
	})
}

func (ctrl *PluginController) DeletePlugin(c *fiber.Ctx) error {
	if err := ctrl.Service.DeletePlugin(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Plugin deleted successfully",
	})
}

func (ctrl *PluginController) ListComponents(c *fiber.Ctx) error {
	components, err := ctrl.Service.ListComponents(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": components})
}

func (ctrl *PluginController) ListInstances(c *fiber.Ctx) error {
	instances, err := ctrl.Service.ListInstances(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": instances})
}

func (ctrl *PluginController) GetInstance(c *fiber.Ctx) error {
	instance, err := ctrl.Service.GetInstance(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(instance)
}

func (ctrl *PluginController) CreateInstance(c *fiber.Ctx) error {
	var instance PluginInstance
	if err := c.BodyParser(&instance); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.CreateInstance(c.UserContext(), &instance); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Plugin instance created successfully",
		"data":    instance,
	})
}

func (ctrl *PluginController) UpdateInstance(c *fiber.Ctx) error {
	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.UpdateInstance(c.UserContext(), c.Params("id"), updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plugin instance updated successfully",
	})
}

func (ctrl *PluginController) DeleteInstance(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteInstance(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Plugin instance deleted successfully",
	})
}

// RunInstance starts an ad-hoc importer run and returns the run id to poll.
func (ctrl *PluginController) RunInstance(c *fiber.Ctx) error {
	runID, err := ctrl.Service.RunInstance(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"sync_id": runID,
	})
}

func (ctrl *PluginController) ListExecutions(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	logs, err := ctrl.Service.ListExecutions(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": logs})
}

func (ctrl *PluginController) ListSources(c *fiber.Ctx) error {
	sources, err := ctrl.Service.ListSources(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": sources})
}

func (ctrl *PluginController) GetSource(c *fiber.Ctx) error {
	src, err := ctrl.Service.GetSource(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(src)
}

func (ctrl *PluginController) CreateSource(c *fiber.Ctx) error {
	var src PluginSource
	if err := c.BodyParser(&src); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.CreateSource(c.UserContext(), &src); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Plugin source created successfully",
		"data":    src,
	})
}

func (ctrl *PluginController) UpdateSource(c *fiber.Ctx) error {
	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.UpdateSource(c.UserContext(), c.Params("id"), updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plugin source updated successfully",
	})
}

func (ctrl *PluginController) DeleteSource(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteSource(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Plugin source deleted successfully",
	})
}
