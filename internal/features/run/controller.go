package run

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type RunController struct {
	Service RunService
}

func NewRunController(service RunService) *RunController {
	return &RunController{
		Service: service,
	}
}

// GetRun returns the current snapshot of a sync run. Callers poll this
// endpoint for progress; terminal runs return the same snapshot forever.
func (ctrl *RunController) GetRun(c *fiber.Ctx) error {
	id := c.Params("id")

	r, err := ctrl.Service.Get(c.UserContext(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(r)
}

// GetRunLogs returns a run's log entries in insertion order, optionally
// filtered by exact level and document identifier substring.
func (ctrl *RunController) GetRunLogs(c *fiber.Ctx) error {
	id := c.Params("id")
	level := c.Query("level")
	document := c.Query("document")

	r, entries, err := ctrl.Service.Logs(c.UserContext(), id, level, document)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"run":  r,
		"logs": entries,
	})
}

// ListRecentRuns returns the most recent runs across all schedules.
func (ctrl *RunController) ListRecentRuns(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	runs, err := ctrl.Service.Recent(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": runs,
	})
}
