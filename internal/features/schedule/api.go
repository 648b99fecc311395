package schedule

import (
	"go-docbridge/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type ScheduleApi struct {
	controller *ScheduleController
}

func NewScheduleApi(controller *ScheduleController) api.Route {
	return &ScheduleApi{controller: controller}
}

func (h *ScheduleApi) Setup(app *fiber.App) {
	schedules := app.Group("/api/sync-schedules")

	// static paths first so they are not captured by /:id
	schedules.Get("/presets", h.controller.GetPresets)
	schedules.Get("/all-runs", h.controller.GetAllRuns)
	schedules.Get("/data-source-instances", h.controller.GetDataSourceInstances)

	schedules.Get("/", h.controller.ListSchedules)
	schedules.Post("/", h.controller.CreateSchedule)
	schedules.Get("/:id", h.controller.GetSchedule)
	schedules.Patch("/:id", h.controller.UpdateSchedule)
	schedules.Delete("/:id", h.controller.DeleteSchedule)
	schedules.Post("/:id/run", h.controller.RunScheduleNow)
	schedules.Get("/:id/history", h.controller.GetScheduleHistory)
}
