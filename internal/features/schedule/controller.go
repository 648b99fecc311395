package schedule

import (
	"errors"

	"go-docbridge/internal/features/run"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScheduleController struct {
	service ScheduleService
}

func NewScheduleController(service ScheduleService) *ScheduleController {
	return &ScheduleController{service: service}
}

type createScheduleRequest struct {
	Name             string `json:"name"`
	SyncType         string `json:"sync_type"`
	CollectionID     string `json:"collection_id"`
	PluginInstanceID string `json:"plugin_instance_id"`
	CronExpression   string `json:"cron_expression"`
	Enabled          *bool  `json:"enabled"`
}

func (ctl *ScheduleController) ListSchedules(c *fiber.Ctx) error {
	schedules, err := ctl.service.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": schedules,
	})
}

func (ctl *ScheduleController) CreateSchedule(c *fiber.Ctx) error {
	var req createScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	schedule := &Schedule{
		Name:           req.Name,
		SyncType:       run.SyncType(req.SyncType),
		CronExpression: req.CronExpression,
		Enabled:        true,
	}
	if req.Enabled != nil {
		schedule.Enabled = *req.Enabled
	}
	if req.CollectionID != "" {
		oid, err := primitive.ObjectIDFromHex(req.CollectionID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid collection id",
			})
		}
		schedule.CollectionID = &oid
	}
	if req.PluginInstanceID != "" {
		oid, err := primitive.ObjectIDFromHex(req.PluginInstanceID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid plugin instance id",
			})
		}
		schedule.PluginInstanceID = &oid
	}

	if err := ctl.service.Create(c.Context(), schedule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": schedule,
	})
}

func (ctl *ScheduleController) GetSchedule(c *fiber.Ctx) error {
	schedule, err := ctl.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "schedule not found",
		})
	}
	return c.JSON(fiber.Map{
		"data": schedule,
	})
}

func (ctl *ScheduleController) UpdateSchedule(c *fiber.Ctx) error {
	var req UpdateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	schedule, err := ctl.service.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": schedule,
	})
}

func (ctl *ScheduleController) DeleteSchedule(c *fiber.Ctx) error {
	if err := ctl.service.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, ErrScheduleBusy) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "schedule deleted",
	})
}

func (ctl *ScheduleController) RunScheduleNow(c *fiber.Ctx) error {
	syncID, err := ctl.service.RunNow(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"sync_id": syncID,
	})
}

func (ctl *ScheduleController) GetScheduleHistory(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 50))
	runs, err := ctl.service.History(c.Context(), c.Params("id"), limit)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": runs,
	})
}

func (ctl *ScheduleController) GetAllRuns(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 50))
	runs, err := ctl.service.AllRuns(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": runs,
	})
}

func (ctl *ScheduleController) GetPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": ctl.service.Presets(),
	})
}

func (ctl *ScheduleController) GetDataSourceInstances(c *fiber.Ctx) error {
	instances, err := ctl.service.DataSourceInstances(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": instances,
	})
}
