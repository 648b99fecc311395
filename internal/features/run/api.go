package run

import (
	"go-docbridge/internal/common/api"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type RunApi struct {
	controller *RunController
	stream     *StreamController
}

func NewRunApi(controller *RunController, stream *StreamController) api.Route {
	return &RunApi{
		controller: controller,
		stream:     stream,
	}
}

func (h *RunApi) Setup(app *fiber.App) {
	history := app.Group("/api/sync-history")

	history.Get("/", h.controller.ListRecentRuns)
	history.Get("/:id", h.controller.GetRun)
	history.Get("/:id/logs", h.controller.GetRunLogs)

	app.Get("/ws/sync-runs/:id", websocket.New(h.stream.HandleRunStream))
}
