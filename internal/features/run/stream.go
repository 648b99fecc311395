package run

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// streamInterval is how often a run snapshot is pushed to connected clients.
const streamInterval = 2 * time.Second

type StreamController struct {
	Service RunService
	Logger  *zap.Logger
}

func NewStreamController(service RunService, logger *zap.Logger) *StreamController {
	return &StreamController{
		Service: service,
		Logger:  logger,
	}
}

// HandleRunStream pushes run snapshots over a websocket until the run
// reaches a terminal status or the client disconnects. The final snapshot
// is always delivered before the connection closes.
func (h *StreamController) HandleRunStream(c *websocket.Conn) {
	id := c.Params("id")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain client frames so close messages are noticed promptly.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		r, err := h.Service.Get(ctx, id)
		if err != nil {
			if writeErr := c.WriteJSON(map[string]string{"error": err.Error()}); writeErr != nil {
				h.Logger.Debug("run stream write failed", zap.Error(writeErr))
			}
			return
		}

		if err := c.WriteJSON(r); err != nil {
			return
		}

		if r.Status.IsTerminal() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
