package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/queue"
)

// StreamHandler pushes job status over a websocket until the job ends
type StreamHandler struct {
	registry *queue.Registry
	interval time.Duration
	log      *logger.Logger
}

// NewStreamHandler creates a new stream handler. interval is how often a
// running job's status is re-sent.
func NewStreamHandler(registry *queue.Registry, interval time.Duration, log *logger.Logger) *StreamHandler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &StreamHandler{
		registry: registry,
		interval: interval,
		log:      log.Component("stream"),
	}
}

// Upgrade rejects plain HTTP requests on websocket routes
func (h *StreamHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// statusMessage is one websocket frame
type statusMessage struct {
	JobID string `json:"job_id"`
	queue.Status
	Timestamp int64 `json:"timestamp"`
}

// Handle serves /ws/jobs/:id
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	id := c.Params("id")
	job, err := h.registry.Get(id)
	if err != nil {
		c.WriteJSON(fiber.Map{"job_id": id, "error": "Job not found"})
		return
	}

	log := h.log.WithJob(id)
	log.Debug("WebSocket connection established")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		st := job.Status()
		if err := c.WriteJSON(statusMessage{JobID: id, Status: st, Timestamp: time.Now().Unix()}); err != nil {
			log.WithError(err).Debug("WebSocket write error")
			return
		}
		if st.State.Terminal() {
			return
		}

		select {
		case <-job.Finished():
		case <-ticker.C:
		}
	}
}
