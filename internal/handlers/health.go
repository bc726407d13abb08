package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Validator reports whether a dependency can serve requests
type Validator interface {
	Validate() error
}

// HealthHandler reports liveness and whether transcription is configured
type HealthHandler struct {
	recognizer Validator
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(recognizer Validator) *HealthHandler {
	return &HealthHandler{recognizer: recognizer}
}

// Handle answers 200 while the process runs. A misconfigured recognizer
// degrades the status without failing the check, the text endpoints still
// work without one.
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":     "healthy",
		"version":    Version,
		"recognizer": "ready",
	}
	if h.recognizer != nil {
		if err := h.recognizer.Validate(); err != nil {
			resp["status"] = "degraded"
			resp["recognizer"] = err.Error()
		}
	}
	return c.JSON(resp)
}
