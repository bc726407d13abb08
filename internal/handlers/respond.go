// Package handlers exposes the HTTP and websocket surface of the service.
package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/video-sentiment/internal/media"
	"github.com/codebuildervaibhav/video-sentiment/internal/queue"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

func errorJSON(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

// supportedPlatforms is the list returned with unsupported platform errors
func supportedPlatforms() []string {
	names := make([]string, len(types.SupportedPlatforms))
	for i, p := range types.SupportedPlatforms {
		names[i] = string(p)
	}
	return names
}

// sourceError renders a failed URL validation. Unsupported platforms get the
// supported list so clients can explain the refusal.
func sourceError(c *fiber.Ctx, rawURL string, err error) error {
	if strings.TrimSpace(rawURL) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "URL is required", "ERR_NO_URL")
	}
	if src, _ := media.ValidateSource(rawURL); src.Platform == types.PlatformUnsupported {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":               "Unsupported platform: " + err.Error(),
			"code":                "ERR_UNSUPPORTED_PLATFORM",
			"supported_platforms": supportedPlatforms(),
		})
	}
	return errorJSON(c, fiber.StatusBadRequest, "Invalid URL: "+err.Error(), "ERR_INVALID_URL")
}

// createError maps a Registry.Create or Start failure onto a response
func createError(c *fiber.Ctx, rawURL string, err error) error {
	switch {
	case errors.Is(err, types.ErrInput):
		if _, verr := media.ValidateSource(rawURL); verr != nil {
			return sourceError(c, rawURL, verr)
		}
		return errorJSON(c, fiber.StatusBadRequest, err.Error(), "ERR_INVALID_JOB_ID")
	case errors.Is(err, queue.ErrJobExists):
		return errorJSON(c, fiber.StatusConflict, err.Error(), "ERR_JOB_EXISTS")
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrPoolClosed):
		return errorJSON(c, fiber.StatusServiceUnavailable, err.Error(), "ERR_BUSY")
	default:
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}
}

func missingJobID(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "job_id is required", "ERR_NO_JOB_ID")
}
