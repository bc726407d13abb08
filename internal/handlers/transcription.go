package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/queue"
)

// TranscriptionHandler serves job creation and polling
type TranscriptionHandler struct {
	registry *queue.Registry
	log      *logger.Logger
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(registry *queue.Registry, log *logger.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		registry: registry,
		log:      log.Component("transcription_handler"),
	}
}

// CreateJobRequest represents the request body of job creation
type CreateJobRequest struct {
	URL   string `json:"url"`
	JobID string `json:"job_id"`
	// Defer leaves the job in created until its text is first requested
	Defer bool `json:"defer"`
}

// Create registers a job and, unless deferred, starts it
func (h *TranscriptionHandler) Create(c *fiber.Ctx) error {
	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "ERR_INVALID_BODY")
	}

	job, err := h.registry.Create(req.JobID, req.URL)
	if err != nil {
		return createError(c, req.URL, err)
	}
	if !req.Defer {
		if _, err := h.registry.Start(job.ID); err != nil {
			return createError(c, req.URL, err)
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":   job.ID,
		"platform": job.Platform,
		"state":    job.State(),
	})
}

// List returns every job the registry still knows
func (h *TranscriptionHandler) List(c *fiber.Ctx) error {
	jobs := h.registry.List()
	out := make([]fiber.Map, 0, len(jobs))
	for _, job := range jobs {
		st := job.Status()
		out = append(out, fiber.Map{
			"job_id":               job.ID,
			"source_url":           job.SourceURL,
			"platform":             job.Platform,
			"state":                st.State,
			"transcription_done":   st.Done,
			"transcript_available": st.TranscriptAvailable,
			"created_at":           job.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"jobs": out})
}

// Status reports job progress without waiting on it
func (h *TranscriptionHandler) Status(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Query("job_id"))
	if id == "" {
		return missingJobID(c)
	}

	st, err := h.registry.Status(id)
	if errors.Is(err, queue.ErrJobNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Job not found", "ERR_JOB_NOT_FOUND")
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}

	resp := fiber.Map{
		"transcription_done":   st.Done,
		"transcript_available": st.TranscriptAvailable,
		"state":                st.State,
		"timestamp":            time.Now().Unix(),
	}
	if st.Error != "" {
		resp["error"] = st.Error
	}
	return c.JSON(resp)
}

// Text returns the transcript once ready. A deferred job is started by the
// first request for its text.
func (h *TranscriptionHandler) Text(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Query("job_id"))
	if id == "" {
		return missingJobID(c)
	}

	if job, err := h.registry.Get(id); err == nil && job.State() == queue.StateCreated {
		if _, err := h.registry.Start(id); err != nil {
			h.log.WithJob(id).WithError(err).Warn("Lazy start failed")
		}
	}

	text, err := h.registry.Transcript(id)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"text":   text,
			"length": len([]rune(text)),
		})
	case errors.Is(err, queue.ErrNotReady):
		st, _ := h.registry.Status(id)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":  "in_progress",
			"state":   st.State,
			"message": "Transcription in progress",
		})
	case errors.Is(err, queue.ErrJobNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Job not found", "ERR_JOB_NOT_FOUND")
	case errors.Is(err, queue.ErrJobFailed):
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_TRANSCRIPTION_FAILED")
	default:
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}
}
