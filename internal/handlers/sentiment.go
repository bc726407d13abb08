package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/video-sentiment/internal/aggregator"
	"github.com/codebuildervaibhav/video-sentiment/internal/queue"
	"github.com/codebuildervaibhav/video-sentiment/internal/sentiment"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// SentimentHandler scores free text and finished transcripts
type SentimentHandler struct {
	registry *queue.Registry
}

// NewSentimentHandler creates a new sentiment handler
func NewSentimentHandler(registry *queue.Registry) *SentimentHandler {
	return &SentimentHandler{registry: registry}
}

// AnalyzeRequest represents the request body of text analysis
type AnalyzeRequest struct {
	Text     string   `json:"text"`
	Features []string `json:"features"`
}

// Analyze scores the posted text
func (h *SentimentHandler) Analyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "ERR_INVALID_BODY")
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Text is required", "ERR_EMPTY_TEXT")
	}

	results, err := sentiment.AnalyzeAll(req.Text, req.Features)
	if err != nil {
		return analyzeError(c, err)
	}
	return c.JSON(fiber.Map{
		"results":           results,
		"analyzed_features": sentiment.Ordered(results),
	})
}

// AnalyzeTranscription scores the transcript of a finished job
func (h *SentimentHandler) AnalyzeTranscription(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Query("job_id"))
	if id == "" {
		return missingJobID(c)
	}

	text, err := h.registry.Transcript(id)
	switch {
	case errors.Is(err, queue.ErrNotReady):
		return errorJSON(c, fiber.StatusAccepted, "Transcription in progress", "ERR_NOT_READY")
	case errors.Is(err, queue.ErrJobNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Job not found", "ERR_JOB_NOT_FOUND")
	case errors.Is(err, queue.ErrJobFailed):
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_TRANSCRIPTION_FAILED")
	case err != nil:
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}

	var features []string
	for _, f := range strings.Split(c.Query("features"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	results, err := sentiment.AnalyzeAll(text, features)
	if err != nil {
		return analyzeError(c, err)
	}

	title := aggregator.Title(id, "", text)
	return c.JSON(fiber.Map{
		"job_id":            id,
		"results":           results,
		"analyzed_features": sentiment.Ordered(results),
		"analysisData":      aggregator.Summarize(title, text, results),
	})
}

// Features lists the fixed feature names
func (h *SentimentHandler) Features(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"features": sentiment.Features()})
}

func analyzeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, types.ErrInput) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":              err.Error(),
			"code":               "ERR_UNKNOWN_FEATURE",
			"supported_features": sentiment.Features(),
		})
	}
	return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
}
