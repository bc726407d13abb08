package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/video-sentiment/internal/aggregator"
	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/media"
	"github.com/codebuildervaibhav/video-sentiment/internal/queue"
	"github.com/codebuildervaibhav/video-sentiment/internal/sentiment"
	"github.com/codebuildervaibhav/video-sentiment/internal/storage"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// AnalysisStore persists finished analyses
type AnalysisStore interface {
	SaveAnalysis(a *storage.Analysis) error
	GetAnalysis(id string) (*storage.Analysis, error)
	ListAnalyses(limit int) ([]storage.Analysis, error)
}

// TitleResolver looks up the page title of a video
type TitleResolver interface {
	Resolve(ctx context.Context, videoURL string) (string, error)
}

// VideoHandler runs the whole pipeline for one URL within a single request
type VideoHandler struct {
	registry *queue.Registry
	store    AnalysisStore
	titles   TitleResolver
	wait     time.Duration
	log      *logger.Logger
}

// VideoOption configures a VideoHandler
type VideoOption func(*VideoHandler)

// WithAnalysisStore records every successful analysis
func WithAnalysisStore(store AnalysisStore) VideoOption {
	return func(h *VideoHandler) {
		h.store = store
	}
}

// WithTitleResolver looks up page titles while the job runs
func WithTitleResolver(r TitleResolver) VideoOption {
	return func(h *VideoHandler) {
		h.titles = r
	}
}

// NewVideoHandler creates a video handler that waits at most wait for a job
func NewVideoHandler(registry *queue.Registry, wait time.Duration, log *logger.Logger, opts ...VideoOption) *VideoHandler {
	h := &VideoHandler{
		registry: registry,
		wait:     wait,
		log:      log.Component("video_handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// VideoRequest represents the request body of a video analysis
type VideoRequest struct {
	URL   string `json:"url"`
	JobID string `json:"job_id"`
}

// Analyze acquires, transcribes and scores a video, then answers with the
// per-feature sentiment and display stats
func (h *VideoHandler) Analyze(c *fiber.Ctx) error {
	var req VideoRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "ERR_INVALID_BODY")
	}
	if _, err := media.ValidateSource(req.URL); err != nil {
		return sourceError(c, req.URL, err)
	}

	job, err := h.registry.Create(req.JobID, req.URL)
	if err != nil {
		return createError(c, req.URL, err)
	}
	if _, err := h.registry.Start(job.ID); err != nil {
		h.registry.Release(job.ID)
		return createError(c, req.URL, err)
	}
	// no-op while the job still runs, so a timed out analysis stays pollable
	defer h.registry.Release(job.ID)
	log := h.log.WithJob(job.ID)

	titleCh := make(chan string, 1)
	if h.titles != nil {
		go func() {
			title, err := h.titles.Resolve(context.Background(), job.SourceURL)
			if err != nil {
				log.WithError(err).Debug("Page title unavailable")
			}
			titleCh <- title
		}()
	} else {
		titleCh <- ""
	}

	timer := time.NewTimer(h.wait)
	defer timer.Stop()
	select {
	case <-job.Finished():
	case <-timer.C:
		log.Warnf("Analysis did not finish within %s", h.wait)
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error":  "Transcription is taking too long, poll the job status instead",
			"code":   "ERR_TIMEOUT",
			"job_id": job.ID,
		})
	}

	if job.State() == queue.StateFailed {
		err := job.Err()
		if errors.Is(err, types.ErrRecognitionTimeout) {
			return errorJSON(c, fiber.StatusGatewayTimeout, err.Error(), "ERR_RECOGNITION_TIMEOUT")
		}
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_TRANSCRIPTION_FAILED")
	}

	text, err := h.registry.Transcript(job.ID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}

	results, err := sentiment.AnalyzeAll(text, nil)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error(), "ERR_INTERNAL")
	}

	var pageTitle string
	select {
	case pageTitle = <-titleCh:
	case <-time.After(time.Second):
	}
	summary := aggregator.Summarize(aggregator.Title(job.ID, pageTitle, text), text, results)
	overall, _ := aggregator.Overall(results)

	analysisID := uuid.NewString()
	if h.store != nil {
		err := h.store.SaveAnalysis(&storage.Analysis{
			ID:         analysisID,
			JobID:      job.ID,
			SourceURL:  job.SourceURL,
			Platform:   string(job.Platform),
			Title:      summary.Title,
			Overall:    overall,
			Transcript: text,
			Sentiment:  results,
			Stats:      summary.Stats,
			DriveURL:   job.DriveURL(),
		})
		if err != nil {
			log.WithError(err).Error("Failed to save analysis")
		}
	}

	log.WithField("features", len(results)).WithField("overall", overall).Info("Video analyzed")
	return c.JSON(fiber.Map{
		"analysis_id":       analysisID,
		"sentiment":         results,
		"fullTranscription": text,
		"analysisData":      summary,
	})
}
