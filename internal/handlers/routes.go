package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Routes groups the handlers mounted on the app. Nil handlers leave their
// routes out.
type Routes struct {
	Video         *VideoHandler
	Transcription *TranscriptionHandler
	Sentiment     *SentimentHandler
	Analyses      *AnalysesHandler
	Stream        *StreamHandler
	Health        *HealthHandler
}

// Mount registers every route on app
func (r Routes) Mount(app *fiber.App) {
	if r.Health != nil {
		app.Get("/health", r.Health.Handle)
	}

	api := app.Group("/api")
	if r.Video != nil {
		api.Post("/video/analyze", r.Video.Analyze)
	}
	if r.Transcription != nil {
		api.Post("/transcription/jobs", r.Transcription.Create)
		api.Get("/transcription/jobs", r.Transcription.List)
		api.Get("/transcription/status", r.Transcription.Status)
		api.Get("/transcription/text", r.Transcription.Text)
	}
	if r.Sentiment != nil {
		api.Post("/sentiment/analyze", r.Sentiment.Analyze)
		api.Post("/sentiment/analyze-transcription", r.Sentiment.AnalyzeTranscription)
		api.Get("/sentiment/features", r.Sentiment.Features)
	}
	if r.Analyses != nil {
		api.Get("/analyses", r.Analyses.List)
		api.Get("/analyses/export", r.Analyses.Export)
		api.Get("/analyses/:id", r.Analyses.Get)
	}
	if r.Stream != nil {
		app.Use("/ws", r.Stream.Upgrade)
		app.Get("/ws/jobs/:id", websocket.New(r.Stream.Handle))
	}
}
