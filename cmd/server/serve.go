package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/video-sentiment/internal/cleanup"
	"github.com/codebuildervaibhav/video-sentiment/internal/config"
	"github.com/codebuildervaibhav/video-sentiment/internal/handlers"
	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/media"
	"github.com/codebuildervaibhav/video-sentiment/internal/queue"
	"github.com/codebuildervaibhav/video-sentiment/internal/storage"
	"github.com/codebuildervaibhav/video-sentiment/internal/transcription"
)

// serverLockFile guards the static dir; the cleanup sweep never matches it
const serverLockFile = ".server.lock"

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("Initializing components...")

	localStorage, err := storage.NewLocalStorage(cfg.Storage.StaticDir)
	if err != nil {
		return err
	}

	// job ids map straight to file names, two servers on one dir would collide
	lockPath := filepath.Join(localStorage.Dir(), serverLockFile)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another server is already using %s", localStorage.Dir())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.WithError(err).Warn("Failed to release static dir lock")
		}
	}()

	db, err := storage.NewAnalysisDB(cfg.Storage.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// A missing key must not stop the text endpoints; jobs fail fast instead
	recognizer, err := transcription.New(cfg, log)
	if err == nil {
		err = recognizer.Validate()
	}
	if err != nil {
		log.WithError(err).Warn("Speech recognition unavailable, video jobs will fail until it is configured")
	} else {
		log.WithField("provider", cfg.Recognizer.Provider).Info("Speech recognition ready")
	}

	downloader := media.NewDownloader(media.WithYtDlpPath(cfg.Tools.YtDlp))
	normalizer := media.NewNormalizer(media.WithFFmpegPath(cfg.Tools.FFmpeg))
	if err := downloader.VerifyInstalled(ctx); err != nil {
		log.WithError(err).Warn("yt-dlp not found, video acquisition will fail")
	}
	if err := normalizer.VerifyInstalled(ctx); err != nil {
		log.WithError(err).Warn("ffmpeg not found, audio normalization will fail")
	}
	acquirer := media.NewAcquirer(downloader, normalizer, log)

	runnerOpts := []queue.RunnerOption{
		queue.WithLiveness(cfg.LivenessTimeout()),
		queue.WithRetention(cfg.Storage.Retention),
	}
	if cfg.GoogleDrive.Enabled {
		driveClient, err := storage.NewDriveClient(ctx,
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
		)
		if err != nil {
			log.WithError(err).Warn("Google Drive not available, transcripts will only be saved locally")
		} else {
			runnerOpts = append(runnerOpts, queue.WithExporter(driveClient))
			log.Info("Google Drive export enabled")
		}
	}

	runner := queue.NewRunner(acquirer, recognizer, log, runnerOpts...)

	poolCtx, cancelPool := context.WithCancel(ctx)
	defer cancelPool()
	workerPool := queue.NewWorkerPool(cfg.Jobs.Workers, cfg.Jobs.QueueSize, runner, log)
	workerPool.Start(poolCtx)

	registry := queue.NewRegistry(localStorage.Dir(), workerPool, log,
		queue.WithArtifactRetention(cfg.Storage.Retention),
	)

	cleanupScheduler := cleanup.NewScheduler(
		localStorage.Dir(),
		time.Duration(cfg.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Cleanup.MaxAgeHours)*time.Hour,
		registry,
		log,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	videoOpts := []handlers.VideoOption{handlers.WithAnalysisStore(db)}
	if cfg.Metadata.ResolveTitles {
		videoOpts = append(videoOpts, handlers.WithTitleResolver(media.NewTitleResolver(30*time.Second)))
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	handlers.Routes{
		Video:         handlers.NewVideoHandler(registry, cfg.AnalyzeWait(), log, videoOpts...),
		Transcription: handlers.NewTranscriptionHandler(registry, log),
		Sentiment:     handlers.NewSentimentHandler(registry),
		Analyses:      handlers.NewAnalysesHandler(db),
		Stream:        handlers.NewStreamHandler(registry, 2*time.Second, log),
		Health:        handlers.NewHealthHandler(recognizer),
	}.Mount(app)

	addr := cfg.Addr()
	log.Infof("Server starting on %s", addr)
	log.Info("Endpoints:")
	log.Info("   POST /api/video/analyze                    - Transcribe and score a video")
	log.Info("   POST /api/transcription/jobs               - Create a transcription job")
	log.Info("   GET  /api/transcription/status?job_id=     - Job status")
	log.Info("   GET  /api/transcription/text?job_id=       - Job transcript")
	log.Info("   POST /api/sentiment/analyze                - Score text")
	log.Info("   POST /api/sentiment/analyze-transcription  - Score a job transcript")
	log.Info("   GET  /api/sentiment/features               - Feature list")
	log.Info("   GET  /api/analyses                         - Analysis history")
	log.Info("   GET  /api/analyses/export                  - History as XLSX")
	log.Info("   GET  /ws/jobs/:id                          - WebSocket job status")
	log.Info("   GET  /health                               - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigint:
		case <-ctx.Done():
		}

		log.Info("Shutting down gracefully...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.WithError(err).Error("HTTP shutdown failed")
		}
	}()

	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server failed: %w", err)
	}

	cancelPool()
	workerPool.Stop()
	log.Info("Server stopped")
	return nil
}
