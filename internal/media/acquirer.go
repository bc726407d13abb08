package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// Fetcher downloads the audio track of a video to an MP3 file
type Fetcher interface {
	Download(ctx context.Context, videoURL, mp3Path string) error
}

// Converter normalizes an audio file into canonical WAV
type Converter interface {
	Normalize(ctx context.Context, inputPath, outputPath string) error
}

// Acquirer owns the download and normalization steps of a job
type Acquirer struct {
	fetcher   Fetcher
	converter Converter
	log       *logger.Logger
}

// NewAcquirer wires a downloader and a normalizer
func NewAcquirer(fetcher Fetcher, converter Converter, log *logger.Logger) *Acquirer {
	return &Acquirer{
		fetcher:   fetcher,
		converter: converter,
		log:       log.Component("media"),
	}
}

// Acquire makes sure artifacts.WAV holds the normalized audio of src.
//
// Existing files short-circuit their step: a present WAV skips everything and
// a present MP3 skips the download. The MP3 is removed after a successful
// conversion; failing to remove it is only logged. Every failure is an
// ErrAcquisition and is not retried.
func (a *Acquirer) Acquire(ctx context.Context, src Source, artifacts types.Artifacts) error {
	log := a.log.WithField("url", src.URL)

	if fileExists(artifacts.WAV) {
		log.WithField("wav", artifacts.WAV).Info("WAV already present, skipping acquisition")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(artifacts.WAV), 0o755); err != nil {
		return fmt.Errorf("%w: create artifact dir: %v", types.ErrAcquisition, err)
	}

	if fileExists(artifacts.Audio) {
		log.WithField("mp3", artifacts.Audio).Info("Audio already downloaded")
	} else {
		log.Info("Downloading audio")
		if err := a.fetcher.Download(ctx, src.URL, artifacts.Audio); err != nil {
			return fmt.Errorf("%w: %v", types.ErrAcquisition, err)
		}
	}

	if err := a.converter.Normalize(ctx, artifacts.Audio, artifacts.WAV); err != nil {
		// a half-written WAV would make the next attempt skip conversion
		_ = os.Remove(artifacts.WAV)
		return fmt.Errorf("%w: %v", types.ErrAcquisition, err)
	}
	if !fileExists(artifacts.WAV) {
		return fmt.Errorf("%w: converter produced no WAV at %s", types.ErrAcquisition, artifacts.WAV)
	}

	if err := os.Remove(artifacts.Audio); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to remove intermediate MP3")
	}

	log.WithField("wav", artifacts.WAV).Info("Audio normalized")
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
