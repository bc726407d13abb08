package media

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Downloader fetches the audio track of a video with yt-dlp
type Downloader struct {
	binaryPath string
	runner     CommandRunner
}

// DownloaderOption configures a Downloader
type DownloaderOption func(*Downloader)

// WithYtDlpPath sets the yt-dlp executable
func WithYtDlpPath(path string) DownloaderOption {
	return func(d *Downloader) {
		if path != "" {
			d.binaryPath = path
		}
	}
}

// WithDownloaderRunner sets the command runner (for testing)
func WithDownloaderRunner(runner CommandRunner) DownloaderOption {
	return func(d *Downloader) {
		d.runner = runner
	}
}

// NewDownloader creates a yt-dlp downloader. A yt-dlp.exe next to the binary
// wins over PATH lookup on Windows hosts.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		binaryPath: "yt-dlp",
		runner:     &ExecCommandRunner{},
	}
	if _, err := os.Stat("yt-dlp.exe"); err == nil {
		d.binaryPath = ".\\yt-dlp.exe"
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download extracts the lowest-quality audio stream of videoURL as MP3 at
// mp3Path. Speech recognition gains nothing from higher bitrates.
func (d *Downloader) Download(ctx context.Context, videoURL, mp3Path string) error {
	template := strings.TrimSuffix(mp3Path, ".mp3") + ".%(ext)s"
	args := []string{
		"-f", "worstaudio",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "8",
		"--no-playlist",
		"--no-progress",
		"-o", template,
		videoURL,
	}

	if err := d.runner.Run(ctx, d.binaryPath, args...); err != nil {
		return fmt.Errorf("yt-dlp download failed: %w", err)
	}
	if _, err := os.Stat(mp3Path); err != nil {
		return fmt.Errorf("yt-dlp produced no audio at %s: %w", mp3Path, err)
	}
	return nil
}

// VerifyInstalled checks that yt-dlp is available
func (d *Downloader) VerifyInstalled(ctx context.Context) error {
	if _, err := d.runner.Output(ctx, d.binaryPath, "--version"); err != nil {
		return fmt.Errorf("yt-dlp not found or not executable: %w", err)
	}
	return nil
}
