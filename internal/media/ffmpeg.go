package media

import (
	"context"
	"fmt"
)

// Normalizer converts audio to 16 kHz mono 16-bit PCM WAV using ffmpeg
type Normalizer struct {
	ffmpegPath string
	runner     CommandRunner
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithFFmpegPath sets the ffmpeg executable
func WithFFmpegPath(path string) NormalizerOption {
	return func(n *Normalizer) {
		if path != "" {
			n.ffmpegPath = path
		}
	}
}

// WithNormalizerRunner sets the command runner (for testing)
func WithNormalizerRunner(runner CommandRunner) NormalizerOption {
	return func(n *Normalizer) {
		n.runner = runner
	}
}

// NewNormalizer creates an ffmpeg-based normalizer
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize writes inputPath as canonical WAV to outputPath
func (n *Normalizer) Normalize(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-i", inputPath,
		"-ar", "16000", // 16kHz sample rate
		"-ac", "1", // mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y",
		outputPath,
	}

	if err := n.runner.Run(ctx, n.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg normalization failed: %w", err)
	}
	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (n *Normalizer) VerifyInstalled(ctx context.Context) error {
	if _, err := n.runner.Output(ctx, n.ffmpegPath, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}
