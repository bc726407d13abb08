package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/media"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// WhisperRecognizer runs OpenAI Whisper locally through `python -m whisper`.
// One transcription runs at a time since the model saturates the CPU.
type WhisperRecognizer struct {
	model    string
	python   string
	language string
	runner   media.CommandRunner
	log      *logger.Logger
	mu       sync.Mutex
}

// WhisperOption configures a WhisperRecognizer
type WhisperOption func(*WhisperRecognizer)

// WithPython sets the python interpreter
func WithPython(python string) WhisperOption {
	return func(w *WhisperRecognizer) {
		if python != "" {
			w.python = python
		}
	}
}

// WithWhisperLanguage sets the spoken language. Region suffixes are dropped
// because whisper takes bare language codes.
func WithWhisperLanguage(lang string) WhisperOption {
	return func(w *WhisperRecognizer) {
		if lang != "" {
			w.language = strings.ToLower(strings.SplitN(lang, "-", 2)[0])
		}
	}
}

// WithWhisperRunner sets the command runner (for testing)
func WithWhisperRunner(r media.CommandRunner) WhisperOption {
	return func(w *WhisperRecognizer) {
		w.runner = r
	}
}

// WithWhisperLogger sets the logger
func WithWhisperLogger(log *logger.Logger) WhisperOption {
	return func(w *WhisperRecognizer) {
		w.log = log.Component("whisper")
	}
}

// NewWhisperRecognizer creates a recognizer for the named model (tiny, base,
// small, medium, large). Anything else falls back to small.
func NewWhisperRecognizer(model string, opts ...WhisperOption) *WhisperRecognizer {
	w := &WhisperRecognizer{
		model:    modelName(model),
		python:   "python",
		language: "en",
		runner:   &media.ExecCommandRunner{},
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func modelName(path string) string {
	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		if strings.Contains(path, name) {
			return name
		}
	}
	return "small"
}

// Validate implements Recognizer
func (w *WhisperRecognizer) Validate() error {
	if _, err := exec.LookPath(w.python); err != nil {
		return fmt.Errorf("%w: python interpreter %q not found", types.ErrConfiguration, w.python)
	}
	return nil
}

// Recognize implements Recognizer. Whisper runs to completion before the
// segments are replayed on the channel in order.
func (w *WhisperRecognizer) Recognize(ctx context.Context, wavPath string) (<-chan Event, error) {
	absPath, err := filepath.Abs(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	events := make(chan Event, 1)
	go func() {
		result, err := w.transcribe(ctx, absPath)
		if err != nil {
			finish(ctx, events, Event{Kind: EventCanceled, Err: err})
			return
		}
		for _, seg := range result.Segments {
			if seg.Text == "" {
				continue
			}
			if !emit(ctx, events, Event{Kind: EventRecognized, Text: seg.Text}) {
				finish(ctx, events, Event{Kind: EventCanceled, Err: ctx.Err()})
				return
			}
		}
		finish(ctx, events, Event{Kind: EventSessionStopped})
	}()
	return events, nil
}

func (w *WhisperRecognizer) transcribe(ctx context.Context, audioPath string) (*types.TranscriptionResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	outDir, err := os.MkdirTemp("", "whisper_output")
	if err != nil {
		return nil, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	w.log.WithField("wav", audioPath).Infof("Transcribing with whisper model %s", w.model)

	err = w.runner.Run(ctx, w.python, "-m", "whisper",
		audioPath,
		"--model", w.model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--language", w.language,
		"--fp16", "False", // CPU compatibility
	)
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonData, err := os.ReadFile(filepath.Join(outDir, baseName+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(jsonData, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %w", err)
	}

	segments := make([]types.Segment, len(out.Segments))
	for i, seg := range out.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	var duration float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	w.log.Infof("Whisper finished: %d segments, %.2fs", len(segments), duration)
	return &types.TranscriptionResult{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
		Duration: duration,
		Segments: segments,
	}, nil
}

// whisperOutput matches the JSON written by `whisper --output_format json`
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
