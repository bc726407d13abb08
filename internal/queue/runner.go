package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codebuildervaibhav/video-sentiment/internal/config"
	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/media"
	"github.com/codebuildervaibhav/video-sentiment/internal/storage"
	"github.com/codebuildervaibhav/video-sentiment/internal/transcription"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// Acquirer produces the normalized WAV of a job
type Acquirer interface {
	Acquire(ctx context.Context, src media.Source, artifacts types.Artifacts) error
}

// Exporter publishes a finished transcript somewhere outside the server
type Exporter interface {
	Export(ctx context.Context, t storage.TranscriptExport) (string, error)
}

const exportTimeout = 2 * time.Minute

// Runner drives a job through acquisition and recognition. It is the only
// code that moves a running job between states.
type Runner struct {
	acquirer   Acquirer
	recognizer transcription.Recognizer
	liveness   time.Duration
	retention  string
	exporter   Exporter
	log        *logger.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLiveness bounds acquisition plus recognition of one job
func WithLiveness(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.liveness = d
		}
	}
}

// WithRetention selects whether the WAV survives a successful job
func WithRetention(policy string) RunnerOption {
	return func(r *Runner) {
		r.retention = policy
	}
}

// WithExporter uploads finished transcripts. Export failures never fail a job.
func WithExporter(e Exporter) RunnerOption {
	return func(r *Runner) {
		r.exporter = e
	}
}

// NewRunner creates a job runner
func NewRunner(acquirer Acquirer, recognizer transcription.Recognizer, log *logger.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		acquirer:   acquirer,
		recognizer: recognizer,
		liveness:   20 * time.Minute,
		retention:  config.RetentionDelete,
		log:        log.Component("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes job to done or failed and returns the failure, if any. Every
// failure is also recorded on the job and in its transcript artifact.
func (r *Runner) Run(ctx context.Context, job *Job) error {
	log := r.log.WithJob(job.ID)
	job.begin()

	if err := r.recognizer.Validate(); err != nil {
		return r.failJob(job, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.liveness)
	defer cancel()

	// a transcript from an earlier run of the same id would read as fresh
	if err := storage.RemoveFiles(job.Artifacts.Transcript); err != nil {
		return r.failJob(job, err)
	}

	job.setState(StateAcquiring)
	log.WithField("state", StateAcquiring).Info("Acquiring audio")
	if err := r.acquirer.Acquire(ctx, job.Source(), job.Artifacts); err != nil {
		return r.failJob(job, r.classify(ctx, err))
	}

	job.setState(StateTranscribing)
	log.WithField("state", StateTranscribing).Info("Recognizing speech")
	text, err := r.recognize(ctx, job)
	if err != nil {
		return r.failJob(job, r.classify(ctx, err))
	}
	if text == "" {
		text = types.NoSpeechTranscript
	}

	if err := storage.WriteTranscript(job.Artifacts.Transcript, text); err != nil {
		return r.failJob(job, err)
	}

	if r.exporter != nil && text != types.NoSpeechTranscript {
		r.export(ctx, job, text)
	}

	job.complete()
	log.WithField("state", StateDone).WithField("characters", len([]rune(text))).Info("Job completed")

	if r.retention == config.RetentionDelete {
		if err := storage.RemoveFiles(job.Artifacts.WAV); err != nil {
			log.WithError(err).Warn("Failed to remove normalized audio")
		}
	}
	return nil
}

// recognize collects Recognized segments in arrival order until the session
// ends or ctx expires
func (r *Runner) recognize(ctx context.Context, job *Job) (string, error) {
	events, err := r.recognizer.Recognize(ctx, job.Artifacts.WAV)
	if err != nil {
		if errors.Is(err, types.ErrRecognition) || errors.Is(err, types.ErrConfiguration) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", types.ErrRecognition, err)
	}

	var segments []string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return "", fmt.Errorf("%w: session closed without a terminal event", types.ErrRecognition)
			}
			switch ev.Kind {
			case transcription.EventRecognized:
				if text := strings.TrimSpace(ev.Text); text != "" {
					segments = append(segments, text)
				}
			case transcription.EventSessionStopped:
				return strings.Join(segments, " "), nil
			case transcription.EventCanceled:
				if ev.Err == nil {
					return "", fmt.Errorf("%w: session canceled", types.ErrRecognition)
				}
				if errors.Is(ev.Err, types.ErrRecognition) {
					return "", ev.Err
				}
				return "", fmt.Errorf("%w: %w", types.ErrRecognition, ev.Err)
			}
		}
	}
}

// export runs after the transcript is durable but before the job is done,
// so whoever waits on the job sees the link. It gets its own deadline.
func (r *Runner) export(ctx context.Context, job *Job, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
	defer cancel()

	url, err := r.exporter.Export(ctx, storage.TranscriptExport{
		JobID:     job.ID,
		SourceURL: job.SourceURL,
		Platform:  string(job.Platform),
		Text:      text,
		Finished:  time.Now(),
	})
	if err != nil {
		r.log.WithJob(job.ID).WithError(err).Warn("Transcript export failed, keeping local copy only")
		return
	}
	job.setDriveURL(url)
	r.log.WithJob(job.ID).WithField("url", url).Info("Transcript exported")
}

// classify maps an expired liveness deadline to ErrRecognitionTimeout and
// bare cancellations to ErrRecognition
func (r *Runner) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", types.ErrRecognitionTimeout, r.liveness)
	}
	if errors.Is(err, context.Canceled) && !errors.Is(err, types.ErrAcquisition) && !errors.Is(err, types.ErrRecognition) {
		return fmt.Errorf("%w: %v", types.ErrRecognition, err)
	}
	return err
}

func (r *Runner) failJob(job *Job, err error) error {
	writeFailureMarker(job, err, r.log)
	job.fail(err)
	r.log.WithJob(job.ID).WithField("state", StateFailed).WithError(err).Error("Job failed")
	return err
}

// writeFailureMarker leaves the diagnostic transcript pollers read
func writeFailureMarker(job *Job, err error, log *logger.Logger) {
	if werr := storage.WriteTranscript(job.Artifacts.Transcript, types.FailedTranscript(err.Error())); werr != nil {
		log.WithJob(job.ID).WithError(werr).Warn("Failed to write failure marker")
	}
}
