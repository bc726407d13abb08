package queue

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/video-sentiment/internal/config"
	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/media"
	"github.com/codebuildervaibhav/video-sentiment/internal/storage"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobExists   = errors.New("job already exists")
	ErrJobFailed   = errors.New("job failed")
	ErrNotReady    = errors.New("transcript not ready")
)

// Job ids end up in file names
var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Submitter hands a job to background execution
type Submitter interface {
	Submit(job *Job) error
}

// Registry owns every live job of the process, keyed by id. Handlers get it
// by reference; there is no package-level job state.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	staticDir string
	retention string
	submitter Submitter
	log       *logger.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithArtifactRetention selects whether Release deletes the files of a
// successful job
func WithArtifactRetention(policy string) RegistryOption {
	return func(r *Registry) {
		r.retention = policy
	}
}

// NewRegistry creates an empty registry whose jobs keep their artifacts in
// staticDir
func NewRegistry(staticDir string, submitter Submitter, log *logger.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		jobs:      make(map[string]*Job),
		staticDir: staticDir,
		retention: config.RetentionDelete,
		submitter: submitter,
		log:       log.Component("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidJobID reports whether id is usable as a job identifier
func ValidJobID(id string) bool {
	return jobIDPattern.MatchString(id)
}

// Create validates rawURL and registers a new job in the created state. An
// empty id gets a generated one. Nothing runs until Start.
//
// An id is taken while it is registered or while any of its files remain on
// disk, so a new job never inherits audio or a transcript from an earlier run.
func (r *Registry) Create(id, rawURL string) (*Job, error) {
	src, err := media.ValidateSource(rawURL)
	if err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	if !ValidJobID(id) {
		return nil, fmt.Errorf("%w: job id %q must be 1-64 letters, digits, '-' or '_'", types.ErrInput, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrJobExists, id)
	}
	artifacts := types.ArtifactsFor(r.staticDir, id)
	if storage.AnyExists(artifacts.All()...) {
		return nil, fmt.Errorf("%w: %s still has artifacts on disk", ErrJobExists, id)
	}

	job := NewJob(id, src, artifacts)
	r.jobs[id] = job

	r.log.WithJob(id).WithField("platform", src.Platform).Info("Job created")
	return job, nil
}

// Get looks a job up by id
func (r *Registry) Get(id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Start submits the job for execution. Repeated calls are no-ops. A job the
// pool refuses is failed right away so pollers observe the refusal.
func (r *Registry) Start(id string) (*Job, error) {
	job, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if !job.markSubmitted() {
		return job, nil
	}

	if err := r.submitter.Submit(job); err != nil {
		writeFailureMarker(job, err, r.log)
		job.fail(err)
		r.log.WithJob(id).WithError(err).Error("Job could not be scheduled")
		return job, err
	}
	return job, nil
}

// Status returns the status of a job. It never blocks on job execution.
func (r *Registry) Status(id string) (Status, error) {
	job, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}
	return job.Status(), nil
}

// Transcript returns the finished transcript of a job. Unfinished jobs give
// ErrNotReady, failed jobs ErrJobFailed. Transcripts left on disk by an
// earlier process are still served after the job itself is gone.
func (r *Registry) Transcript(id string) (string, error) {
	job, err := r.Get(id)
	if errors.Is(err, ErrJobNotFound) {
		return r.transcriptFromDisk(id)
	}

	switch job.State() {
	case StateDone:
		text, err := storage.ReadTranscript(job.Artifacts.Transcript)
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNotReady
		}
		return text, err
	case StateFailed:
		return "", fmt.Errorf("%w: %v", ErrJobFailed, job.Err())
	default:
		return "", ErrNotReady
	}
}

func (r *Registry) transcriptFromDisk(id string) (string, error) {
	if !ValidJobID(id) {
		return "", ErrJobNotFound
	}
	text, err := storage.ReadTranscript(types.ArtifactsFor(r.staticDir, id).Transcript)
	if err != nil {
		return "", ErrJobNotFound
	}
	if strings.HasPrefix(text, types.FailedTranscriptPrefix) {
		return "", fmt.Errorf("%w: %s", ErrJobFailed, text)
	}
	return text, nil
}

// Release forgets a terminal job. A successful job's artifacts are deleted
// under the delete policy. Failed jobs and retained artifacts stay for the
// cleanup sweep, as do running jobs, which are not released at all.
func (r *Registry) Release(id string) bool {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || !job.State().Terminal() {
		r.mu.Unlock()
		return false
	}
	delete(r.jobs, id)
	r.mu.Unlock()

	if job.State() == StateFailed || r.retention == config.RetentionRetain {
		return true
	}
	if err := storage.RemoveFiles(job.Artifacts.All()...); err != nil {
		r.log.WithJob(id).WithError(err).Warn("Failed to remove job artifacts")
	}
	return true
}

// Active reports whether id belongs to a job that has not finished
func (r *Registry) Active(id string) bool {
	job, err := r.Get(id)
	return err == nil && !job.State().Terminal()
}

// Prune forgets terminal jobs that finished more than maxAge ago. Their
// artifacts stay on disk for the cleanup sweep.
func (r *Registry) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for id, job := range r.jobs {
		if job.State().Terminal() && job.FinishedAt().Before(cutoff) {
			delete(r.jobs, id)
			n++
		}
	}
	return n
}

// List returns all jobs, oldest first
func (r *Registry) List() []*Job {
	r.mu.RLock()
	jobs := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(a, b int) bool {
		return jobs[a].CreatedAt.Before(jobs[b].CreatedAt)
	})
	return jobs
}
