package queue

import (
	"sync"
	"time"

	"github.com/codebuildervaibhav/video-sentiment/internal/media"
	"github.com/codebuildervaibhav/video-sentiment/internal/storage"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// State is the lifecycle position of a job
type State string

// Job states. StateDone and StateFailed are terminal.
const (
	StateCreated      State = "created"
	StateAcquiring    State = "acquiring"
	StateTranscribing State = "transcribing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Status is the non-blocking view of a job served to pollers
type Status struct {
	Done                bool   `json:"transcription_done"`
	TranscriptAvailable bool   `json:"transcript_available"`
	State               State  `json:"state"`
	Error               string `json:"error,omitempty"`
}

// Job represents one acquisition and transcription run for a source URL.
// Exported fields are fixed at creation; everything else is guarded by mu and
// only mutated from inside the queue package.
type Job struct {
	ID        string
	SourceURL string
	Platform  types.Platform
	Artifacts types.Artifacts
	CreatedAt time.Time

	mu         sync.RWMutex
	state      State
	done       bool
	submitted  bool
	startedAt  time.Time
	finishedAt time.Time
	err        error
	driveURL   string
	finished   chan struct{}
}

// NewJob creates a job in the created state
func NewJob(id string, src media.Source, artifacts types.Artifacts) *Job {
	return &Job{
		ID:        id,
		SourceURL: src.URL,
		Platform:  src.Platform,
		Artifacts: artifacts,
		CreatedAt: time.Now(),
		state:     StateCreated,
		finished:  make(chan struct{}),
	}
}

// Source returns what the job acquires audio from
func (j *Job) Source() media.Source {
	return media.Source{URL: j.SourceURL, Platform: j.Platform}
}

// State returns the current state
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Done reports the completion flag. Once true it stays true.
func (j *Job) Done() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.done
}

// Err returns the terminal error of a failed job
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// DriveURL returns where the transcript was exported, if anywhere
func (j *Job) DriveURL() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.driveURL
}

// StartedAt is zero until a worker picks the job up
func (j *Job) StartedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.startedAt
}

// FinishedAt is zero until the job is terminal
func (j *Job) FinishedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finishedAt
}

// Finished is closed when the job enters done or failed
func (j *Job) Finished() <-chan struct{} {
	return j.finished
}

// Status snapshots the job together with the transcript artifact
func (j *Job) Status() Status {
	j.mu.RLock()
	st := Status{Done: j.done, State: j.state}
	if j.err != nil {
		st.Error = j.err.Error()
	}
	j.mu.RUnlock()

	st.TranscriptAvailable = storage.TranscriptAvailable(j.Artifacts.Transcript)
	return st
}

// markSubmitted flips the one-shot submission latch
func (j *Job) markSubmitted() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.submitted {
		return false
	}
	j.submitted = true
	return true
}

func (j *Job) begin() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.startedAt.IsZero() {
		j.startedAt = time.Now()
	}
}

// setState moves a running job forward. Terminal states are final.
func (j *Job) setState(s State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.state = s
}

func (j *Job) setDriveURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.driveURL = url
}

func (j *Job) complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.state = StateDone
	j.done = true
	j.finishedAt = time.Now()
	close(j.finished)
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.state = StateFailed
	j.err = err
	j.finishedAt = time.Now()
	close(j.finished)
}
