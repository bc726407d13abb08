// Package transcription adapts speech recognition services to a single
// streaming interface: ordered text segments followed by one terminal event.
package transcription

import (
	"context"
	"fmt"

	"github.com/codebuildervaibhav/video-sentiment/internal/config"
	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
)

// EventKind discriminates recognizer events
type EventKind int

// Event kinds
const (
	EventRecognized EventKind = iota
	EventSessionStopped
	EventCanceled
)

func (k EventKind) String() string {
	switch k {
	case EventRecognized:
		return "recognized"
	case EventSessionStopped:
		return "session_stopped"
	case EventCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is emitted by a recognition session. Recognized events carry Text,
// Canceled carries Err.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Terminal reports whether the event ends the session
func (e Event) Terminal() bool {
	return e.Kind != EventRecognized
}

// Recognizer turns a canonical WAV file into a stream of events. The channel
// delivers Recognized events in order, then exactly one SessionStopped or
// Canceled event, and is then closed. A cancelled ctx ends the session early;
// the Canceled event carrying ctx.Err() is only delivered if the consumer is
// still reading, so consumers watch ctx themselves.
type Recognizer interface {
	// Validate fails fast when the recognizer cannot possibly run
	Validate() error
	Recognize(ctx context.Context, wavPath string) (<-chan Event, error)
}

// Unconfigured is installed when the configured provider lacks credentials.
// The server still boots; every job fails at start with the stored error.
type Unconfigured struct {
	Err error
}

// Validate returns the configuration error
func (u Unconfigured) Validate() error { return u.Err }

// Recognize always fails
func (u Unconfigured) Recognize(context.Context, string) (<-chan Event, error) {
	return nil, u.Err
}

// New builds the recognizer selected by cfg.Recognizer.Provider. Missing
// credentials yield an Unconfigured recognizer together with the error so
// the caller can log it.
func New(cfg *config.Config, log *logger.Logger) (Recognizer, error) {
	if err := cfg.RecognizerCredentials(); err != nil {
		return Unconfigured{Err: err}, err
	}

	switch cfg.Recognizer.Provider {
	case config.ProviderWhisper:
		return NewWhisperRecognizer(
			cfg.Recognizer.Whisper.Model,
			WithPython(cfg.Recognizer.Whisper.Python),
			WithWhisperLanguage(cfg.Recognizer.Language),
			WithWhisperLogger(log),
		), nil
	default:
		az := cfg.Recognizer.Azure
		r, err := NewAzureRecognizer(AzureConfig{
			Key:      az.Key,
			Region:   az.Region,
			Endpoint: az.Endpoint,
			Language: cfg.Recognizer.Language,
		}, log)
		if err != nil {
			return Unconfigured{Err: err}, err
		}
		return r, nil
	}
}

// emit sends ev unless ctx is done. It reports whether the send happened.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// finish delivers the terminal event and closes the stream. After ctx is
// done the event is dropped when nobody is receiving.
func finish(ctx context.Context, events chan<- Event, ev Event) {
	defer close(events)
	if ctx.Err() != nil {
		ev = Event{Kind: EventCanceled, Err: ctx.Err()}
		select {
		case events <- ev:
		default:
		}
		return
	}
	emit(ctx, events, ev)
}
