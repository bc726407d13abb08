package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// whisperFake plays the role of `python -m whisper` by writing a JSON result
// into the requested output directory.
type whisperFake struct {
	output string
	err    error
	args   []string
}

func (f *whisperFake) Run(_ context.Context, _ string, args ...string) error {
	f.args = args
	if f.err != nil {
		return f.err
	}
	var outDir, audio string
	for i, a := range args {
		if a == "--output_dir" {
			outDir = args[i+1]
		}
	}
	audio = args[2]
	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	return os.WriteFile(filepath.Join(outDir, base+".json"), []byte(f.output), 0o644)
}

func (f *whisperFake) Output(context.Context, string, ...string) ([]byte, error) {
	return nil, nil
}

func TestWhisperRecognizeReplaysSegments(t *testing.T) {
	fake := &whisperFake{output: `{
		"text": " The screen is stunning. The sound is weak.",
		"language": "en",
		"segments": [
			{"id": 0, "start": 0.0, "end": 2.1, "text": " The screen is stunning."},
			{"id": 1, "start": 2.1, "end": 3.0, "text": "   "},
			{"id": 2, "start": 3.0, "end": 4.5, "text": " The sound is weak."}
		]
	}`}
	w := NewWhisperRecognizer("models/ggml-base.bin", WithWhisperRunner(fake), WithWhisperLanguage("pl-PL"))

	events, err := w.Recognize(context.Background(), filepath.Join(t.TempDir(), "job.wav"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	got := collect(t, events)

	if len(got) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(got), got)
	}
	if got[0].Text != "The screen is stunning." || got[1].Text != "The sound is weak." {
		t.Errorf("unexpected segments %+v", got)
	}
	if got[2].Kind != EventSessionStopped {
		t.Errorf("last event = %s", got[2].Kind)
	}

	joined := strings.Join(fake.args, " ")
	if !strings.Contains(joined, "--model base") || !strings.Contains(joined, "--language pl") {
		t.Errorf("unexpected whisper args %q", joined)
	}
}

func TestWhisperRecognizeFailure(t *testing.T) {
	fake := &whisperFake{err: errors.New("exit status 1")}
	w := NewWhisperRecognizer("small", WithWhisperRunner(fake))

	events, err := w.Recognize(context.Background(), filepath.Join(t.TempDir(), "job.wav"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	got := collect(t, events)
	if len(got) != 1 || got[0].Kind != EventCanceled || got[0].Err == nil {
		t.Fatalf("expected one canceled event, got %+v", got)
	}
}

func TestWhisperModelName(t *testing.T) {
	tests := map[string]string{
		"ggml-tiny.bin": "tiny",
		"medium":        "medium",
		"large-v3":      "large",
		"":              "small",
		"custom":        "small",
	}
	for in, want := range tests {
		if got := modelName(in); got != want {
			t.Errorf("modelName(%q) = %q, want %q", in, got, want)
		}
	}
}
