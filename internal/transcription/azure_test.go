package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/codebuildervaibhav/video-sentiment/internal/config"
	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

func writeTestWAV(t *testing.T, seconds float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.wav")
	if err := os.WriteFile(path, EncodeWAV(1, 16000, 16, pcmSeconds(seconds)), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fastRetry() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
}

func newTestAzure(t *testing.T, srv *httptest.Server) *AzureRecognizer {
	t.Helper()
	r, err := NewAzureRecognizer(AzureConfig{Key: "test-key", Endpoint: srv.URL + "/stt", Language: "en-US"},
		logger.Discard(),
		WithHTTPClient(srv.Client()),
		WithChunkLength(time.Second),
		WithBackOff(fastRetry),
	)
	if err != nil {
		t.Fatalf("NewAzureRecognizer failed: %v", err)
	}
	return r
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("event stream did not close")
		}
	}
}

func TestAzureRecognizeEmitsChunksInOrder(t *testing.T) {
	responses := []azureResponse{
		{RecognitionStatus: "Success", DisplayText: "The camera is great."},
		{RecognitionStatus: "InitialSilenceTimeout"},
		{RecognitionStatus: "Success", DisplayText: " Battery is weak. "},
	}
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "test-key" {
			t.Errorf("missing subscription key header")
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "samplerate=16000") {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if r.URL.Query().Get("language") != "en-US" || r.URL.Path != "/stt" {
			t.Errorf("unexpected request URL %s", r.URL)
		}
		i := atomic.AddInt32(&calls, 1) - 1
		_ = json.NewEncoder(w).Encode(responses[i])
	}))
	defer srv.Close()

	events, err := newTestAzure(t, srv).Recognize(context.Background(), writeTestWAV(t, 2.5))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	got := collect(t, events)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(got), got)
	}
	if got[0].Text != "The camera is great." || got[1].Text != "Battery is weak." {
		t.Errorf("unexpected texts %q, %q", got[0].Text, got[1].Text)
	}
	if got[2].Kind != EventSessionStopped {
		t.Errorf("last event = %s, want session_stopped", got[2].Kind)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("made %d requests, want 3", n)
	}
}

func TestAzureRecognizeRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(azureResponse{RecognitionStatus: "Success", DisplayText: "hello"})
	}))
	defer srv.Close()

	events, err := newTestAzure(t, srv).Recognize(context.Background(), writeTestWAV(t, 0.5))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	got := collect(t, events)
	if len(got) != 2 || got[0].Text != "hello" || got[1].Kind != EventSessionStopped {
		t.Fatalf("unexpected events %+v", got)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("made %d requests, want 2", n)
	}
}

func TestAzureRecognizeCancelsOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	events, err := newTestAzure(t, srv).Recognize(context.Background(), writeTestWAV(t, 2.5))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	got := collect(t, events)
	if len(got) != 1 || got[0].Kind != EventCanceled {
		t.Fatalf("expected a single canceled event, got %+v", got)
	}
	if !strings.Contains(got[0].Err.Error(), "401") {
		t.Errorf("error should mention status: %v", got[0].Err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("client errors must not be retried, made %d requests", n)
	}
}

func TestAzureRecognizeStopsOnContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	events, err := newTestAzure(t, srv).Recognize(ctx, writeTestWAV(t, 0.5))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	for _, ev := range collect(t, events) {
		if ev.Kind == EventRecognized {
			t.Fatalf("unexpected recognized event %+v", ev)
		}
	}
}

func TestAzureRecognizeRejectsMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := newTestAzure(t, srv).Recognize(context.Background(), filepath.Join(t.TempDir(), "none.wav")); err == nil {
		t.Fatal("expected error for missing WAV")
	}
}

func TestNewAzureRecognizerRequiresCredentials(t *testing.T) {
	tests := []AzureConfig{
		{Region: "westeurope"},
		{Key: "k"},
	}
	for _, cfg := range tests {
		if _, err := NewAzureRecognizer(cfg, logger.Discard()); !errors.Is(err, types.ErrConfiguration) {
			t.Errorf("NewAzureRecognizer(%+v) = %v, want ErrConfiguration", cfg, err)
		}
	}
}

func TestNewFallsBackToUnconfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Recognizer.Provider = config.ProviderAzure

	r, err := New(cfg, logger.Discard())
	if !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !errors.Is(r.Validate(), types.ErrConfiguration) {
		t.Errorf("Validate should report the configuration error")
	}
	if _, err := r.Recognize(context.Background(), "x.wav"); err == nil {
		t.Error("Recognize should fail")
	}

	cfg.Recognizer.Azure.Key = "k"
	cfg.Recognizer.Azure.Region = "westeurope"
	r, err = New(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := r.(*AzureRecognizer); !ok {
		t.Errorf("expected *AzureRecognizer, got %T", r)
	}
}
