package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

const (
	azureEndpointFormat = "https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"
	// the short-audio endpoint rejects requests over 60 seconds
	defaultChunkLength = 50 * time.Second
)

// AzureConfig holds the Speech service settings
type AzureConfig struct {
	Key      string
	Region   string
	Endpoint string // overrides the regional endpoint when set
	Language string
}

// AzureRecognizer transcribes through the Azure Speech short-audio REST API.
// Long audio is cut into chunks that are recognized one after another, so
// segments arrive in playback order.
type AzureRecognizer struct {
	cfg         AzureConfig
	endpoint    string
	client      *http.Client
	chunkLength time.Duration
	newBackOff  func() backoff.BackOff
	log         *logger.Logger
}

// AzureOption configures an AzureRecognizer
type AzureOption func(*AzureRecognizer)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) AzureOption {
	return func(a *AzureRecognizer) {
		a.client = c
	}
}

// WithChunkLength sets the maximum audio length per request
func WithChunkLength(d time.Duration) AzureOption {
	return func(a *AzureRecognizer) {
		if d > 0 {
			a.chunkLength = d
		}
	}
}

// WithBackOff sets the retry policy factory, called once per chunk
func WithBackOff(f func() backoff.BackOff) AzureOption {
	return func(a *AzureRecognizer) {
		a.newBackOff = f
	}
}

// NewAzureRecognizer validates cfg and builds the recognizer
func NewAzureRecognizer(cfg AzureConfig, log *logger.Logger, opts ...AzureOption) (*AzureRecognizer, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: azure speech key is not set", types.ErrConfiguration)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Region == "" {
			return nil, fmt.Errorf("%w: azure speech region is not set", types.ErrConfiguration)
		}
		endpoint = fmt.Sprintf(azureEndpointFormat, cfg.Region)
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}

	a := &AzureRecognizer{
		cfg:         cfg,
		endpoint:    endpoint,
		client:      &http.Client{Timeout: 2 * time.Minute},
		chunkLength: defaultChunkLength,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = 30 * time.Second
			return bo
		},
		log: log.Component("azure_speech"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Validate implements Recognizer
func (a *AzureRecognizer) Validate() error {
	if a.cfg.Key == "" {
		return fmt.Errorf("%w: azure speech key is not set", types.ErrConfiguration)
	}
	return nil
}

// Recognize implements Recognizer
func (a *AzureRecognizer) Recognize(ctx context.Context, wavPath string) (<-chan Event, error) {
	pcm, err := ReadWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", wavPath, err)
	}

	chunks := pcm.Split(a.chunkLength)
	a.log.WithFields(logrus.Fields{
		"wav":      wavPath,
		"duration": pcm.Duration().String(),
		"chunks":   len(chunks),
	}).Info("Starting recognition")

	events := make(chan Event, 1)
	go func() {
		for i, chunk := range chunks {
			text, err := a.recognizeChunk(ctx, chunk, pcm.SampleRate)
			if err != nil {
				finish(ctx, events, Event{
					Kind: EventCanceled,
					Err:  fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err),
				})
				return
			}
			if text == "" {
				continue
			}
			a.log.WithField("chunk", i+1).Debugf("Recognized: %s", text)
			if !emit(ctx, events, Event{Kind: EventRecognized, Text: text}) {
				finish(ctx, events, Event{Kind: EventCanceled, Err: ctx.Err()})
				return
			}
		}
		finish(ctx, events, Event{Kind: EventSessionStopped})
	}()

	return events, nil
}

// azureResponse is the simple-format recognition result
type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

func (a *AzureRecognizer) requestURL() string {
	q := url.Values{}
	q.Set("language", a.cfg.Language)
	q.Set("format", "simple")
	if strings.Contains(a.endpoint, "?") {
		return a.endpoint + "&" + q.Encode()
	}
	return a.endpoint + "?" + q.Encode()
}

// recognizeChunk posts one WAV chunk. Throttling and server errors are
// retried, other HTTP errors are permanent. Silence yields "".
func (a *AzureRecognizer) recognizeChunk(ctx context.Context, wav []byte, sampleRate int) (string, error) {
	var result azureResponse

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.requestURL(), bytes.NewReader(wav))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", a.cfg.Key)
		req.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", sampleRate))
		req.Header.Set("Accept", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			a.log.WithField("status", resp.StatusCode).Warn("Speech service unavailable, retrying")
			return fmt.Errorf("speech service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("speech service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}

		if err := json.Unmarshal(body, &result); err != nil {
			return backoff.Permanent(fmt.Errorf("decode recognition result: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(a.newBackOff(), ctx)); err != nil {
		return "", err
	}

	switch result.RecognitionStatus {
	case "Success":
		return strings.TrimSpace(result.DisplayText), nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return "", nil
	default:
		return "", fmt.Errorf("recognition status %q", result.RecognitionStatus)
	}
}
