package types

import "errors"

// Error taxonomy shared by the pipeline and the HTTP layer. Callers wrap these
// with fmt.Errorf("...: %w", Err...) and match with errors.Is.
var (
	// ErrInput marks a bad URL, platform, feature or empty text. Never retried.
	ErrInput = errors.New("invalid input")

	// ErrAcquisition marks a download or conversion failure. Fatal to the job.
	ErrAcquisition = errors.New("audio acquisition failed")

	// ErrRecognitionTimeout marks a job that hit its liveness bound.
	ErrRecognitionTimeout = errors.New("recognition timed out")

	// ErrRecognition marks a recognizer cancellation that is not a timeout.
	ErrRecognition = errors.New("recognition failed")

	// ErrConfiguration marks missing or invalid recognizer settings.
	ErrConfiguration = errors.New("configuration error")
)
