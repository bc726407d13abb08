package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// ErrNotFound is returned when a stored record or file does not exist
var ErrNotFound = errors.New("not found")

// LocalStorage manages the job artifacts under the static directory
type LocalStorage struct {
	staticDir string
}

// NewLocalStorage creates the static directory if needed
func NewLocalStorage(staticDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(staticDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create static directory: %w", err)
	}
	return &LocalStorage{staticDir: staticDir}, nil
}

// Dir returns the static directory
func (ls *LocalStorage) Dir() string {
	return ls.staticDir
}

// Artifacts returns the artifact paths of a job
func (ls *LocalStorage) Artifacts(jobID string) types.Artifacts {
	return types.ArtifactsFor(ls.staticDir, jobID)
}

// WriteTranscript replaces the transcript at path. The text lands in a
// temporary file first and is renamed into place, so readers never observe a
// partially written transcript.
func WriteTranscript(path, text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// ReadTranscript returns the transcript text. A missing or empty file is ErrNotFound.
func ReadTranscript(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", ErrNotFound
	}
	return string(b), nil
}

// TranscriptAvailable reports whether a non-empty transcript exists at path
func TranscriptAvailable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// AnyExists reports whether any of paths is present. Stat errors other than
// not-exist count as present.
func AnyExists(paths ...string) bool {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			return true
		}
	}
	return false
}

// RemoveFiles deletes every path, ignoring files that are already gone
func RemoveFiles(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
