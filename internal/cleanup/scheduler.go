package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
)

// ArtifactExtensions are the job artifact suffixes the sweep may delete.
// Matching is on the literal extension of the file name.
var ArtifactExtensions = []string{".mp3", ".wav", ".txt"}

// JobIndex tells the sweep which jobs are still in flight
type JobIndex interface {
	Active(jobID string) bool
	Prune(maxAge time.Duration) int
}

// Scheduler handles cleanup of stale job artifacts
type Scheduler struct {
	staticDir string
	interval  time.Duration
	maxAge    time.Duration
	jobs      JobIndex
	log       *logger.Logger
	now       func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a new cleanup scheduler. jobs may be nil.
func NewScheduler(staticDir string, interval, maxAge time.Duration, jobs JobIndex, log *logger.Logger) *Scheduler {
	return &Scheduler{
		staticDir: staticDir,
		interval:  interval,
		maxAge:    maxAge,
		jobs:      jobs,
		log:       log.Component("cleanup"),
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval
func (s *Scheduler) Start() {
	s.log.Info("Running initial artifact cleanup")
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopChan:
				return
			}
		}
	}()

	s.log.Infof("Cleanup scheduler started (interval: %s, max age: %s)", s.interval, s.maxAge)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("Cleanup scheduler stopped")
	})
}

// Sweep deletes artifacts older than maxAge that belong to no running job
// and forgets finished jobs of the same age. It returns the number of files
// deleted.
func (s *Scheduler) Sweep() int {
	if s.jobs != nil {
		if n := s.jobs.Prune(s.maxAge); n > 0 {
			s.log.Debugf("Forgot %d finished jobs", n)
		}
	}

	entries, err := os.ReadDir(s.staticDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Error("Error during cleanup")
		}
		return 0
	}

	now := s.now()
	var deletedCount int
	var deletedSize int64

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !isArtifact(ext) {
			continue
		}
		if s.jobs != nil && s.jobs.Active(strings.TrimSuffix(name, ext)) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			continue
		}

		path := filepath.Join(s.staticDir, name)
		if err := os.Remove(path); err != nil {
			s.log.WithError(err).Warnf("Failed to delete old artifact %s", name)
			continue
		}
		deletedCount++
		deletedSize += info.Size()
		s.log.Debugf("Deleted old artifact: %s (age: %s, size: %dKB)", name, age.Round(time.Minute), info.Size()/1024)
	}

	if deletedCount > 0 {
		s.log.Infof("Cleanup complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
	return deletedCount
}

func isArtifact(ext string) bool {
	for _, e := range ArtifactExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
