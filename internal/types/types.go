package types

import (
	"path/filepath"
	"time"
)

// Platform identifies the video host a source URL belongs to
type Platform string

// Platform constants
const (
	PlatformYouTube     Platform = "youtube"
	PlatformVimeo       Platform = "vimeo"
	PlatformTikTok      Platform = "tiktok"
	PlatformUnsupported Platform = "unsupported"
)

// SupportedPlatforms lists the platforms a job can be created for
var SupportedPlatforms = []Platform{PlatformYouTube, PlatformVimeo, PlatformTikTok}

// Supported reports whether audio can be acquired from the platform
func (p Platform) Supported() bool {
	for _, s := range SupportedPlatforms {
		if p == s {
			return true
		}
	}
	return false
}

// Transcript sentinels. Both start with '[' so they never collide with recognized speech.
const (
	NoSpeechTranscript     = "[No speech detected]"
	FailedTranscriptPrefix = "[Transcription failed: "
)

// FailedTranscript renders the failure marker written to a job's transcript artifact
func FailedTranscript(reason string) string {
	return FailedTranscriptPrefix + reason + "]"
}

// TranscriptionResult represents the output of a finished recognition run
type TranscriptionResult struct {
	JobID       string
	Text        string
	Language    string
	Duration    float64
	Segments    []Segment
	WordCount   int
	ProcessedAt time.Time
	LocalPath   string
	GDriveURL   string
}

// Segment represents a timestamped segment of transcription
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Artifacts are the per-job files under the static directory
type Artifacts struct {
	Audio      string // downloaded .mp3
	WAV        string // normalized 16 kHz mono .wav
	Transcript string // .txt, transcript or sentinel
}

// ArtifactsFor derives the artifact paths of a job
func ArtifactsFor(staticDir, jobID string) Artifacts {
	base := filepath.Join(staticDir, jobID)
	return Artifacts{
		Audio:      base + ".mp3",
		WAV:        base + ".wav",
		Transcript: base + ".txt",
	}
}

// All returns every artifact path
func (a Artifacts) All() []string {
	return []string{a.Audio, a.WAV, a.Transcript}
}
