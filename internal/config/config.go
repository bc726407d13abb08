package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// Retention policies for job audio artifacts
const (
	RetentionDelete = "delete"
	RetentionRetain = "retain"
)

// Recognizer providers
const (
	ProviderAzure   = "azure"
	ProviderWhisper = "whisper"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int    `yaml:"port"`
		Host        string `yaml:"host"`
		BodyLimitMB int    `yaml:"body_limit_mb"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Recognizer struct {
		Provider string `yaml:"provider"`
		Language string `yaml:"language"`

		Azure struct {
			Key      string `yaml:"key"`
			Region   string `yaml:"region"`
			Endpoint string `yaml:"endpoint"`
		} `yaml:"azure"`

		Whisper struct {
			Model  string `yaml:"model"`
			Python string `yaml:"python"`
		} `yaml:"whisper"`
	} `yaml:"recognizer"`

	Tools struct {
		YtDlp  string `yaml:"yt_dlp"`
		FFmpeg string `yaml:"ffmpeg"`
	} `yaml:"tools"`

	Jobs struct {
		Workers                int `yaml:"workers"`
		QueueSize              int `yaml:"queue_size"`
		LivenessTimeoutMinutes int `yaml:"liveness_timeout_minutes"`
		AnalyzeWaitMinutes     int `yaml:"analyze_wait_minutes"`
	} `yaml:"jobs"`

	Storage struct {
		StaticDir string `yaml:"static_dir"`
		Database  string `yaml:"database"`
		Retention string `yaml:"retention"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Metadata struct {
		ResolveTitles bool `yaml:"resolve_titles"`
	} `yaml:"metadata"`
}

// Load reads the YAML file at path, layers .env and environment overrides on
// top and applies defaults. A missing file is not an error; defaults and the
// environment are enough to boot.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	envString("AZURE_SPEECH_KEY", &c.Recognizer.Azure.Key)
	envString("AZURE_SPEECH_REGION", &c.Recognizer.Azure.Region)
	envString("AZURE_SPEECH_ENDPOINT", &c.Recognizer.Azure.Endpoint)
	envString("RECOGNIZER_PROVIDER", &c.Recognizer.Provider)
	envString("STATIC_DIR", &c.Storage.StaticDir)
	envString("DATABASE_PATH", &c.Storage.Database)
	envString("LOG_LEVEL", &c.Logging.Level)
	envString("LOG_FORMAT", &c.Logging.Format)
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.BodyLimitMB == 0 {
		c.Server.BodyLimitMB = 16
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Recognizer.Provider == "" {
		c.Recognizer.Provider = ProviderAzure
	}
	if c.Recognizer.Language == "" {
		c.Recognizer.Language = "en-US"
	}
	if c.Recognizer.Whisper.Model == "" {
		c.Recognizer.Whisper.Model = "small"
	}
	if c.Recognizer.Whisper.Python == "" {
		c.Recognizer.Whisper.Python = "python"
	}
	if c.Tools.YtDlp == "" {
		c.Tools.YtDlp = "yt-dlp"
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if c.Jobs.Workers == 0 {
		c.Jobs.Workers = 2
	}
	if c.Jobs.QueueSize == 0 {
		c.Jobs.QueueSize = 100
	}
	if c.Jobs.LivenessTimeoutMinutes == 0 {
		c.Jobs.LivenessTimeoutMinutes = 20
	}
	if c.Jobs.AnalyzeWaitMinutes == 0 {
		c.Jobs.AnalyzeWaitMinutes = 10
	}
	if c.Storage.StaticDir == "" {
		c.Storage.StaticDir = "static"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "analyses.db"
	}
	if c.Storage.Retention == "" {
		c.Storage.Retention = RetentionDelete
	}
	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 30
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 24
	}
	if c.GoogleDrive.FolderName == "" {
		c.GoogleDrive.FolderName = "Transcripts"
	}
}

// Validate checks values that can be checked without touching the recognizer.
// Credentials are checked separately by RecognizerCredentials so a server
// without them still serves the text-only endpoints.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Storage.Retention {
	case RetentionDelete, RetentionRetain:
	default:
		return fmt.Errorf("storage.retention must be %q or %q, got %q", RetentionDelete, RetentionRetain, c.Storage.Retention)
	}
	switch c.Recognizer.Provider {
	case ProviderAzure, ProviderWhisper:
	default:
		return fmt.Errorf("recognizer.provider must be %q or %q, got %q", ProviderAzure, ProviderWhisper, c.Recognizer.Provider)
	}
	if c.Jobs.Workers < 1 {
		return fmt.Errorf("jobs.workers must be positive")
	}
	return nil
}

// RecognizerCredentials reports a ConfigurationError when the selected provider
// lacks what it needs to run.
func (c *Config) RecognizerCredentials() error {
	if c.Recognizer.Provider != ProviderAzure {
		return nil
	}
	var missing []string
	if c.Recognizer.Azure.Key == "" {
		missing = append(missing, "AZURE_SPEECH_KEY")
	}
	if c.Recognizer.Azure.Region == "" && c.Recognizer.Azure.Endpoint == "" {
		missing = append(missing, "AZURE_SPEECH_REGION")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", types.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// LivenessTimeout bounds a single job's acquisition and recognition
func (c *Config) LivenessTimeout() time.Duration {
	return time.Duration(c.Jobs.LivenessTimeoutMinutes) * time.Minute
}

// AnalyzeWait bounds how long the analyze endpoint waits for its job
func (c *Config) AnalyzeWait() time.Duration {
	return time.Duration(c.Jobs.AnalyzeWaitMinutes) * time.Minute
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
