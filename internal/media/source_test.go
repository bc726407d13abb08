package media

import (
	"errors"
	"testing"

	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want types.Platform
	}{
		{"https://www.youtube.com/watch?v=abc", types.PlatformYouTube},
		{"https://youtu.be/abc", types.PlatformYouTube},
		{"https://m.youtube.com/shorts/cJUVXUF7GNg", types.PlatformYouTube},
		{"https://vimeo.com/123456", types.PlatformVimeo},
		{"https://www.tiktok.com/@user/video/1", types.PlatformTikTok},
		{"https://unsupported-site.com/video/123", types.PlatformUnsupported},
		{"https://notyoutube.com/watch?v=abc", types.PlatformUnsupported},
		{"://broken", types.PlatformUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := DetectPlatform(tt.url); got != tt.want {
				t.Errorf("DetectPlatform(%q) = %s, want %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "youtube", url: "https://www.youtube.com/watch?v=abc"},
		{name: "surrounding whitespace", url: "  https://youtu.be/abc  "},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "youtube.com/watch?v=abc", wantErr: true},
		{name: "ftp scheme", url: "ftp://youtube.com/video", wantErr: true},
		{name: "unsupported platform", url: "https://unsupported-site.com/video/123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ValidateSource(tt.url)
			if tt.wantErr {
				if !errors.Is(err, types.ErrInput) {
					t.Fatalf("expected ErrInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.Platform != types.PlatformYouTube {
				t.Errorf("platform = %s, want youtube", src.Platform)
			}
		})
	}
}

func TestValidateSourceReportsUnsupportedPlatform(t *testing.T) {
	src, err := ValidateSource("https://unsupported-site.com/video/123")
	if err == nil {
		t.Fatal("expected error")
	}
	if src.Platform != types.PlatformUnsupported {
		t.Errorf("platform = %s, want unsupported", src.Platform)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := map[string]string{
		"  iPhone 15 Pro review - YouTube ": "iPhone 15 Pro review",
		"Pixel 8 camera test on Vimeo":      "Pixel 8 camera test",
		"Unboxing | TikTok":                 "Unboxing",
		"Plain":                             "Plain",
	}
	for in, want := range tests {
		if got := CleanTitle(in); got != want {
			t.Errorf("CleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
