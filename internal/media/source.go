// Package media turns a video URL into a 16 kHz mono WAV file ready for
// speech recognition.
package media

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// Source is a validated video URL
type Source struct {
	URL      string
	Platform types.Platform
}

var platformHosts = map[string]types.Platform{
	"youtube.com": types.PlatformYouTube,
	"youtu.be":    types.PlatformYouTube,
	"vimeo.com":   types.PlatformVimeo,
	"tiktok.com":  types.PlatformTikTok,
}

// DetectPlatform maps a URL onto the platform serving it. Subdomains such as
// www. and m. are accepted.
func DetectPlatform(raw string) types.Platform {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return types.PlatformUnsupported
	}
	host := strings.ToLower(u.Hostname())
	for domain, platform := range platformHosts {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return platform
		}
	}
	return types.PlatformUnsupported
}

// ValidateSource checks scheme and platform. Both failures are input errors.
func ValidateSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, fmt.Errorf("%w: url is required", types.ErrInput)
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Source{}, fmt.Errorf("%w: invalid URL format", types.ErrInput)
	}

	platform := DetectPlatform(raw)
	if !platform.Supported() {
		return Source{URL: raw, Platform: platform}, fmt.Errorf("%w: unsupported platform %q", types.ErrInput, u.Hostname())
	}
	return Source{URL: raw, Platform: platform}, nil
}
