package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// platformTitleSuffixes are stripped from page titles
var platformTitleSuffixes = []string{" - YouTube", " on Vimeo", " | TikTok"}

// TitleResolver reads the page title of a video with headless Chrome
type TitleResolver struct {
	timeout time.Duration
}

// NewTitleResolver creates a resolver bounded by timeout per lookup
func NewTitleResolver(timeout time.Duration) *TitleResolver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TitleResolver{timeout: timeout}
}

// Resolve navigates to videoURL and returns its cleaned document title
func (r *TitleResolver) Resolve(ctx context.Context, videoURL string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	var title string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(videoURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`document.title`, &title, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("resolve title of %s: %w", videoURL, err)
	}

	title = CleanTitle(title)
	if title == "" {
		return "", fmt.Errorf("page %s has no title", videoURL)
	}
	return title, nil
}

// CleanTitle trims whitespace and the platform branding from a page title
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, suffix := range platformTitleSuffixes {
		title = strings.TrimSuffix(title, suffix)
	}
	return strings.TrimSpace(title)
}
