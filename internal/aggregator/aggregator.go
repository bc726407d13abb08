// Package aggregator shapes per-feature sentiment into display-ready stats.
package aggregator

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/codebuildervaibhav/video-sentiment/internal/sentiment"
)

// Trend is the arrow shown next to a stat
type Trend string

// Trend values
const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Overall verdicts
const (
	OverallPositive   = "Positive"
	OverallNegative   = "Negative"
	OverallNeutral    = "Neutral"
	OverallNoFeatures = "No features"
)

// Stat is one labelled entry. Value is a string except for the feature count.
type Stat struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Trend Trend  `json:"trend"`
}

// Summary is the analysisData block of an analysis response
type Summary struct {
	Title string `json:"title"`
	Stats []Stat `json:"stats"`
}

var titleCase = cases.Title(language.Und)

// Overall decides the overall verdict by majority vote between positive and
// negative features. Neutral features do not vote.
func Overall(results map[string]sentiment.Result) (string, Trend) {
	if len(results) == 0 {
		return OverallNoFeatures, TrendNeutral
	}

	var pos, neg int
	for _, r := range results {
		switch r.Sentiment {
		case sentiment.Positive:
			pos++
		case sentiment.Negative:
			neg++
		}
	}

	switch {
	case pos > neg:
		return OverallPositive, TrendUp
	case neg > pos:
		return OverallNegative, TrendDown
	default:
		return OverallNeutral, TrendNeutral
	}
}

// Summarize builds the ordered stats list: overall verdict, transcript
// length, feature count, then one entry per feature in lexicon order.
func Summarize(title, transcript string, results map[string]sentiment.Result) Summary {
	overall, trend := Overall(results)

	stats := []Stat{
		{Label: "Overall Rating", Value: overall, Trend: trend},
		{Label: "Transcription Length", Value: fmt.Sprintf("%d characters", len([]rune(transcript))), Trend: TrendNeutral},
		{Label: "Features Analyzed", Value: len(results), Trend: TrendUp},
	}

	for _, feature := range sentiment.Ordered(results) {
		r := results[feature]
		stats = append(stats, Stat{
			Label: titleCase.String(feature),
			Value: fmt.Sprintf("%s (%d%%)", titleCase.String(string(r.Sentiment)), Percent(r.Confidence)),
			Trend: trendOf(r.Sentiment),
		})
	}

	return Summary{Title: title, Stats: stats}
}

// Percent converts a confidence in [0,1] to a whole percentage
func Percent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

func trendOf(c sentiment.Category) Trend {
	switch c {
	case sentiment.Positive:
		return TrendUp
	case sentiment.Negative:
		return TrendDown
	default:
		return TrendNeutral
	}
}

var deviceName = regexp.MustCompile(`(?i)\b(?:` +
	`iPhone(?:\s+(?:\d{1,2}|SE|XR|XS|X))?(?:\s+(?:Pro|Max|Plus|mini))*` +
	`|(?:Samsung\s+)?Galaxy\s+(?:S|A|Z|Note)\s?\d*\w*(?:\s+(?:Ultra|Plus|FE))*` +
	`|(?:Google\s+)?Pixel\s+\d+\w*(?:\s+(?:Pro|XL|Fold))*` +
	`|OnePlus\s+\d+\w*(?:\s+Pro)?` +
	`|Xiaomi\s+\d+\w*(?:\s+(?:Pro|Ultra))?` +
	`)`)

// DeviceName returns the first phone model mentioned in text, or "" when
// none is recognised.
func DeviceName(text string) string {
	return strings.TrimSpace(deviceName.FindString(text))
}

// Title picks the analysis title: a resolved page title wins, then a device
// mentioned in the transcript, then a generic label with the short job id.
func Title(jobID, pageTitle, transcript string) string {
	if t := strings.TrimSpace(pageTitle); t != "" {
		return t
	}
	if name := DeviceName(transcript); name != "" {
		return name + " Review"
	}
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Video Analysis (%s)", short)
}
