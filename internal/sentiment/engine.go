// Package sentiment scores transcript text per product feature with a static
// lexicon. Everything here is a pure function of its input and the lexicon, so
// it is safe for unsynchronized concurrent use.
package sentiment

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

// Category is the sentiment label assigned to a feature
type Category string

// Category constants
const (
	Positive Category = "positive"
	Negative Category = "negative"
	Neutral  Category = "neutral"
)

const (
	// threshold is the dead-band half width around zero
	threshold = 0.15
	// noEvidenceConfidence is reported for neutral features without any sentiment words
	noEvidenceConfidence = 0.01
	// maxRelevantText caps the evidence sentences per feature
	maxRelevantText = 3
)

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// FeatureSentiment is the full scoring outcome for one feature
type FeatureSentiment struct {
	Feature      string
	Sentiment    Category
	Score        float64
	Confidence   float64
	RelevantText []string
}

// Result is the response form of FeatureSentiment
type Result struct {
	Sentiment    Category `json:"sentiment"`
	Confidence   float64  `json:"confidence"`
	RelevantText []string `json:"relevant_text"`
}

// Sentences splits text on sentence-ending punctuation and drops empty pieces
func Sentences(text string) []string {
	parts := sentenceBreak.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FeatureSentences returns the sentences mentioning any keyword of feature
func FeatureSentences(text, feature string) []string {
	keywords := featureKeywords[feature]
	var matched []string
	for _, sentence := range Sentences(text) {
		lower := strings.ToLower(sentence)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, sentence)
				break
			}
		}
	}
	return matched
}

// Score returns the mean signed weight of the sentiment words in sentence. A
// negation word directly before a sentiment word flips its sign. Sentences
// without sentiment words score 0.
func Score(sentence string) float64 {
	tokens := tokenize(sentence)

	var total float64
	var hits int
	for i, tok := range tokens {
		w, ok := lookup(tok)
		if !ok {
			continue
		}
		if i > 0 && isNegation(tokens[i-1]) {
			w = -w
		}
		total += w
		hits++
	}

	if hits == 0 {
		return 0
	}
	return total / float64(hits)
}

// Classify maps a feature score onto a category using the dead-band
func Classify(score float64) Category {
	switch {
	case score > threshold:
		return Positive
	case score < -threshold:
		return Negative
	default:
		return Neutral
	}
}

// Confidence derives the reported confidence from a score and its category
func Confidence(score float64, category Category) float64 {
	abs := math.Abs(score)
	if category != Neutral {
		return clamp(abs, threshold, 1)
	}
	if score == 0 {
		return noEvidenceConfidence
	}
	c := 1 - math.Min(1, abs)
	c = math.Max(noEvidenceConfidence, c-0.5)
	return clamp(c, 0, 1)
}

// AnalyzeFeature scores one feature. The bool is false when no sentence
// mentions the feature.
func AnalyzeFeature(text, feature string) (FeatureSentiment, bool) {
	sentences := FeatureSentences(text, feature)
	if len(sentences) == 0 {
		return FeatureSentiment{}, false
	}

	var total float64
	for _, s := range sentences {
		total += Score(s)
	}
	avg := total / float64(len(sentences))
	category := Classify(avg)

	evidence := sentences
	if len(evidence) > maxRelevantText {
		evidence = evidence[:maxRelevantText]
	}

	return FeatureSentiment{
		Feature:      feature,
		Sentiment:    category,
		Score:        avg,
		Confidence:   Confidence(avg, category),
		RelevantText: append([]string(nil), evidence...),
	}, true
}

// AnalyzeAll scores every requested feature, or the whole lexicon when
// features is empty. Features absent from the text are omitted. Unknown
// feature names are an input error.
func AnalyzeAll(text string, features []string) (map[string]Result, error) {
	if len(features) == 0 {
		features = featureOrder
	}
	for _, f := range features {
		if !IsFeature(f) {
			return nil, fmt.Errorf("%w: unknown feature %q", types.ErrInput, f)
		}
	}

	results := make(map[string]Result)
	for _, f := range features {
		fs, ok := AnalyzeFeature(text, f)
		if !ok {
			continue
		}
		results[f] = fs.Result()
	}
	return results, nil
}

// Result converts to the response form with confidence rounded to 2 places
func (fs FeatureSentiment) Result() Result {
	return Result{
		Sentiment:    fs.Sentiment,
		Confidence:   math.Round(fs.Confidence*100) / 100,
		RelevantText: fs.RelevantText,
	}
}

// Ordered returns the keys of results in lexicon order
func Ordered(results map[string]Result) []string {
	keys := make([]string, 0, len(results))
	for _, f := range featureOrder {
		if _, ok := results[f]; ok {
			keys = append(keys, f)
		}
	}
	return keys
}

func tokenize(sentence string) []string {
	fields := strings.Fields(strings.ToLower(sentence))
	for i, f := range fields {
		fields[i] = strings.TrimFunc(f, unicode.IsPunct)
	}
	return fields
}

// lookup tries the token as-is, then without a trailing "s" so plural and
// third-person forms ("drains", "issues") hit their base entry.
func lookup(token string) (float64, bool) {
	if w, ok := weight(token); ok {
		return w, true
	}
	if len(token) > 3 && strings.HasSuffix(token, "s") {
		return weight(strings.TrimSuffix(token, "s"))
	}
	return 0, false
}

func isNegation(token string) bool {
	_, ok := negationWords[token]
	return ok
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
