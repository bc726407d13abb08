package sentiment

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/codebuildervaibhav/video-sentiment/internal/types"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyzeFeatureCameraPositive(t *testing.T) {
	text := "The camera is absolutely fantastic and takes amazing photos."

	got, ok := AnalyzeFeature(text, FeatureCamera)
	if !ok {
		t.Fatal("expected camera to be detected")
	}
	if got.Sentiment != Positive {
		t.Errorf("sentiment = %s, want positive", got.Sentiment)
	}
	if got.Confidence < 0.15 {
		t.Errorf("confidence = %v, want >= 0.15", got.Confidence)
	}
	if len(got.RelevantText) != 1 {
		t.Errorf("relevant text = %v, want one sentence", got.RelevantText)
	}
}

func TestAnalyzeFeatureBatteryNegative(t *testing.T) {
	text := "Battery life is terrible and awful. It drains very fast."

	got, ok := AnalyzeFeature(text, FeatureBattery)
	if !ok {
		t.Fatal("expected battery to be detected")
	}
	if got.Sentiment != Negative {
		t.Fatalf("sentiment = %s (score %v), want negative", got.Sentiment, got.Score)
	}
	if got.Score >= -0.15 {
		t.Errorf("score = %v, want below -0.15", got.Score)
	}
	if len(got.RelevantText) != 2 {
		t.Errorf("relevant text = %v, want both sentences", got.RelevantText)
	}
}

func TestScoreNegationFlipsSign(t *testing.T) {
	tests := []struct {
		plain   string
		negated string
	}{
		{"The camera is great", "The camera is not great"},
		{"The screen is terrible", "The screen is never terrible"},
		{"Ekran jest świetny", "Ekran nie świetny"},
		{"I love the sound", "I don't love the sound"},
	}

	for _, tt := range tests {
		t.Run(tt.plain, func(t *testing.T) {
			plain := Score(tt.plain)
			negated := Score(tt.negated)
			if plain == 0 || negated == 0 {
				t.Fatalf("expected non-zero scores, got %v and %v", plain, negated)
			}
			if math.Signbit(plain) == math.Signbit(negated) {
				t.Errorf("negation kept sign: %v vs %v", plain, negated)
			}
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     float64
	}{
		{name: "no sentiment words", sentence: "the battery is a battery", want: 0},
		{name: "single word", sentence: "great", want: 0.8},
		{name: "average of hits", sentence: "great and terrible", want: (0.8 - 0.9) / 2},
		{name: "punctuation trimmed", sentence: "it is great, really", want: 0.8},
		{name: "case folded", sentence: "AMAZING", want: 0.9},
		{name: "plural fallback", sentence: "it drains", want: -0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.sentence); !approx(got, tt.want) {
				t.Errorf("Score(%q) = %v, want %v", tt.sentence, got, tt.want)
			}
		})
	}
}

func TestClassifyDeadBand(t *testing.T) {
	tests := []struct {
		score float64
		want  Category
	}{
		{0.9, Positive},
		{0.16, Positive},
		{0.15, Neutral},
		{0, Neutral},
		{-0.15, Neutral},
		{-0.16, Negative},
		{-1, Negative},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		category Category
		want     float64
	}{
		{name: "strong positive", score: 0.9, category: Positive, want: 0.9},
		{name: "negative uses magnitude", score: -0.475, category: Negative, want: 0.475},
		{name: "neutral with no evidence", score: 0, category: Neutral, want: 0.01},
		{name: "weak neutral", score: -0.05, category: Neutral, want: 0.45},
		{name: "neutral near threshold", score: 0.15, category: Neutral, want: 0.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confidence(tt.score, tt.category); !approx(got, tt.want) {
				t.Errorf("Confidence(%v, %s) = %v, want %v", tt.score, tt.category, got, tt.want)
			}
		})
	}
}

func TestAnalyzeFeatureNeutral(t *testing.T) {
	got, ok := AnalyzeFeature("The screen is fine.", FeatureScreen)
	if !ok {
		t.Fatal("expected screen to be detected")
	}
	if got.Sentiment != Neutral || got.Confidence != 0.01 {
		t.Errorf("got %s/%v, want neutral/0.01", got.Sentiment, got.Confidence)
	}

	got, _ = AnalyzeFeature("The screen is decent but a bit dim.", FeatureScreen)
	if got.Sentiment != Neutral || !approx(got.Confidence, 0.45) {
		t.Errorf("got %s/%v, want neutral/0.45", got.Sentiment, got.Confidence)
	}
}

func TestAnalyzeFeatureLimitsEvidence(t *testing.T) {
	text := "The camera is good. Photos are sharp! Zoom is great? Selfie mode is nice. Lens is fine."

	got, ok := AnalyzeFeature(text, FeatureCamera)
	if !ok {
		t.Fatal("expected camera to be detected")
	}
	want := []string{"The camera is good", "Photos are sharp", "Zoom is great"}
	if !reflect.DeepEqual(got.RelevantText, want) {
		t.Errorf("relevant text = %q, want %q", got.RelevantText, want)
	}
}

func TestAnalyzeAllOmitsAbsentFeatures(t *testing.T) {
	for _, text := range []string{"", "   \n\t ", "Hello everyone and welcome back.", "..."} {
		got, err := AnalyzeAll(text, nil)
		if err != nil {
			t.Fatalf("AnalyzeAll(%q) error: %v", text, err)
		}
		if len(got) != 0 {
			t.Errorf("AnalyzeAll(%q) = %v, want empty", text, got)
		}
	}
}

func TestAnalyzeAllMixedReview(t *testing.T) {
	text := "The camera is absolutely fantastic. Battery life is disappointing. The speaker sound is weak."

	got, err := AnalyzeAll(text, nil)
	if err != nil {
		t.Fatalf("AnalyzeAll error: %v", err)
	}

	want := map[string]Category{
		FeatureCamera:  Positive,
		FeatureBattery: Negative,
		FeatureSound:   Negative,
	}
	if len(got) != len(want) {
		t.Fatalf("got features %v, want %v", Ordered(got), want)
	}
	for f, cat := range want {
		if got[f].Sentiment != cat {
			t.Errorf("%s = %s, want %s", f, got[f].Sentiment, cat)
		}
	}
	if got[FeatureBattery].Confidence != 0.8 {
		t.Errorf("battery confidence = %v, want 0.8", got[FeatureBattery].Confidence)
	}
	if order := Ordered(got); !reflect.DeepEqual(order, []string{FeatureCamera, FeatureBattery, FeatureSound}) {
		t.Errorf("Ordered = %v", order)
	}
}

func TestAnalyzeAllRestrictsToRequestedFeatures(t *testing.T) {
	text := "The camera is great. The battery is terrible."

	got, err := AnalyzeAll(text, []string{FeatureBattery})
	if err != nil {
		t.Fatalf("AnalyzeAll error: %v", err)
	}
	if _, ok := got[FeatureCamera]; ok {
		t.Error("camera was not requested")
	}
	if got[FeatureBattery].Sentiment != Negative {
		t.Errorf("battery = %+v", got[FeatureBattery])
	}
}

func TestAnalyzeAllRejectsUnknownFeature(t *testing.T) {
	_, err := AnalyzeAll("The camera is great.", []string{"camera", "price"})
	if !errors.Is(err, types.ErrInput) {
		t.Fatalf("expected ErrInput, got %v", err)
	}
}

func TestFeaturesIsACopy(t *testing.T) {
	f := Features()
	f[0] = "mutated"
	if Features()[0] != FeatureCamera {
		t.Fatal("Features must not expose the lexicon order slice")
	}
	if len(Features()) != 6 {
		t.Fatalf("expected 6 features, got %d", len(Features()))
	}
}
