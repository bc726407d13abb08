package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScoreCommandTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.txt")
	text := "The camera is absolutely fantastic and takes amazing photos. Battery life is terrible and awful. It drains very fast."
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"score", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("score failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Feature", "camera", "positive", "battery", "negative", "Overall: Neutral"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestScoreCommandJSONFromStdin(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("The screen is bright and beautiful. The camera is great."))
	cmd.SetArgs([]string{"score", "--json", "--feature", "screen"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("score failed: %v", err)
	}

	var payload struct {
		Results          map[string]json.RawMessage `json:"results"`
		AnalyzedFeatures []string                   `json:"analyzed_features"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(payload.Results) != 1 || len(payload.AnalyzedFeatures) != 1 || payload.AnalyzedFeatures[0] != "screen" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestScoreCommandRejectsUnknownFeature(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("anything"))
	cmd.SetArgs([]string{"score", "--feature", "price"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown feature")
	}
}

func TestScoreNoFeatures(t *testing.T) {
	var out bytes.Buffer
	if err := scoreText(&out, "Nothing relevant here.", nil, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No features mentioned.") {
		t.Errorf("unexpected output %q", out.String())
	}
}
