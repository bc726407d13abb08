package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/video-sentiment/internal/aggregator"
	"github.com/codebuildervaibhav/video-sentiment/internal/sentiment"
)

func newScoreCommand() *cobra.Command {
	var features []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score the sentiment of a transcript file (stdin when omitted or -)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			b, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			return scoreText(cmd.OutOrStdout(), string(b), features, jsonOutput)
		},
	}

	cmd.Flags().StringSliceVarP(&features, "feature", "f", nil, "Restrict scoring to these features")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func scoreText(out io.Writer, text string, features []string, jsonOutput bool) error {
	results, err := sentiment.AnalyzeAll(text, features)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"results":           results,
			"analyzed_features": sentiment.Ordered(results),
		})
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No features mentioned.")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, feature := range sentiment.Ordered(results) {
		r := results[feature]
		rows = append(rows, []string{
			feature,
			string(r.Sentiment),
			fmt.Sprintf("%d%%", aggregator.Percent(r.Confidence)),
			strings.Join(r.RelevantText, " | "),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Feature", "Sentiment", "Confidence", "Evidence"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	overall, _ := aggregator.Overall(results)
	fmt.Fprintf(out, "Overall: %s\n", overall)
	return nil
}
