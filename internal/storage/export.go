package storage

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/codebuildervaibhav/video-sentiment/internal/aggregator"
	"github.com/codebuildervaibhav/video-sentiment/internal/sentiment"
)

const exportSheet = "Analyses"

// WriteXLSX renders analyses as a spreadsheet: one row per analysis, one
// column pair per feature.
func WriteXLSX(w io.Writer, analyses []Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"ID", "Created At", "Title", "Source URL", "Platform", "Overall", "Transcript Length"}
	for _, feature := range sentiment.Features() {
		header = append(header, feature+" sentiment", feature+" confidence")
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, a := range analyses {
		row := []any{
			a.ID,
			a.CreatedAt.Format(time.RFC3339),
			a.Title,
			a.SourceURL,
			a.Platform,
			a.Overall,
			len([]rune(a.Transcript)),
		}
		for _, feature := range sentiment.Features() {
			r, ok := a.Sentiment[feature]
			if !ok {
				row = append(row, "", "")
				continue
			}
			row = append(row, string(r.Sentiment), fmt.Sprintf("%d%%", aggregator.Percent(r.Confidence)))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
