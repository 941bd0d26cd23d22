// package formatter provides functions to export reconciliation reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
)

// ExportToCSV converts reports to CSV format with columns: Playlist, Index, Position, Title, Artist, URL
func ExportToCSV(reports []*reconcile.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Playlist", "Index", "Position", "Title", "Artist", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, report := range reports {
		for _, track := range report.Missing {
			record := []string{
				report.Playlist,
				strconv.Itoa(track.Index),
				track.Position,
				track.Title,
				track.Artist,
				track.URL,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts reports to a Markdown checklist grouped by playlist
func ExportToMarkdown(reports []*reconcile.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Missing Tracks\n\n")

	for _, report := range reports {
		buf.WriteString(fmt.Sprintf("## %s\n\n", report.Playlist))
		buf.WriteString(fmt.Sprintf("**Expected**: %d\n", report.Expected))
		buf.WriteString(fmt.Sprintf("**Missing**: %d\n\n", report.MissingCount()))

		if report.Complete() {
			buf.WriteString("All tracks present.\n\n")
			continue
		}

		for _, track := range report.Missing {
			label := trackLabel(track)
			if track.URL != "" {
				buf.WriteString(fmt.Sprintf("- [ ] %s [%s](%s)\n", track.Position, label, track.URL))
			} else {
				buf.WriteString(fmt.Sprintf("- [ ] %s %s\n", track.Position, label))
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts reports to plain text format
func ExportToText(reports []*reconcile.Report) ([]byte, error) {
	var buf bytes.Buffer

	for _, report := range reports {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", report.Playlist))
		buf.WriteString(fmt.Sprintf("Expected: %d\n", report.Expected))
		buf.WriteString(fmt.Sprintf("Missing: %d\n", report.MissingCount()))

		for _, track := range report.Missing {
			buf.WriteString(fmt.Sprintf("  %s %s\n", track.Position, trackLabel(track)))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportResult contains the paths of files created by WriteExport
type ExportResult struct {
	CSVFile      string
	MarkdownFile string
}

// WriteExport writes reports as both CSV and Markdown next to each other.
//
// Defaults to "missing" as the base filename & creates {base}.csv and {base}.md
func WriteExport(fs afero.Fs, reports []*reconcile.Report, baseFilepath string) (*ExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "missing"
	}

	if dir := filepath.Dir(baseFilepath); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	csvData, err := ExportToCSV(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	csvFile := baseFilepath + ".csv"
	if err := afero.WriteFile(fs, csvFile, csvData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	mdData, err := ExportToMarkdown(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := baseFilepath + ".md"
	if err := afero.WriteFile(fs, mdFile, mdData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &ExportResult{CSVFile: csvFile, MarkdownFile: mdFile}, nil
}

func trackLabel(track reconcile.MissingTrack) string {
	switch {
	case track.Artist != "" && track.Title != "":
		return fmt.Sprintf("%s - %s", track.Artist, track.Title)
	case track.Title != "":
		return track.Title
	default:
		return "(unknown track)"
	}
}
