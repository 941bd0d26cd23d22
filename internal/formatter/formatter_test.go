package formatter

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
)

func sampleReports() []*reconcile.Report {
	return []*reconcile.Report{
		{
			Playlist: "Road Trip",
			Expected: 5,
			Missing: []reconcile.MissingTrack{
				{Index: 2, Position: "02", Title: "Ghost", Artist: "Nobody", URL: "https://open.spotify.com/track/abc"},
				{Index: 4, Position: "04"},
			},
		},
		{
			Playlist: "Chill",
			Expected: 3,
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleReports())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist,Index,Position,Title,Artist,URL") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Road Trip,2,02,Ghost,Nobody,https://open.spotify.com/track/abc") {
			t.Errorf("CSV missing first track row, got: %s", output)
		}
		if !strings.Contains(output, "Road Trip,4,04,,,") {
			t.Errorf("CSV missing bare-index row, got: %s", output)
		}
		if strings.Contains(output, "Chill") {
			t.Errorf("complete playlists should contribute no rows, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleReports())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "## Road Trip") {
			t.Errorf("Markdown missing playlist heading, got: %s", output)
		}
		if !strings.Contains(output, "- [ ] 02 [Nobody - Ghost](https://open.spotify.com/track/abc)") {
			t.Errorf("Markdown missing linked checklist item, got: %s", output)
		}
		if !strings.Contains(output, "- [ ] 04 (unknown track)") {
			t.Errorf("Markdown missing bare-index item, got: %s", output)
		}
		if !strings.Contains(output, "All tracks present.") {
			t.Errorf("Markdown missing completion note, got: %s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleReports())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Road Trip") {
			t.Errorf("text missing playlist line, got: %s", output)
		}
		if !strings.Contains(output, "02 Nobody - Ghost") {
			t.Errorf("text missing track line, got: %s", output)
		}
	})
}

func TestWriteExport(t *testing.T) {
	fs := afero.NewMemMapFs()

	result, err := WriteExport(fs, sampleReports(), "reports/missing")
	if err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}

	if result.CSVFile != "reports/missing.csv" {
		t.Errorf("unexpected CSV path: %s", result.CSVFile)
	}
	if result.MarkdownFile != "reports/missing.md" {
		t.Errorf("unexpected Markdown path: %s", result.MarkdownFile)
	}

	for _, path := range []string{result.CSVFile, result.MarkdownFile} {
		exists, err := afero.Exists(fs, path)
		if err != nil || !exists {
			t.Errorf("expected %s to exist (err %v)", path, err)
		}
	}
}

func TestWriteExportDefaultBase(t *testing.T) {
	fs := afero.NewMemMapFs()

	result, err := WriteExport(fs, sampleReports(), "")
	if err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	if result.CSVFile != "missing.csv" {
		t.Errorf("unexpected default CSV path: %s", result.CSVFile)
	}
}
