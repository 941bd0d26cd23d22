// Package ui renders run summaries and missing-track reports for the
// terminal using lipgloss styles.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
	"github.com/TC6IDM/SPOTMP3/internal/tasks"
)

// palette is the stylesheet every renderer shares.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

var styles = palette{
	title: bold("#7D56F4").MarginBottom(1),
	ok:    bold("#04B575"),
	err:   bold("#FF0000"),
	warn:  fg("#FFA500"),
	help:  fg("#626262").Italic(true),
}

func fg(c string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

func bold(c string) lipgloss.Style {
	return fg(c).Bold(true)
}

// RenderSummary formats the result of one download run for the terminal.
func RenderSummary(result *tasks.RunResult) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Download Summary"))
	b.WriteString("\n")

	c := result.Classification
	for _, provider := range tasks.ProcessOrder {
		count := c.Count(provider)
		if count == 0 {
			continue
		}

		line := fmt.Sprintf("%s: %d link(s)", provider, count)
		if err, skipped := result.Skipped[provider]; skipped {
			line = fmt.Sprintf("%s (skipped: %v)", line, err)
			b.WriteString(styles.warn.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if len(c.Unknown) > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("%d unrecognized link(s)", len(c.Unknown))))
		b.WriteString("\n")
		for _, link := range c.Unknown {
			b.WriteString(styles.help.Render("  " + link.URL))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	for _, outcome := range result.Outcomes {
		if outcome.Success {
			b.WriteString(styles.ok.Render("✓"))
		} else {
			b.WriteString(styles.err.Render("✗"))
		}
		b.WriteString(" " + outcome.URL)
		if !outcome.Success && outcome.ErrorsFile != "" {
			b.WriteString(styles.help.Render(fmt.Sprintf(" (details: %s)", outcome.ErrorsFile)))
		}
		b.WriteString("\n")
	}

	for _, report := range result.Reports {
		b.WriteString("\n")
		b.WriteString(RenderReport(report))
	}

	if failed := result.FailedCount(); failed > 0 {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(fmt.Sprintf("%d link(s) failed", failed)))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderReport formats one playlist reconciliation report.
func RenderReport(report *reconcile.Report) string {
	var b strings.Builder

	if report.Complete() {
		b.WriteString(styles.ok.Render(fmt.Sprintf("%s: all %d tracks present", report.Playlist, report.Expected)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(styles.err.Render(fmt.Sprintf("%s: %d of %d tracks missing", report.Playlist, report.MissingCount(), report.Expected)))
	b.WriteString("\n")

	for _, track := range report.Missing {
		b.WriteString(fmt.Sprintf("  %s  %s", track.Position, describeTrack(track)))
		b.WriteString("\n")
	}

	if len(report.Extra) > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("  %d file(s) numbered beyond the expected range", len(report.Extra))))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderClassification formats the groups of a classified link list without
// running any downloads.
func RenderClassification(c *links.Classification) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Link Classification"))
	b.WriteString("\n")

	for _, provider := range links.Providers {
		group := c.Group(provider)
		if len(group) == 0 {
			continue
		}

		b.WriteString(styles.ok.Render(fmt.Sprintf("%s (%d)", provider, len(group))))
		b.WriteString("\n")
		for _, link := range group {
			b.WriteString("  " + link.URL)
			if link.DisplayName != "" {
				b.WriteString(styles.help.Render(fmt.Sprintf("  (%s)", link.DisplayName)))
			}
			b.WriteString("\n")
		}
	}

	if len(c.Unknown) > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("unrecognized (%d)", len(c.Unknown))))
		b.WriteString("\n")
		for _, link := range c.Unknown {
			b.WriteString("  " + link.Raw)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func describeTrack(track reconcile.MissingTrack) string {
	switch {
	case track.Artist != "" && track.Title != "":
		return fmt.Sprintf("%s - %s", track.Artist, track.Title)
	case track.Title != "":
		return track.Title
	case track.URL != "":
		return track.URL
	default:
		return "(unknown track)"
	}
}
