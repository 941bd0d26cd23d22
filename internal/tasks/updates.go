package tasks

import (
	"fmt"

	"github.com/TC6IDM/SPOTMP3/internal/downloaders"
	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Classify Phase = iota
	FetchMetadata
	Download
	Cleanup
	Reconcile
)

func (p Phase) String() string {
	switch p {
	case Classify:
		return "classify"
	case FetchMetadata:
		return "fetch_metadata"
	case Download:
		return "download"
	case Cleanup:
		return "cleanup"
	case Reconcile:
		return "reconcile"
	default:
		return ""
	}
}

func classifiedUpdate(c *links.Classification) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Classify,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Classified %d links (%d unrecognized)", c.Total, len(c.Unknown)),
		Data:    c,
	}
}

func unknownLinkUpdate(step, total int, link links.Link) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Classify,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Skipping unrecognized link: %s", link.URL),
	}
}

func fetchMetadataUpdate(step, total int, link links.Link) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMetadata,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching metadata for %s...", link.URL),
	}
}

func downloadStartUpdate(step, total int, provider links.Provider, link links.Link) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloading from %s: %s", step, total, provider, link.URL),
	}
}

func downloadDoneUpdate(step, total int, outcome *downloaders.Outcome) ProgressUpdate {
	mark := "✓"
	if !outcome.Success {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, outcome.URL),
		Data:    outcome,
	}
}

func skippedProviderUpdate(provider links.Provider, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    0,
		Total:   count,
		Message: fmt.Sprintf("Skipping %d %s link(s): no credentials configured", count, provider),
	}
}

func cleanupUpdate(provider links.Provider) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Cleanup,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Consolidating metadata for %s downloads...", provider),
	}
}

func reportUpdate(step, total int, report *reconcile.Report) ProgressUpdate {
	msg := fmt.Sprintf("%s: complete (%d tracks)", report.Playlist, report.Expected)
	if !report.Complete() {
		msg = fmt.Sprintf("%s: %d of %d tracks missing", report.Playlist, report.MissingCount(), report.Expected)
	}
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    report,
	}
}
