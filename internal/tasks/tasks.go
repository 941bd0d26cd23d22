// Package tasks orchestrates the download pipeline: classifying a link list,
// dispatching each group to its provider adapter, and reconciling the
// resulting playlist folders.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/TC6IDM/SPOTMP3/internal/downloaders"
	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

// ProcessOrder fixes the sequence providers are drained in. SoundCloud and
// YouTube run first so their sidecar files are consolidated before the
// Spotify pass reconciles against API metadata.
var ProcessOrder = []links.Provider{links.SoundCloud, links.YouTube, links.Spotify}

// Recorder persists outcomes and reconciliation reports as they are produced.
// A nil recorder disables persistence.
type Recorder interface {
	RecordOutcome(outcome *downloaders.Outcome) error
	RecordReport(report *reconcile.Report) error
}

// RunResult contains all data from a full download run.
type RunResult struct {
	Classification *links.Classification    // How the input lines were grouped
	Outcomes       []*downloaders.Outcome   // Per-link tool results, in process order
	Reports        []*reconcile.Report      // Per-playlist reconciliation reports
	Skipped        map[links.Provider]error // Providers that could not run and why
	ExitCode       int                      // Last nonzero tool exit code, 0 when clean
}

// FailedCount returns the number of links whose tool invocation failed.
func (r *RunResult) FailedCount() int {
	count := 0
	for _, o := range r.Outcomes {
		if !o.Success {
			count++
		}
	}
	return count
}

// MissingTotal sums missing tracks across every report.
func (r *RunResult) MissingTotal() int {
	total := 0
	for _, rep := range r.Reports {
		total += rep.MissingCount()
	}
	return total
}

// Engine runs the download pipeline over a classified link list.
type Engine struct {
	adapters map[links.Provider]downloaders.Downloader
	recorder Recorder
	logger   *log.Logger
}

// NewEngine creates an Engine over the given provider adapters. Providers
// absent from the map are skipped at run time; links for them are reported
// through RunResult.Skipped rather than failing the run.
func NewEngine(adapters map[links.Provider]downloaders.Downloader, recorder Recorder, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		adapters: adapters,
		recorder: recorder,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ProcessAll classifies the input lines and drains every provider group in
// ProcessOrder. Tool failures never abort the run; they are carried in the
// outcomes and the result's exit code. The returned error is reserved for an
// empty input or a cancelled context.
func (e *Engine) ProcessAll(ctx context.Context, lines []string, progress chan<- ProgressUpdate) (*RunResult, error) {
	classification := links.Classify(lines)
	if classification.Total == 0 && len(classification.Unknown) == 0 {
		return nil, fmt.Errorf("%w: input contained no links", shared.ErrNoLinks)
	}

	e.sendProgress(progress, classifiedUpdate(classification))

	for i, link := range classification.Unknown {
		e.logger.Warn("unrecognized link", "url", link.URL)
		e.sendProgress(progress, unknownLinkUpdate(i+1, len(classification.Unknown), link))
	}

	result := &RunResult{
		Classification: classification,
		Skipped:        map[links.Provider]error{},
	}

	for _, provider := range ProcessOrder {
		group := classification.Group(provider)
		if len(group) == 0 {
			continue
		}

		adapter, ok := e.adapters[provider]
		if !ok {
			e.logger.Warn("provider unavailable, skipping links", "provider", provider, "count", len(group))
			result.Skipped[provider] = shared.ErrMissingCredentials
			e.sendProgress(progress, skippedProviderUpdate(provider, len(group)))
			continue
		}

		if err := e.processGroup(ctx, adapter, provider, group, result, progress); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// processGroup downloads every link in one provider's group, then runs the
// adapter's cleanup pass once per link so freshly written sidecars are folded
// into metadata before the next provider runs.
func (e *Engine) processGroup(ctx context.Context, adapter downloaders.Downloader, provider links.Provider, group []links.Link, result *RunResult, progress chan<- ProgressUpdate) error {
	total := len(group)

	for i, link := range group {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := i + 1
		e.sendProgress(progress, fetchMetadataUpdate(step, total, link))

		playlistName, err := adapter.FetchMetadata(ctx, link)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			e.logger.Warn("metadata fetch failed", "provider", provider, "url", link.URL, "error", err)
		}

		e.sendProgress(progress, downloadStartUpdate(step, total, provider, link))

		outcome, err := adapter.Download(ctx, link)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			e.logger.Error("download failed to start", "provider", provider, "url", link.URL, "error", err)
			outcome = &downloaders.Outcome{Provider: provider, URL: link.URL, ExitCode: -1}
		}

		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.ExitCode != 0 {
			result.ExitCode = outcome.ExitCode
		}
		e.record(outcome, nil)
		e.sendProgress(progress, downloadDoneUpdate(step, total, outcome))

		e.sendProgress(progress, cleanupUpdate(provider))

		reports, err := adapter.Cleanup(ctx, playlistName)
		if err != nil {
			e.logger.Warn("cleanup failed", "provider", provider, "error", err)
			continue
		}

		for _, report := range reports {
			result.Reports = append(result.Reports, report)
			e.record(nil, report)
			e.sendProgress(progress, reportUpdate(len(result.Reports), len(result.Reports), report))
		}
	}

	return nil
}

func (e *Engine) record(outcome *downloaders.Outcome, report *reconcile.Report) {
	if e.recorder == nil {
		return
	}

	var err error
	switch {
	case outcome != nil:
		err = e.recorder.RecordOutcome(outcome)
	case report != nil:
		err = e.recorder.RecordReport(report)
	}
	if err != nil {
		e.logger.Warn("failed to record run history", "error", err)
	}
}
