package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/TC6IDM/SPOTMP3/internal/formatter"
	"github.com/TC6IDM/SPOTMP3/internal/ledger"
	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
	"github.com/TC6IDM/SPOTMP3/internal/shared"
	"github.com/TC6IDM/SPOTMP3/internal/ui"
)

// Classify groups the input list by provider and prints it without running
// any downloads.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	inputPath := cmd.StringArg("input")
	if inputPath == "" {
		return fmt.Errorf("usage: classify <input>")
	}

	lines, err := r.readInputLines(inputPath)
	if err != nil {
		return err
	}

	classification := links.Classify(lines)
	if classification.Total == 0 && len(classification.Unknown) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNoLinks, inputPath)
	}

	return r.writePlain("%s", ui.RenderClassification(classification))
}

// Reconcile re-checks downloaded playlist folders against their saved
// metadata and prints the missing tracks.
func (r *Runner) Reconcile(ctx context.Context, cmd *cli.Command) error {
	outputDir := cmd.StringArg("output")
	if outputDir == "" {
		return fmt.Errorf("usage: reconcile <output>")
	}

	engine := reconcile.NewEngine(r.fs, r.logger)

	var reports []*reconcile.Report
	var err error
	if playlist := cmd.String("playlist"); playlist != "" {
		var report *reconcile.Report
		report, err = engine.ReconcilePlaylist(outputDir, playlist)
		if report != nil {
			reports = append(reports, report)
		}
	} else {
		reports, err = engine.ReconcileAll(outputDir)
	}
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		return r.writePlain("No playlist folders found under %s\n", outputDir)
	}

	r.writePlainHeader("Reconciliation")
	missing := 0
	for _, report := range reports {
		missing += report.MissingCount()
		r.writePlain("%s", ui.RenderReport(report))
	}

	if base := cmd.String("export"); base != "" {
		exported, err := formatter.WriteExport(r.fs, reports, base)
		if err != nil {
			return err
		}
		r.writePlain("\nMissing tracks exported to %s and %s\n", exported.CSVFile, exported.MarkdownFile)
	}

	r.writePlainln("%d playlist(s), %d missing track(s)", len(reports), missing)
	return nil
}

// History lists past download runs recorded in the ledger.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	led, err := ledger.Open(r.config.Ledger.Path)
	if err != nil {
		return err
	}
	defer led.Close()

	if runID := cmd.String("run"); runID != "" {
		return r.historyDetail(led, runID)
	}

	runs, err := led.RecentRuns(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet\n")
	}

	r.writePlainHeader("Run History")
	for _, run := range runs {
		status := "in progress"
		if run.FinishedAt != nil {
			status = run.FinishedAt.Format("2006-01-02 15:04")
		}
		r.writePlain("%s  %s\n", run.ID, run.StartedAt.Format("2006-01-02 15:04"))
		r.writePlain("  input: %s  output: %s\n", run.InputPath, run.OutputDir)
		r.writePlain("  links: %d (%d unknown, %d failed)  missing: %d  exit: %d  finished: %s\n",
			run.TotalLinks, run.UnknownLinks, run.FailedLinks, run.MissingCount, run.ExitCode, status)
	}
	return nil
}

func (r *Runner) historyDetail(led *ledger.Ledger, runID string) error {
	tracks, err := led.MissingTracks(runID)
	if err != nil {
		return err
	}

	if len(tracks) == 0 {
		return r.writePlain("No missing tracks recorded for run %s\n", runID)
	}

	r.writePlainHeader(fmt.Sprintf("Missing Tracks (%s)", runID))
	for _, track := range tracks {
		label := track.Title
		if track.Artist != "" {
			label = fmt.Sprintf("%s - %s", track.Artist, track.Title)
		}
		if label == "" {
			label = track.URL
		}
		r.writePlain("%s  %s\n", track.Position, label)
	}
	return nil
}
