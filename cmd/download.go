package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/TC6IDM/SPOTMP3/internal/downloaders"
	"github.com/TC6IDM/SPOTMP3/internal/formatter"
	"github.com/TC6IDM/SPOTMP3/internal/ledger"
	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
	"github.com/TC6IDM/SPOTMP3/internal/services"
	"github.com/TC6IDM/SPOTMP3/internal/shared"
	"github.com/TC6IDM/SPOTMP3/internal/tasks"
	"github.com/TC6IDM/SPOTMP3/internal/ui"
)

// Download classifies the input list, drains every provider group and prints
// the missing-track summary.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	inputPath := cmd.StringArg("input")
	outputDir := cmd.StringArg("output")
	if inputPath == "" || outputDir == "" {
		return fmt.Errorf("usage: download <input> <output>")
	}

	lines, err := r.readInputLines(inputPath)
	if err != nil {
		return err
	}

	if err := r.fs.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger, logClose := r.runLogger(outputDir)
	defer logClose()

	logger.Info("starting download run", "input", inputPath, "output", outputDir)
	r.writePlain("Input: %s\n", inputPath)
	r.writePlain("Output: %s\n\n", outputDir)

	adapters := r.buildAdapters(ctx, outputDir, cmd.Bool("quiet"), logger)

	// The ledger, when enabled, needs the classification counts before the
	// run starts, so the cheap grouping pass happens twice.
	var recorder tasks.Recorder
	var finish func(exitCode int)
	if r.config.Ledger.Enabled {
		classification := links.Classify(lines)
		if classification.Total > 0 || len(classification.Unknown) > 0 {
			recorder, finish, err = r.openRecorder(inputPath, outputDir, classification)
			if err != nil {
				logger.Warn("run history disabled", "error", err)
			}
		}
	}

	engine := tasks.NewEngine(adapters, recorder, logger)

	// Progress updates stream to the terminal while the tools run.
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Classify:
				r.writePlain("%s\n", update.Message)
			case tasks.Download:
				r.writePlain("%s\n", update.Message)
			case tasks.Reconcile:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result, err := engine.ProcessAll(ctx, lines, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		if finish != nil {
			finish(1)
		}
		return err
	}

	if finish != nil {
		finish(result.ExitCode)
	}

	r.writePlainln("%s", ui.RenderSummary(result))

	if base := cmd.String("export"); base != "" && len(result.Reports) > 0 {
		exported, err := formatter.WriteExport(r.fs, result.Reports, base)
		if err != nil {
			return err
		}
		r.writePlain("Missing tracks exported to %s and %s\n", exported.CSVFile, exported.MarkdownFile)
	}

	if result.ExitCode != 0 {
		logger.Warn("one or more tools exited nonzero", "exit_code", result.ExitCode)
	}
	return nil
}

// buildAdapters wires one Downloader per provider. Spotify is only included
// when credentials are configured; its links are surfaced as skipped.
func (r *Runner) buildAdapters(ctx context.Context, outputDir string, quiet bool, logger *log.Logger) map[links.Provider]downloaders.Downloader {
	var echo io.Writer = os.Stdout
	if quiet {
		echo = io.Discard
	}

	timeout := time.Duration(r.config.Tools.TimeoutMinutes) * time.Minute
	opts := downloaders.Options{
		FS:         r.fs,
		Runner:     downloaders.NewOSRunner(echo),
		Logger:     logger,
		OutputRoot: outputDir,
		Timeout:    timeout,
	}

	adapters := map[links.Provider]downloaders.Downloader{
		links.SoundCloud: downloaders.NewSoundCloud(opts, r.config.Tools.Scdl),
		links.YouTube:    downloaders.NewYouTube(opts, r.config.Tools.Ytdlp),
	}

	if r.config.HasSpotifyCredentials() {
		creds := r.config.Credentials.Spotify
		logger.Debug("spotify credentials loaded", "client_id", shared.Redact(creds.ClientID, 4))

		var metadata downloaders.MetadataClient
		client, err := services.NewSpotifyClient(ctx, services.ClientOpts{
			Credentials: map[string]string{
				"client_id":     creds.ClientID,
				"client_secret": creds.ClientSecret,
			},
			OutputRoot: outputDir,
			FS:         r.fs,
			Logger:     logger,
		})
		if err != nil {
			logger.Warn("spotify metadata client unavailable", "error", err)
		} else {
			metadata = client
		}

		spotify, err := downloaders.NewSpotify(opts, r.config.Tools.Spotdl, creds.ClientID, creds.ClientSecret, metadata)
		if err != nil {
			logger.Warn("spotify adapter unavailable", "error", err)
		} else {
			adapters[links.Spotify] = spotify
		}
	}

	return adapters
}

// runLogger tees structured logs into a file under the output tree so failed
// runs leave a trace next to the downloads.
func (r *Runner) runLogger(outputDir string) (*log.Logger, func()) {
	logDir := downloaders.ErrorsDir(outputDir)
	if err := r.fs.MkdirAll(logDir, 0o755); err != nil {
		return r.logger, func() {}
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102150405")))
	logFile, err := r.fs.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.logger.Warn("failed to open run log file", "error", err)
		return r.logger, func() {}
	}

	logger := shared.NewLogger(io.MultiWriter(os.Stderr, logFile))
	return logger, func() { logFile.Close() }
}

// openRecorder starts a ledger run and returns the per-run recorder plus the
// finisher that stamps the final exit code.
func (r *Runner) openRecorder(inputPath, outputDir string, c *links.Classification) (tasks.Recorder, func(int), error) {
	led, err := ledger.Open(r.config.Ledger.Path)
	if err != nil {
		return nil, nil, err
	}

	runID, err := led.BeginRun(inputPath, outputDir, c.Total, len(c.Unknown))
	if err != nil {
		led.Close()
		return nil, nil, err
	}

	rec := &ledgerRecorder{ledger: led, runID: runID}
	finish := func(exitCode int) {
		if err := led.FinishRun(runID, exitCode); err != nil {
			r.logger.Warn("failed to finish ledger run", "error", err)
		}
		led.Close()
	}
	return rec, finish, nil
}

// ledgerRecorder binds a run ID to the ledger so the engine can stay ignorant
// of run bookkeeping.
type ledgerRecorder struct {
	ledger *ledger.Ledger
	runID  string
}

func (lr *ledgerRecorder) RecordOutcome(o *downloaders.Outcome) error {
	return lr.ledger.RecordOutcome(lr.runID, o)
}

func (lr *ledgerRecorder) RecordReport(rep *reconcile.Report) error {
	return lr.ledger.RecordReport(lr.runID, rep)
}
