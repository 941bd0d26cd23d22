// Package ledger persists run history to a local SQLite database so past
// downloads and their missing-track reports can be inspected offline.
package ledger

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TC6IDM/SPOTMP3/internal/downloaders"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

//go:embed schema.sql
var schema string

// Ledger records download runs, per-link outcomes and missing tracks.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// BeginRun inserts a new run row and returns its ID.
func (l *Ledger) BeginRun(inputPath, outputDir string, totalLinks, unknownLinks int) (string, error) {
	id := shared.GenerateID()

	query := `
		INSERT INTO runs (id, input_path, output_dir, total_links, unknown_links, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := l.db.Exec(query, id, inputPath, outputDir, totalLinks, unknownLinks, time.Now()); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	return id, nil
}

// RecordOutcome stores one per-link download outcome.
func (l *Ledger) RecordOutcome(runID string, o *downloaders.Outcome) error {
	query := `
		INSERT INTO outcomes (id, run_id, provider, url, success, exit_code, errors_file, excerpt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.Exec(query,
		shared.GenerateID(),
		runID,
		o.Provider.String(),
		o.URL,
		o.Success,
		o.ExitCode,
		o.ErrorsFile,
		o.Excerpt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	return nil
}

// RecordReport stores every missing track from one reconciliation report.
func (l *Ledger) RecordReport(runID string, r *reconcile.Report) error {
	query := `
		INSERT INTO missing_tracks (id, run_id, playlist, track_index, position, title, artist, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, m := range r.Missing {
		_, err := l.db.Exec(query,
			shared.GenerateID(),
			runID,
			r.Playlist,
			m.Index,
			m.Position,
			m.Title,
			m.Artist,
			m.URL,
			time.Now(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert missing track: %w", err)
		}
	}
	return nil
}

// FinishRun stamps the run complete with its final exit code.
func (l *Ledger) FinishRun(runID string, exitCode int) error {
	query := `UPDATE runs SET exit_code = ?, finished_at = ? WHERE id = ?`

	result, err := l.db.Exec(query, exitCode, time.Now(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// RunSummary is one row from the run history listing.
type RunSummary struct {
	ID           string
	InputPath    string
	OutputDir    string
	TotalLinks   int
	UnknownLinks int
	FailedLinks  int
	MissingCount int
	ExitCode     int
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// RecentRuns lists the most recent runs with their failure and missing-track
// counts, newest first.
func (l *Ledger) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT r.id, r.input_path, r.output_dir, r.total_links, r.unknown_links, r.exit_code, r.started_at, r.finished_at,
			(SELECT COUNT(*) FROM outcomes o WHERE o.run_id = r.id AND o.success = 0),
			(SELECT COUNT(*) FROM missing_tracks m WHERE m.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?
	`

	rows, err := l.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var finished sql.NullTime
		err := rows.Scan(
			&run.ID,
			&run.InputPath,
			&run.OutputDir,
			&run.TotalLinks,
			&run.UnknownLinks,
			&run.ExitCode,
			&run.StartedAt,
			&finished,
			&run.FailedLinks,
			&run.MissingCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// MissingTracks lists the recorded missing tracks for one run.
func (l *Ledger) MissingTracks(runID string) ([]reconcile.MissingTrack, error) {
	query := `
		SELECT track_index, position, title, artist, url
		FROM missing_tracks
		WHERE run_id = ?
		ORDER BY playlist, track_index
	`

	rows, err := l.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing tracks: %w", err)
	}
	defer rows.Close()

	var tracks []reconcile.MissingTrack
	for rows.Next() {
		var track reconcile.MissingTrack
		if err := rows.Scan(&track.Index, &track.Position, &track.Title, &track.Artist, &track.URL); err != nil {
			return nil, fmt.Errorf("failed to scan missing track: %w", err)
		}
		tracks = append(tracks, track)
	}

	return tracks, rows.Err()
}
