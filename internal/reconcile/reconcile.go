// Package reconcile compares a playlist's expected track listing against the
// files actually present on disk and reports the gap.
//
// The directory scan is a pure function of on-disk state at reconcile time;
// present indices are derived fresh on every call, never cached. All
// filesystem access goes through [afero.Fs] so the engine runs unmodified
// against an in-memory filesystem in tests.
package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

var audioExts = map[string]bool{".mp3": true, ".flac": true, ".m4a": true}

var indexPattern = regexp.MustCompile(`^\s*(\d+)`)

// Snapshot is the observed state of one playlist directory plus its
// aggregated metadata at one point in time.
type Snapshot struct {
	Playlist   string
	Dir        string
	Manifest   *Manifest // nil when no aggregated metadata was found
	Present    map[int]struct{}
	Padding    int   // widest numeric filename token observed
	Duplicates []int // indices seen on more than one file, counted once
}

// MissingTrack is one expected-but-absent track.
type MissingTrack struct {
	Index    int
	Position string // index zero-padded to the observed width
	Title    string
	Artist   string
	URL      string
}

// Report is the outcome of reconciling one playlist.
type Report struct {
	Playlist      string
	Expected      int
	Padding       int
	Missing       []MissingTrack
	Extra         []int // present indices outside {1..Expected}
	MetadataFound bool
}

// MissingCount returns the number of missing tracks.
func (r *Report) MissingCount() int {
	return len(r.Missing)
}

// Complete reports whether every expected track is present.
func (r *Report) Complete() bool {
	return len(r.Missing) == 0
}

// Engine performs playlist reconciliation over a filesystem.
type Engine struct {
	fs     afero.Fs
	logger *log.Logger
}

// NewEngine creates an Engine. A nil fs defaults to the OS filesystem and a
// nil logger to the shared default.
func NewEngine(fs afero.Fs, logger *log.Logger) *Engine {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{fs: fs, logger: logger}
}

// Snapshot scans one playlist directory under root and loads its aggregated
// metadata. A missing metadata file degrades to a nil manifest; a missing
// directory is an error for this playlist only.
func (e *Engine) Snapshot(root, playlist string) (*Snapshot, error) {
	dir := filepath.Join(root, playlist)

	ok, err := afero.DirExists(e.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat playlist dir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoPlaylistDir, dir)
	}

	snap := &Snapshot{Playlist: playlist, Dir: dir, Present: make(map[int]struct{})}

	manifest, err := LoadManifest(e.fs, MetadataPath(root, playlist))
	switch {
	case errors.Is(err, shared.ErrMetadataMissing):
		e.logger.Info("no metadata for playlist", "playlist", playlist)
	case err != nil:
		e.logger.Error("failed to load metadata", "playlist", playlist, "err", err)
	default:
		snap.Manifest = manifest
	}

	entries, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !audioExts[ext] {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		m := indexPattern.FindStringSubmatch(stem)
		if m == nil {
			continue
		}

		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, seen := snap.Present[num]; seen {
			snap.Duplicates = append(snap.Duplicates, num)
			continue
		}
		snap.Present[num] = struct{}{}
		if w := len(m[1]); w > snap.Padding {
			snap.Padding = w
		}
	}

	sort.Ints(snap.Duplicates)
	return snap, nil
}

// Reconcile computes the missing-track report for a snapshot.
//
// Expected count comes from the manifest when one exists; otherwise it falls
// back to the highest index observed on disk, in which case no missing-track
// claim can be made beyond what was seen.
func (e *Engine) Reconcile(snap *Snapshot) *Report {
	report := &Report{
		Playlist:      snap.Playlist,
		Padding:       snap.Padding,
		MetadataFound: snap.Manifest != nil,
	}

	if snap.Manifest != nil {
		report.Expected = snap.Manifest.Expected()
	} else {
		for n := range snap.Present {
			if n > report.Expected {
				report.Expected = n
			}
		}
	}

	if report.Expected == 0 {
		return report
	}

	if len(snap.Duplicates) > 0 {
		e.logger.Warn("duplicate track indices on disk", "playlist", snap.Playlist, "indices", snap.Duplicates)
	}

	for n := 1; n <= report.Expected; n++ {
		if _, ok := snap.Present[n]; ok {
			continue
		}

		missing := MissingTrack{Index: n, Position: padIndex(n, snap.Padding)}
		if snap.Manifest != nil {
			if track, ok := snap.Manifest.TrackAt(n); ok {
				missing.Title = track.Title
				missing.Artist = track.Artist
				missing.URL = track.URL
			}
		}
		report.Missing = append(report.Missing, missing)
	}

	for n := range snap.Present {
		if n > report.Expected {
			report.Extra = append(report.Extra, n)
		}
	}
	sort.Ints(report.Extra)

	e.logReport(report)
	return report
}

// ReconcilePlaylist snapshots and reconciles a single playlist.
func (e *Engine) ReconcilePlaylist(root, playlist string) (*Report, error) {
	snap, err := e.Snapshot(root, playlist)
	if err != nil {
		return nil, err
	}
	return e.Reconcile(snap), nil
}

// ReconcileAll reconciles every visible playlist directory under root.
// Dot-directories (.metadata, .errors, .icons) are skipped.
func (e *Engine) ReconcileAll(root string) ([]*Report, error) {
	entries, err := afero.ReadDir(e.fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan output root: %w", err)
	}

	var reports []*Report
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		report, err := e.ReconcilePlaylist(root, entry.Name())
		if err != nil {
			e.logger.Error("reconcile failed", "playlist", entry.Name(), "err", err)
			continue
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func (e *Engine) logReport(r *Report) {
	if len(r.Extra) > 0 {
		e.logger.Warn("indices beyond expected count", "playlist", r.Playlist, "expected", r.Expected, "extra", r.Extra)
	}

	if r.Complete() {
		e.logger.Info("all tracks present", "playlist", r.Playlist, "expected", r.Expected)
		return
	}

	e.logger.Warn("missing tracks", "playlist", r.Playlist, "expected", r.Expected, "missing", r.MissingCount())
	for _, m := range r.Missing {
		if m.Title != "" {
			e.logger.Warn("missing", "position", m.Position, "title", m.Title, "artist", m.Artist, "url", m.URL)
		} else {
			e.logger.Warn("missing", "position", m.Position, "title", "unknown")
		}
	}
}

func padIndex(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
