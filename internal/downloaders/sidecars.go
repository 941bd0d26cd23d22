package downloaders

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
)

// trackInfo is the slice of a yt-dlp per-track .info.json sidecar we care
// about. scdl delegates to yt-dlp, so both tools emit this shape.
type trackInfo struct {
	Title         string `json:"title"`
	Uploader      string `json:"uploader"`
	WebpageURL    string `json:"webpage_url"`
	PlaylistIndex int    `json:"playlist_index"`
	PlaylistCount int    `json:"playlist_count"`
}

// consolidateSidecars merges per-track *.info.json sidecars into one
// aggregated ".metadata/<playlist>.json" per playlist directory, moves any
// playlist description alongside it, and deletes the consumed sidecars.
// Returns the names of the playlists that had fresh sidecars this pass.
func consolidateSidecars(fs afero.Fs, root string, logger *log.Logger) ([]string, error) {
	// Tools sometimes drop info files at the root; they belong to no playlist.
	strays, err := afero.Glob(fs, filepath.Join(root, "*.info.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob root sidecars: %w", err)
	}
	for _, stray := range strays {
		logger.Info("deleting stray sidecar", "file", filepath.Base(stray))
		if err := fs.Remove(stray); err != nil {
			logger.Warn("failed to delete stray sidecar", "file", stray, "err", err)
		}
	}

	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan output root: %w", err)
	}

	var touched []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		ok, err := consolidatePlaylist(fs, root, entry.Name(), logger)
		if err != nil {
			logger.Error("sidecar consolidation failed", "playlist", entry.Name(), "err", err)
			continue
		}
		if ok {
			touched = append(touched, entry.Name())
		}
	}

	sort.Strings(touched)
	return touched, nil
}

func consolidatePlaylist(fs afero.Fs, root, playlist string, logger *log.Logger) (bool, error) {
	dir := filepath.Join(root, playlist)

	sidecars, err := afero.Glob(fs, filepath.Join(dir, "*.info.json"))
	if err != nil {
		return false, fmt.Errorf("failed to glob sidecars: %w", err)
	}
	if len(sidecars) == 0 {
		return false, nil
	}
	sort.Strings(sidecars)

	manifest := &reconcile.Manifest{Name: playlist, Kind: "playlist"}
	for i, sidecar := range sidecars {
		data, err := afero.ReadFile(fs, sidecar)
		if err != nil {
			logger.Warn("unreadable sidecar", "file", sidecar, "err", err)
			continue
		}

		var info trackInfo
		if err := json.Unmarshal(data, &info); err != nil {
			logger.Warn("malformed sidecar", "file", sidecar, "err", err)
			continue
		}

		if info.PlaylistCount > manifest.ReportedTotal {
			manifest.ReportedTotal = info.PlaylistCount
		}
		index := info.PlaylistIndex
		if index == 0 {
			index = i + 1
		}
		manifest.Tracks = append(manifest.Tracks, reconcile.TrackMetadata{
			Index:  index,
			Title:  strings.TrimSpace(info.Title),
			Artist: info.Uploader,
			URL:    info.WebpageURL,
		})
	}

	if err := reconcile.SaveManifest(fs, reconcile.MetadataPath(root, playlist), manifest); err != nil {
		return false, err
	}
	logger.Info("consolidated sidecars", "playlist", playlist, "tracks", len(manifest.Tracks))

	// The playlist description, when present, lives next to the metadata.
	desc := filepath.Join(dir, playlist+".description")
	if ok, _ := afero.Exists(fs, desc); ok {
		dest := filepath.Join(reconcile.MetadataDir(root), playlist+".txt")
		if err := fs.Rename(desc, dest); err != nil {
			logger.Warn("failed to move description", "playlist", playlist, "err", err)
		}
	}

	for _, sidecar := range sidecars {
		if err := fs.Remove(sidecar); err != nil {
			logger.Warn("failed to delete sidecar", "file", sidecar, "err", err)
		}
	}

	return true, nil
}
