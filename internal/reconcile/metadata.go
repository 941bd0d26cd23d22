package reconcile

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

// TrackMetadata is one entry from an aggregated metadata file. Index is the
// 1-based position the source tool believes the track holds.
type TrackMetadata struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

// Manifest is the normalized view of a ".metadata/<playlist>.json" artifact,
// regardless of which tool produced it.
type Manifest struct {
	Name          string
	Kind          string // playlist, album, artist, track
	ReportedTotal int    // tool-reported track/playlist count, 0 when absent
	Tracks        []TrackMetadata
}

// Expected returns the track count the manifest claims the playlist holds.
func (m *Manifest) Expected() int {
	if m.ReportedTotal > 0 {
		return m.ReportedTotal
	}
	return len(m.Tracks)
}

// TrackAt looks up the metadata entry for a 1-based index.
func (m *Manifest) TrackAt(index int) (TrackMetadata, bool) {
	for _, t := range m.Tracks {
		if t.Index == index {
			return t, true
		}
	}
	return TrackMetadata{}, false
}

// MetadataDir returns the aggregated-metadata directory under an output root.
func MetadataDir(root string) string {
	return filepath.Join(root, ".metadata")
}

// MetadataPath returns the aggregated metadata file path for one playlist.
func MetadataPath(root, playlist string) string {
	return filepath.Join(MetadataDir(root), playlist+".json")
}

// SanitizeName strips characters that are unsafe in file names, keeping
// letters, digits, spaces, hyphens and underscores.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Spotify Web API resource shape, as written by the metadata fetch step.
// Playlist items wrap the track object under a "track" key; album items are
// flat track objects.
type spotifyTrack struct {
	Name         string            `json:"name"`
	Artists      []spotifyArtist   `json:"artists"`
	ExternalURLs map[string]string `json:"external_urls"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyItem struct {
	spotifyTrack
	Track *spotifyTrack `json:"track"`
}

func (i spotifyItem) resolve() spotifyTrack {
	if i.Track != nil {
		return *i.Track
	}
	return i.spotifyTrack
}

type spotifyResource struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Tracks struct {
		Total int           `json:"total"`
		Items []spotifyItem `json:"items"`
	} `json:"tracks"`
	Artists      []spotifyArtist   `json:"artists"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// yt-dlp / scdl consolidated sidecar shape.
type ytdlpManifest struct {
	Title         string       `json:"title"`
	PlaylistTitle string       `json:"playlist_title"`
	PlaylistCount int          `json:"playlist_count"`
	Entries       []ytdlpEntry `json:"entries"`
}

type ytdlpEntry struct {
	PlaylistIndex int    `json:"playlist_index"`
	Title         string `json:"title"`
	Uploader      string `json:"uploader"`
	WebpageURL    string `json:"webpage_url"`
}

// LoadManifest reads and normalizes an aggregated metadata file. A missing
// file yields [shared.ErrMetadataMissing] so callers can degrade instead of
// failing the playlist.
func LoadManifest(fs afero.Fs, path string) (*Manifest, error) {
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat metadata: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrMetadataMissing, path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	return ParseManifest(data)
}

// ParseManifest sniffs the metadata shape and normalizes it.
func ParseManifest(data []byte) (*Manifest, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	switch probe.Type {
	case "playlist", "album", "artist", "track":
		return parseSpotifyManifest(data)
	default:
		return parseYtdlpManifest(data)
	}
}

func parseSpotifyManifest(data []byte) (*Manifest, error) {
	var res spotifyResource
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse spotify metadata: %w", err)
	}

	m := &Manifest{Name: res.Name, Kind: res.Type}

	switch res.Type {
	case "playlist", "album":
		m.ReportedTotal = res.Tracks.Total
		for i, item := range res.Tracks.Items {
			track := item.resolve()
			m.Tracks = append(m.Tracks, TrackMetadata{
				Index:  i + 1,
				Title:  strings.TrimSpace(track.Name),
				Artist: joinArtists(track.Artists),
				URL:    track.ExternalURLs["spotify"],
			})
		}
	case "track":
		m.ReportedTotal = 1
		m.Tracks = []TrackMetadata{{
			Index:  1,
			Title:  strings.TrimSpace(res.Name),
			Artist: joinArtists(res.Artists),
			URL:    res.ExternalURLs["spotify"],
		}}
	case "artist":
		// Artist downloads carry no track listing; nothing to reconcile against.
	}

	return m, nil
}

func parseYtdlpManifest(data []byte) (*Manifest, error) {
	var res ytdlpManifest
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar metadata: %w", err)
	}

	name := res.PlaylistTitle
	if name == "" {
		name = res.Title
	}

	m := &Manifest{Name: name, Kind: "playlist", ReportedTotal: res.PlaylistCount}
	for i, entry := range res.Entries {
		index := entry.PlaylistIndex
		if index == 0 {
			index = i + 1
		}
		m.Tracks = append(m.Tracks, TrackMetadata{
			Index:  index,
			Title:  strings.TrimSpace(entry.Title),
			Artist: entry.Uploader,
			URL:    entry.WebpageURL,
		})
	}

	return m, nil
}

// SaveManifest writes a manifest in the consolidated sidecar shape so that
// [LoadManifest] round-trips it.
func SaveManifest(fs afero.Fs, path string, m *Manifest) error {
	out := ytdlpManifest{Title: m.Name, PlaylistCount: m.ReportedTotal}
	for _, t := range m.Tracks {
		out.Entries = append(out.Entries, ytdlpEntry{
			PlaylistIndex: t.Index,
			Title:         t.Title,
			Uploader:      t.Artist,
			WebpageURL:    t.URL,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata dir: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func joinArtists(artists []spotifyArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}
