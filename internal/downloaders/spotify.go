package downloaders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

// MetadataClient captures playlist metadata (and cover art) for a Spotify
// link and returns the sanitized playlist name. Implemented by
// [services.SpotifyClient].
type MetadataClient interface {
	Capture(ctx context.Context, rawURL string) (string, error)
}

// Spotify wraps the spotdl CLI.
type Spotify struct {
	base
	binary       string
	clientID     string
	clientSecret string
	metadata     MetadataClient
}

// NewSpotify creates the Spotify adapter. Credentials are required; callers
// without them should not construct the adapter at all so the rest of the
// run proceeds.
func NewSpotify(opts Options, binary, clientID, clientSecret string, metadata MetadataClient) (*Spotify, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client id and secret required", shared.ErrMissingCredentials)
	}
	if binary == "" {
		binary = "spotdl"
	}
	return &Spotify{
		base:         newBase(opts),
		binary:       binary,
		clientID:     clientID,
		clientSecret: clientSecret,
		metadata:     metadata,
	}, nil
}

func (d *Spotify) Name() string { return "spotify" }

// Download runs spotdl for one link, selecting the output template by link
// kind. The tool's errors file is parsed for per-song failures afterwards.
func (d *Spotify) Download(ctx context.Context, link links.Link) (*Outcome, error) {
	errorsFile := d.errorsFile("errors")

	args := []string{
		"--save-errors", errorsFile,
		"--client-id", d.clientID,
		"--client-secret", d.clientSecret,
	}
	if template, ok := spotdlTemplate(link.URL); ok {
		args = append(args, "--output", template)
	} else {
		d.logger.Info("unknown spotify link kind, using tool default template", "url", link.CleanURL())
	}
	args = append(args, "download", link.URL)

	spec := ExecSpec{Binary: d.binary, Args: args, Dir: d.root, Timeout: d.timeout}

	d.logger.Info("spotdl", "url", link.CleanURL())
	outcome, err := d.run(ctx, links.Spotify, link, spec, errorsFile)
	if err != nil {
		return outcome, err
	}

	outcome.Failed = d.parseErrorsFile(errorsFile)
	for _, song := range outcome.Failed {
		d.logger.Warn("song failed", "url", song.URL, "reason", song.Reason, "title", song.Title, "artist", song.Artist)
	}

	return outcome, nil
}

// FetchMetadata resolves the playlist name via the Spotify Web API, writing
// the raw metadata and cover image under the output root as a side effect.
func (d *Spotify) FetchMetadata(ctx context.Context, link links.Link) (string, error) {
	if d.metadata == nil {
		return "", shared.ErrNotAuthenticated
	}
	return d.metadata.Capture(ctx, link.URL)
}

// Cleanup reconciles the named playlist against its API metadata.
func (d *Spotify) Cleanup(ctx context.Context, playlistName string) ([]*reconcile.Report, error) {
	if playlistName == "" {
		d.logger.Info("no playlist name for cleanup")
		return nil, nil
	}

	report, err := d.engine.ReconcilePlaylist(d.root, playlistName)
	if errors.Is(err, shared.ErrNoPlaylistDir) {
		d.logger.Info("no playlist dir for cleanup", "playlist", playlistName)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*reconcile.Report{report}, nil
}

func (d *Spotify) parseErrorsFile(path string) []FailedSong {
	data, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return nil
	}
	return ParseSpotdlErrors(string(data))
}

// spotdlTemplate picks the output template for a link kind. Playlists index
// by list position, albums by track number, artists carry no index at all.
func spotdlTemplate(url string) (string, bool) {
	switch {
	case strings.Contains(url, "playlist"):
		return "{list-name}/{list-position} {title} - {artists}.{output-ext}", true
	case strings.Contains(url, "album"):
		return "{list-name}/{track-number} {title} - {artists}.{output-ext}", true
	case strings.Contains(url, "artist"):
		return "{list-name}/{title} - {artists}.{output-ext}", true
	case strings.Contains(url, "track"):
		return "{title}/{title} - {artists}.{output-ext}", true
	default:
		return "", false
	}
}
