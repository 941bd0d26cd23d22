package downloaders

import (
	"context"

	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
)

// SoundCloud wraps the scdl CLI, which delegates media retrieval to yt-dlp.
type SoundCloud struct {
	base
	binary string
}

// NewSoundCloud creates the SoundCloud adapter.
func NewSoundCloud(opts Options, binary string) *SoundCloud {
	if binary == "" {
		binary = "scdl"
	}
	return &SoundCloud{base: newBase(opts), binary: binary}
}

func (d *SoundCloud) Name() string { return "soundcloud" }

// Download runs scdl for one link. Tracks are numbered with four-digit
// padding so large sets sort correctly.
func (d *SoundCloud) Download(ctx context.Context, link links.Link) (*Outcome, error) {
	errorsFile := d.errorsFile("scdl")

	args := []string{
		"-l", link.URL,
		"--path", d.root,
		"--no-playlist-folder",
		"--playlist-name-format", "%(playlist)s/%(playlist_index)04d %(uploader)s - %(title)s.%(ext)s",
		"--onlymp3",
		"--original-art",
		"-c",
		"--debug",
		"--yt-dlp-args", "--write-info-json --ignore-errors --no-abort-on-error --yes-playlist --embed-thumbnail --audio-quality 1",
	}

	spec := ExecSpec{Binary: d.binary, Args: args, Dir: d.root, Timeout: d.timeout}

	d.logger.Info("scdl", "url", link.CleanURL())
	return d.run(ctx, links.SoundCloud, link, spec, errorsFile)
}

// FetchMetadata is a no-op: SoundCloud playlist names are discovered from the
// sidecars the tool writes, not from an API.
func (d *SoundCloud) FetchMetadata(ctx context.Context, link links.Link) (string, error) {
	return "", nil
}

// Cleanup consolidates fresh sidecars into aggregated metadata and
// reconciles the playlists touched by this pass.
func (d *SoundCloud) Cleanup(ctx context.Context, playlistName string) ([]*reconcile.Report, error) {
	touched, err := consolidateSidecars(d.fs, d.root, d.logger)
	if err != nil {
		return nil, err
	}

	var reports []*reconcile.Report
	for _, playlist := range touched {
		report, err := d.engine.ReconcilePlaylist(d.root, playlist)
		if err != nil {
			d.logger.Error("reconcile failed", "playlist", playlist, "err", err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}
