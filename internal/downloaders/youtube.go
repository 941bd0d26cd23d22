package downloaders

import (
	"context"

	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
)

// YouTube wraps the yt-dlp CLI.
type YouTube struct {
	base
	binary string
}

// NewYouTube creates the YouTube adapter.
func NewYouTube(opts Options, binary string) *YouTube {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YouTube{base: newBase(opts), binary: binary}
}

func (d *YouTube) Name() string { return "youtube" }

// Download runs yt-dlp for one link with two-digit index padding and info
// sidecars enabled for later reconciliation.
func (d *YouTube) Download(ctx context.Context, link links.Link) (*Outcome, error) {
	errorsFile := d.errorsFile("ytdlp")

	args := []string{
		"-o", "%(playlist_title)s/%(playlist_index)02d %(uploader)s - %(title)s.%(ext)s",
		"--extract-audio",
		"--audio-format", "mp3",
		"--write-info-json",
		"--ignore-errors",
		"--no-abort-on-error",
		"--yes-playlist",
		link.URL,
	}

	spec := ExecSpec{Binary: d.binary, Args: args, Dir: d.root, Timeout: d.timeout}

	d.logger.Info("yt-dlp", "url", link.CleanURL())
	return d.run(ctx, links.YouTube, link, spec, errorsFile)
}

// FetchMetadata is a no-op: playlist titles come from yt-dlp's sidecars.
func (d *YouTube) FetchMetadata(ctx context.Context, link links.Link) (string, error) {
	return "", nil
}

// Cleanup consolidates fresh sidecars and reconciles the playlists they
// belong to.
func (d *YouTube) Cleanup(ctx context.Context, playlistName string) ([]*reconcile.Report, error) {
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
