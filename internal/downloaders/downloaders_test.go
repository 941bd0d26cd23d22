package downloaders

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

type fakeRunner struct {
	specs    []ExecSpec
	exitCode int
	output   string
	err      error
	onRun    func(spec ExecSpec)
}

func (f *fakeRunner) Run(ctx context.Context, spec ExecSpec) (*ExecResult, error) {
	f.specs = append(f.specs, spec)
	if f.onRun != nil {
		f.onRun(spec)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ExecResult{ExitCode: f.exitCode, Output: f.output}, nil
}

func testOpts(runner ToolRunner) (Options, afero.Fs) {
	fs := afero.NewMemMapFs()
	return Options{
		FS:         fs,
		Runner:     runner,
		Logger:     shared.NewLogger(io.Discard),
		OutputRoot: "/music",
	}, fs
}

func argValue(t *testing.T, spec ExecSpec, flag string) string {
	t.Helper()
	for i, a := range spec.Args {
		if a == flag && i+1 < len(spec.Args) {
			return spec.Args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, spec.Args)
	return ""
}

func TestSpotifyDownload(t *testing.T) {
	t.Run("PlaylistTemplate", func(t *testing.T) {
		runner := &fakeRunner{}
		opts, _ := testOpts(runner)
		d, err := NewSpotify(opts, "spotdl", "id", "secret", nil)
		if err != nil {
			t.Fatalf("NewSpotify: %v", err)
		}

		link := links.Link{Provider: links.Spotify, URL: "https://open.spotify.com/playlist/ABC"}
		outcome, err := d.Download(context.Background(), link)
		if err != nil {
			t.Fatalf("Download: %v", err)
		}

		if !outcome.Success {
			t.Error("expected success")
		}
		spec := runner.specs[0]
		if spec.Binary != "spotdl" {
			t.Errorf("binary = %s", spec.Binary)
		}
		if spec.Dir != "/music" {
			t.Errorf("dir = %s", spec.Dir)
		}
		if got := argValue(t, spec, "--output"); got != "{list-name}/{list-position} {title} - {artists}.{output-ext}" {
			t.Errorf("playlist template = %s", got)
		}
		if got := argValue(t, spec, "--client-id"); got != "id" {
			t.Errorf("client id = %s", got)
		}
		if spec.Args[len(spec.Args)-1] != link.URL {
			t.Errorf("url should be last arg, got %v", spec.Args)
		}
		if !strings.Contains(argValue(t, spec, "--save-errors"), filepath.Join("/music", ".errors")+"/errors-") {
			t.Errorf("errors file = %s", argValue(t, spec, "--save-errors"))
		}
	})

	t.Run("AlbumTemplate", func(t *testing.T) {
		runner := &fakeRunner{}
		opts, _ := testOpts(runner)
		d, _ := NewSpotify(opts, "", "id", "secret", nil)

		_, err := d.Download(context.Background(), links.Link{URL: "https://open.spotify.com/album/XYZ"})
		if err != nil {
			t.Fatalf("Download: %v", err)
		}

		if got := argValue(t, runner.specs[0], "--output"); got != "{list-name}/{track-number} {title} - {artists}.{output-ext}" {
			t.Errorf("album template = %s", got)
		}
	})

	t.Run("NonzeroExitNotFatal", func(t *testing.T) {
		runner := &fakeRunner{exitCode: 2, output: "boom"}
		opts, fs := testOpts(runner)
		d, _ := NewSpotify(opts, "", "id", "secret", nil)

		outcome, err := d.Download(context.Background(), links.Link{URL: "https://open.spotify.com/playlist/ABC"})
		if err != nil {
			t.Fatalf("nonzero exit must not return an error, got %v", err)
		}
		if outcome.Success {
			t.Error("expected failure outcome")
		}
		if outcome.ExitCode != 2 {
			t.Errorf("exit code = %d", outcome.ExitCode)
		}

		data, err := afero.ReadFile(fs, outcome.ErrorsFile)
		if err != nil {
			t.Fatalf("errors file not written: %v", err)
		}
		if !strings.Contains(string(data), "exit code 2") {
			t.Errorf("errors file content = %q", data)
		}
	})

	t.Run("FailedSongsParsed", func(t *testing.T) {
		runner := &fakeRunner{}
		opts, fs := testOpts(runner)
		runner.onRun = func(spec ExecSpec) {
			path := ""
			for i, a := range spec.Args {
				if a == "--save-errors" {
					path = spec.Args[i+1]
				}
			}
			content := "https://open.spotify.com/track/6bF - LookupError: No results found for song: NOTION - Dreams\n"
			afero.WriteFile(fs, path, []byte(content), 0644)
		}

		d, _ := NewSpotify(opts, "", "id", "secret", nil)
		outcome, err := d.Download(context.Background(), links.Link{URL: "https://open.spotify.com/playlist/ABC"})
		if err != nil {
			t.Fatalf("Download: %v", err)
		}

		if len(outcome.Failed) != 1 {
			t.Fatalf("expected 1 failed song, got %d", len(outcome.Failed))
		}
		if outcome.Failed[0].Title != "Dreams" || outcome.Failed[0].Artist != "NOTION" {
			t.Errorf("failed song = %+v", outcome.Failed[0])
		}
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		opts, _ := testOpts(&fakeRunner{})
		if _, err := NewSpotify(opts, "", "", "", nil); err == nil {
			t.Fatal("expected error without credentials")
		}
	})
}

func TestSoundCloudDownload(t *testing.T) {
	runner := &fakeRunner{}
	opts, _ := testOpts(runner)
	d := NewSoundCloud(opts, "")

	_, err := d.Download(context.Background(), links.Link{URL: "https://soundcloud.com/u/sets/xyz"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	spec := runner.specs[0]
	if spec.Binary != "scdl" {
		t.Errorf("binary = %s", spec.Binary)
	}
	if got := argValue(t, spec, "-l"); got != "https://soundcloud.com/u/sets/xyz" {
		t.Errorf("link arg = %s", got)
	}
	if got := argValue(t, spec, "--playlist-name-format"); got != "%(playlist)s/%(playlist_index)04d %(uploader)s - %(title)s.%(ext)s" {
		t.Errorf("name format = %s", got)
	}
	if got := argValue(t, spec, "--yt-dlp-args"); !strings.Contains(got, "--write-info-json") {
		t.Errorf("yt-dlp args = %s", got)
	}
}

func TestYouTubeDownload(t *testing.T) {
	runner := &fakeRunner{}
	opts, _ := testOpts(runner)
	d := NewYouTube(opts, "")

	_, err := d.Download(context.Background(), links.Link{URL: "https://www.youtube.com/playlist?list=PL1"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	spec := runner.specs[0]
	if spec.Binary != "yt-dlp" {
		t.Errorf("binary = %s", spec.Binary)
	}
	if got := argValue(t, spec, "-o"); got != "%(playlist_title)s/%(playlist_index)02d %(uploader)s - %(title)s.%(ext)s" {
		t.Errorf("output template = %s", got)
	}
	if got := argValue(t, spec, "--audio-format"); got != "mp3" {
		t.Errorf("audio format = %s", got)
	}
}

func TestCleanupConsolidatesSidecars(t *testing.T) {
	opts, fs := testOpts(&fakeRunner{})
	d := NewYouTube(opts, "")

	dir := "/music/My Mix"
	files := map[string]string{
		"01 chan - First.mp3":       "audio",
		"01 chan - First.info.json": `{"title":"First","uploader":"chan","playlist_index":1,"playlist_count":3,"webpage_url":"https://youtu.be/1"}`,
		"03 chan - Third.mp3":       "audio",
		"03 chan - Third.info.json": `{"title":"Third","uploader":"chan","playlist_index":3,"playlist_count":3,"webpage_url":"https://youtu.be/3"}`,
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := afero.WriteFile(fs, filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Stray root sidecar must be removed, not consolidated.
	if err := afero.WriteFile(fs, "/music/stray.info.json", []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	reports, err := d.Cleanup(context.Background(), "")
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	report := reports[0]
	if report.Playlist != "My Mix" {
		t.Errorf("playlist = %s", report.Playlist)
	}
	if report.Expected != 3 {
		t.Errorf("expected = %d", report.Expected)
	}
	if report.MissingCount() != 1 || report.Missing[0].Index != 2 {
		t.Errorf("missing = %+v", report.Missing)
	}
	if report.Missing[0].Title != "" {
		t.Errorf("index 2 has no metadata entry, title should be empty, got %q", report.Missing[0].Title)
	}

	if ok, _ := afero.Exists(fs, filepath.Join(dir, "01 chan - First.info.json")); ok {
		t.Error("consumed sidecar should be deleted")
	}
	if ok, _ := afero.Exists(fs, "/music/stray.info.json"); ok {
		t.Error("stray root sidecar should be deleted")
	}
	if ok, _ := afero.Exists(fs, "/music/.metadata/My Mix.json"); !ok {
		t.Error("aggregated metadata should exist")
	}

	// Second pass has no fresh sidecars, so no duplicate reports.
	reports, err = d.Cleanup(context.Background(), "")
	if err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no reports on second pass, got %d", len(reports))
	}
}

func TestParseSpotdlErrors(t *testing.T) {
	content := `some preamble
https://open.spotify.com/track/6bF - LookupError: No results found for song: NOTION - Dreams
https://open.spotify.com/track/2ZX - KeyError: 'webCommandMetadata'
https://open.spotify.com/track/0PB - AudioProviderError: YT-DLP download error - https://music.youtube.com/watch?v=x
https://example.com/ignored - LookupError: No results found for song: A - B
`

	failed := ParseSpotdlErrors(content)
	if len(failed) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(failed))
	}

	if failed[0].Reason != "LookupError: No results found" || failed[0].Title != "Dreams" || failed[0].Artist != "NOTION" {
		t.Errorf("lookup failure = %+v", failed[0])
	}
	if failed[1].URL != "https://open.spotify.com/track/2ZX" {
		t.Errorf("key error url = %s", failed[1].URL)
	}
	if failed[2].Reason != "AudioProviderError: YT-DLP download error" {
		t.Errorf("audio provider reason = %s", failed[2].Reason)
	}
}
