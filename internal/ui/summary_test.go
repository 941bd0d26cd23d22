package ui

import (
	"strings"
	"testing"

	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
)

func TestRenderReport(t *testing.T) {
	t.Run("complete playlist", func(t *testing.T) {
		out := RenderReport(&reconcile.Report{Playlist: "Chill", Expected: 5})
		if !strings.Contains(out, "all 5 tracks present") {
			t.Errorf("expected completion line, got %q", out)
		}
	})

	t.Run("missing tracks listed with position", func(t *testing.T) {
		out := RenderReport(&reconcile.Report{
			Playlist: "Chill",
			Expected: 5,
			Missing: []reconcile.MissingTrack{
				{Index: 3, Position: "03", Title: "Ghost", Artist: "Nobody"},
				{Index: 5, Position: "05", URL: "https://open.spotify.com/track/x"},
			},
		})

		for _, want := range []string{"2 of 5 tracks missing", "03", "Nobody - Ghost", "https://open.spotify.com/track/x"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output, got %q", want, out)
			}
		}
	})
}

func TestRenderClassification(t *testing.T) {
	c := links.Classify([]string{
		"https://soundcloud.com/artist/sets/mix",
		"not a link at all",
	})

	out := RenderClassification(c)
	if !strings.Contains(out, "soundcloud (1)") {
		t.Errorf("expected soundcloud group, got %q", out)
	}
	if !strings.Contains(out, "unrecognized (1)") {
		t.Errorf("expected unrecognized group, got %q", out)
	}
}
