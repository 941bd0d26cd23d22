package reconcile

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

func TestParseManifest(t *testing.T) {
	t.Run("SpotifyPlaylist", func(t *testing.T) {
		data := `{
			"type": "playlist",
			"name": "Road Trip",
			"tracks": {
				"total": 2,
				"items": [
					{"track": {"name": "Alpha", "artists": [{"name": "A"}, {"name": "B"}], "external_urls": {"spotify": "https://open.spotify.com/track/1"}}},
					{"track": {"name": "Beta", "artists": [{"name": "C"}], "external_urls": {"spotify": "https://open.spotify.com/track/2"}}}
				]
			}
		}`

		m, err := ParseManifest([]byte(data))
		require.NoError(t, err)

		assert.Equal(t, "Road Trip", m.Name)
		assert.Equal(t, "playlist", m.Kind)
		assert.Equal(t, 2, m.Expected())
		require.Len(t, m.Tracks, 2)
		assert.Equal(t, "Alpha", m.Tracks[0].Title)
		assert.Equal(t, "A, B", m.Tracks[0].Artist)
		assert.Equal(t, 1, m.Tracks[0].Index)
		assert.Equal(t, "https://open.spotify.com/track/2", m.Tracks[1].URL)
	})

	t.Run("SpotifyAlbumFlatItems", func(t *testing.T) {
		data := `{
			"type": "album",
			"name": "LP",
			"tracks": {
				"total": 1,
				"items": [
					{"name": "Solo", "artists": [{"name": "X"}], "external_urls": {"spotify": "https://open.spotify.com/track/9"}}
				]
			}
		}`

		m, err := ParseManifest([]byte(data))
		require.NoError(t, err)
		require.Len(t, m.Tracks, 1)
		assert.Equal(t, "Solo", m.Tracks[0].Title)
		assert.Equal(t, "X", m.Tracks[0].Artist)
	})

	t.Run("SpotifySingleTrack", func(t *testing.T) {
		data := `{"type": "track", "name": "One Shot", "artists": [{"name": "Y"}], "external_urls": {"spotify": "https://open.spotify.com/track/z"}}`

		m, err := ParseManifest([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, 1, m.Expected())
		require.Len(t, m.Tracks, 1)
		assert.Equal(t, "One Shot", m.Tracks[0].Title)
	})

	t.Run("SpotifyArtistNoTracks", func(t *testing.T) {
		m, err := ParseManifest([]byte(`{"type": "artist", "name": "Someone"}`))
		require.NoError(t, err)
		assert.Zero(t, m.Expected())
		assert.Empty(t, m.Tracks)
	})

	t.Run("YtdlpShape", func(t *testing.T) {
		data := `{
			"title": "Uploads",
			"playlist_count": 3,
			"entries": [
				{"playlist_index": 1, "title": "First", "uploader": "chan", "webpage_url": "https://youtu.be/1"},
				{"playlist_index": 3, "title": "Third", "uploader": "chan", "webpage_url": "https://youtu.be/3"}
			]
		}`

		m, err := ParseManifest([]byte(data))
		require.NoError(t, err)

		assert.Equal(t, "Uploads", m.Name)
		assert.Equal(t, 3, m.Expected(), "playlist_count wins over entry count")

		track, ok := m.TrackAt(3)
		require.True(t, ok)
		assert.Equal(t, "Third", track.Title)

		_, ok = m.TrackAt(2)
		assert.False(t, ok)
	})

	t.Run("YtdlpCountFallback", func(t *testing.T) {
		data := `{"title": "Set", "entries": [{"title": "a"}, {"title": "b"}]}`

		m, err := ParseManifest([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, 2, m.Expected())
		// Entries without explicit playlist_index get ordinal positions.
		track, ok := m.TrackAt(2)
		require.True(t, ok)
		assert.Equal(t, "b", track.Title)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseManifest([]byte("not json"))
		assert.Error(t, err)
	})
}

func TestLoadManifest(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadManifest(fs, MetadataPath("/out", "Nope"))
	assert.ErrorIs(t, err, shared.ErrMetadataMissing)

	require.NoError(t, fs.MkdirAll(MetadataDir("/out"), 0755))
	require.NoError(t, afero.WriteFile(fs, MetadataPath("/out", "Mix"), []byte(`{"title":"Mix","playlist_count":4,"entries":[]}`), 0644))

	m, err := LoadManifest(fs, MetadataPath("/out", "Mix"))
	require.NoError(t, err)
	assert.Equal(t, 4, m.Expected())
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Road Trip", "Road Trip"},
		{"mix/2024: best*of?", "mix2024 bestof"},
		{"trailing space   ", "trailing space"},
		{"under_score-ok", "under_score-ok"},
	}

	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
