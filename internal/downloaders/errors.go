package downloaders

import "strings"

// FailedSong is one per-song failure parsed from a spotdl errors file.
type FailedSong struct {
	URL    string
	Reason string
	Title  string
	Artist string
}

const (
	lookupErrorMarker   = " - LookupError: No results found for song:"
	keyErrorMarker      = " - KeyError: 'webCommandMetadata'"
	audioProviderMarker = " - AudioProviderError: YT-DLP download error - "
)

// ParseSpotdlErrors extracts failed songs from spotdl's --save-errors output.
// Lines it does not recognize are ignored; the file also carries free-form
// tool chatter.
func ParseSpotdlErrors(content string) []FailedSong {
	var failed []FailedSong

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "https://open.spotify.com/track/") {
			continue
		}

		switch {
		case strings.Contains(line, lookupErrorMarker):
			// https://open.spotify.com/track/<id> - LookupError: No results found for song: <artists> - <title>
			url, rest, _ := strings.Cut(line, lookupErrorMarker)
			artist, title, _ := strings.Cut(rest, " - ")
			failed = append(failed, FailedSong{
				URL:    strings.TrimSpace(url),
				Reason: "LookupError: No results found",
				Title:  strings.TrimSpace(title),
				Artist: strings.TrimSpace(artist),
			})

		case strings.Contains(line, keyErrorMarker):
			url, _, _ := strings.Cut(line, " - KeyError:")
			failed = append(failed, FailedSong{
				URL:    strings.TrimSpace(url),
				Reason: "KeyError: 'webCommandMetadata'",
			})

		case strings.Contains(line, audioProviderMarker):
			url, _, _ := strings.Cut(line, audioProviderMarker)
			failed = append(failed, FailedSong{
				URL:    strings.TrimSpace(url),
				Reason: "AudioProviderError: YT-DLP download error",
			})
		}
	}

	return failed
}
