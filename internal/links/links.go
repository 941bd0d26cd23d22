// Package links parses raw input lines into typed, provider-grouped link records.
//
// Input files are UTF-8 text with one link per line, either as a bare URL or
// in markdown form ("[name](url)"). Blank lines and lines starting with '#'
// are skipped. Lines matching no provider pattern are kept in the Unknown
// group so they can be surfaced, never silently dropped.
package links

import (
	"fmt"
	"regexp"
	"strings"
)

// Provider identifies one of the external music sources.
type Provider int

const (
	Unknown Provider = iota
	Spotify
	YouTube
	SoundCloud
)

func (p Provider) String() string {
	switch p {
	case Spotify:
		return "spotify"
	case YouTube:
		return "youtube"
	case SoundCloud:
		return "soundcloud"
	default:
		return "unknown"
	}
}

// Providers lists the known providers. Processing order is a coordinator
// policy, not a property of the classifier; this slice is declaration order.
var Providers = []Provider{Spotify, YouTube, SoundCloud}

// Link is one parsed input line. Immutable once created.
type Link struct {
	Provider    Provider
	URL         string
	DisplayName string // bracketed text when the markdown form was used
	Raw         string // original line, trimmed
}

// Markdown re-serializes the link back to input-file form.
func (l Link) Markdown() string {
	if l.DisplayName != "" {
		return fmt.Sprintf("[%s](%s)", l.DisplayName, l.URL)
	}
	return l.URL
}

// CleanURL returns the URL with any query string stripped, for display.
func (l Link) CleanURL() string {
	if i := strings.IndexByte(l.URL, '?'); i >= 0 {
		return l.URL[:i]
	}
	return l.URL
}

var (
	markdownPattern = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^\s)]+)\)`)

	// Provider URL patterns, tried in this order. YouTube first, then
	// SoundCloud, then Spotify, matching the shapes each site emits.
	youtubePattern    = regexp.MustCompile(`https?://(?:www\.)?(?:youtube\.com|youtu\.be)/[^\s)\]]+`)
	soundcloudPattern = regexp.MustCompile(`https?://(?:www\.)?soundcloud\.com/[^\s)\]]+`)
	spotifyPattern    = regexp.MustCompile(`https?://(?:open\.)?spotify\.com/[^\s)\]]+`)
)

// Classification groups parsed links by provider, preserving input order
// within each group.
type Classification struct {
	groups  map[Provider][]Link
	Unknown []Link
	Total   int // recognized links across all providers
}

// Group returns the ordered links for one provider.
func (c *Classification) Group(p Provider) []Link {
	return c.groups[p]
}

// Count returns the number of links classified under p.
func (c *Classification) Count(p Provider) int {
	return len(c.groups[p])
}

// Links returns all recognized links in input order.
func (c *Classification) Links() []Link {
	all := make([]Link, 0, c.Total)
	for _, p := range Providers {
		all = append(all, c.groups[p]...)
	}
	return all
}

// Classify parses raw input lines into a provider grouping.
//
// Malformed lines never produce an error; they degrade to the Unknown group.
func Classify(lines []string) *Classification {
	c := &Classification{groups: make(map[Provider][]Link)}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		link := parseLine(line)
		if link.Provider == Unknown {
			c.Unknown = append(c.Unknown, link)
			continue
		}

		c.groups[link.Provider] = append(c.groups[link.Provider], link)
		c.Total++
	}

	return c
}

func parseLine(line string) Link {
	url := line
	name := ""

	if m := markdownPattern.FindStringSubmatch(line); m != nil {
		name = strings.TrimSpace(m[1])
		url = m[2]
	}

	if u := youtubePattern.FindString(url); u != "" {
		return Link{Provider: YouTube, URL: u, DisplayName: name, Raw: line}
	}
	if u := soundcloudPattern.FindString(url); u != "" {
		return Link{Provider: SoundCloud, URL: u, DisplayName: name, Raw: line}
	}
	if u := spotifyPattern.FindString(url); u != "" {
		return Link{Provider: Spotify, URL: u, DisplayName: name, Raw: line}
	}

	return Link{Provider: Unknown, URL: url, DisplayName: name, Raw: line}
}
