// Spotify Web API metadata client.
//
// The download tools handle media retrieval; this client only fetches
// resource metadata (playlist/album/artist/track) so the reconciliation
// engine knows what a playlist is supposed to contain, and grabs the cover
// image while it is at it. Authentication uses the OAuth2 client-credentials
// flow, which is all the public metadata endpoints need.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// resourceKinds maps a URL path segment to its API collection.
var resourceKinds = map[string]string{
	"playlist": "playlists",
	"album":    "albums",
	"artist":   "artists",
	"track":    "tracks",
}

// SpotifyClient fetches resource metadata and cover images from the Spotify
// Web API and persists them under the output root.
type SpotifyClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	fs         afero.Fs
	logger     *log.Logger
	root       string
}

// ClientOpts configures a SpotifyClient. HTTPClient and BaseURL exist for
// tests; when HTTPClient is nil an OAuth2 client-credentials client is built
// from the credentials map.
type ClientOpts struct {
	Credentials map[string]string // client_id, client_secret
	OutputRoot  string
	FS          afero.Fs
	Logger      *log.Logger
	HTTPClient  *http.Client
	BaseURL     string
}

// NewSpotifyClient creates a metadata client with the given credentials.
func NewSpotifyClient(ctx context.Context, opts ClientOpts) (*SpotifyClient, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		clientID := opts.Credentials["client_id"]
		clientSecret := opts.Credentials["client_secret"]
		if clientID == "" || clientSecret == "" {
			return nil, fmt.Errorf("%w: client_id and client_secret required", shared.ErrMissingCredentials)
		}

		conf := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
		}
		httpClient = conf.Client(ctx)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyClient{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		baseURL:    baseURL,
		fs:         fs,
		logger:     logger,
		root:       opts.OutputRoot,
	}, nil
}

// IconsDir returns the cover image directory under an output root.
func IconsDir(root string) string {
	return filepath.Join(root, ".icons")
}

// ParseResourceURL extracts the resource kind and ID from an open.spotify.com
// URL.
func ParseResourceURL(rawURL string) (kind, id string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", shared.ErrUnknownLinkKind, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if _, ok := resourceKinds[seg]; ok && i+1 < len(segments) {
			return seg, segments[i+1], nil
		}
	}

	return "", "", fmt.Errorf("%w: %s", shared.ErrUnknownLinkKind, rawURL)
}

type resource struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// Capture fetches metadata for a link, writes ".metadata/<name>.json" and
// ".icons/<name>.jpg" under the output root, and returns the sanitized
// resource name. The image fetch is best-effort.
func (c *SpotifyClient) Capture(ctx context.Context, rawURL string) (string, error) {
	kind, id, err := ParseResourceURL(rawURL)
	if err != nil {
		return "", err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/%s/%s", c.baseURL, resourceKinds[kind], id))
	if err != nil {
		return "", err
	}

	var res resource
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	name := reconcile.SanitizeName(res.Name)
	if name == "" {
		return "", fmt.Errorf("%w: resource has no name", shared.ErrAPIRequest)
	}

	if err := c.saveMetadata(name, body); err != nil {
		return "", err
	}
	c.logger.Info("metadata saved", "kind", kind, "name", name)

	if len(res.Images) > 0 {
		if err := c.saveImage(ctx, name, res.Images[0].URL); err != nil {
			c.logger.Warn("image fetch failed", "name", name, "err", err)
		}
	}

	return name, nil
}

func (c *SpotifyClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", shared.ErrAPIRequest, resp.StatusCode, endpoint)
	}

	return io.ReadAll(resp.Body)
}

func (c *SpotifyClient) saveMetadata(name string, body []byte) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(body)
	}

	path := reconcile.MetadataPath(c.root, name)
	if err := c.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata dir: %w", err)
	}
	if err := afero.WriteFile(c.fs, path, pretty.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (c *SpotifyClient) saveImage(ctx context.Context, name, imageURL string) error {
	data, err := c.get(ctx, imageURL)
	if err != nil {
		return err
	}

	dir := IconsDir(c.root)
	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create icons dir: %w", err)
	}
	if err := afero.WriteFile(c.fs, filepath.Join(dir, name+".jpg"), data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	c.logger.Info("image saved", "name", name)
	return nil
}
