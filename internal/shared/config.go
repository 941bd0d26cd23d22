package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Tools       ToolsConfig       `toml:"tools"`
	Ledger      LedgerConfig      `toml:"ledger"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// Only the Spotify adapter needs credentials; scdl and yt-dlp run unauthenticated.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// ToolsConfig names the external download binaries and their shared timeout.
type ToolsConfig struct {
	Spotdl         string `toml:"spotdl"`
	Ytdlp          string `toml:"ytdlp"`
	Scdl           string `toml:"scdl"`
	TimeoutMinutes int    `toml:"timeout_minutes"`
}

// LedgerConfig contains run-history database settings.
type LedgerConfig struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingConfig, path, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides Spotify credentials from the CLIENTID / CLIENTSECRET
// environment variables when they are set. The variables usually arrive via a
// .env file loaded at startup.
func (c *Config) ApplyEnv() {
	if id := os.Getenv("CLIENTID"); id != "" {
		c.Credentials.Spotify.ClientID = id
	}
	if secret := os.Getenv("CLIENTSECRET"); secret != "" {
		c.Credentials.Spotify.ClientSecret = secret
	}
}

// HasSpotifyCredentials reports whether both Spotify credentials are present.
func (c *Config) HasSpotifyCredentials() bool {
	return c.Credentials.Spotify.ClientID != "" && c.Credentials.Spotify.ClientSecret != ""
}
