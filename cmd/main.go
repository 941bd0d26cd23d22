package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	// A .env file beside the binary can carry CLIENTID / CLIENTSECRET.
	godotenv.Load()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring unreadable config.toml", "error", err)
		}
	}
	config.ApplyEnv()

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "spotmp3",
		Usage:    "Download Spotify, YouTube & SoundCloud playlists and track what went missing",
		Version:  "1.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrInputNotFound), errors.Is(err, shared.ErrNoLinks):
			logger.Error(err.Error())
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
