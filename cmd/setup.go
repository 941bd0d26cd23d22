package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

// Setup writes a starter config file and reports what still needs filling in.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("Created %s\n", configPath)
	r.writePlain("Fill in [credentials.spotify] to enable Spotify downloads,\n")
	r.writePlain("or set CLIENTID and CLIENTSECRET in a .env file.\n")
	return nil
}
