// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// downloadCommand runs the full pipeline: classify, download, reconcile.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download every link in a list and report missing tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "input",
			},
			&cli.StringArg{
				Name: "output",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "export",
				Usage: "Base path for missing-track export files (.csv and .md)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress tool output, show progress only",
			},
		},
		Action: r.Download,
	}
}

// classifyCommand groups a link list by provider without downloading.
func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "classify",
		Aliases: []string{"cls"},
		Usage:   "Group a link list by provider without downloading",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "input",
			},
		},
		Action: r.Classify,
	}
}

// reconcileCommand re-checks existing playlist folders against their metadata.
func reconcileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "reconcile",
		Aliases: []string{"check"},
		Usage:   "Re-check downloaded playlists for missing tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "output",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Check a single playlist folder instead of all of them",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Base path for missing-track export files (.csv and .md)",
			},
		},
		Action: r.Reconcile,
	}
}

// historyCommand lists past runs from the ledger.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past download runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Show missing tracks recorded for one run ID",
			},
		},
		Action: r.History,
	}
}

// setupCommand writes a starter config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a starter config.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
