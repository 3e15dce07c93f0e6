package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	s := &srv{ctx: context.Background()}

	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "bountyhub"
	app.Usage = "Bounty board backend"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to the toml config file",
			EnvVars: []string{"BOUNTYHUB_CONFIG"},
		},
	}
	app.Before = s.before
	app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Used for start service api, it main service included all apis.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start cron jobs",
			Category:    "Worker",
			Description: `Used to close expired bounties and reconcile ledger accounts periodically.`,
		},
		{
			Action:      s.startLeaderboardConsumer,
			Name:        "leaderboard-consumer",
			Usage:       "Start leaderboard consumer",
			Category:    "Worker",
			Description: `Used to consume completed bounties from the message queue and update the leaderboard.`,
		},
		{
			Action:   s.startMigrate,
			Name:     "migrate",
			Usage:    "Migrate database",
			Category: "Database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Value: "auto",
					Usage: "migration version to apply, auto creates every table",
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
