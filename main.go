package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/acinfinity-integration/cmd"
)

func main() {
	databaseFlag := &cli.StringFlag{
		Name:     "database-url",
		EnvVars:  []string{"DATABASE_URL"},
		Required: true,
	}

	app := &cli.App{
		Name:   "acinfinity-integration",
		Usage:  "bridge AC Infinity controllers into Home Assistant over MQTT",
		Action: cmd.RunCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "poll the AC Infinity API and publish to MQTT",
				Action: cmd.RunCommand,
			},
			{
				Name:   "migrate-db",
				Usage:  "apply database migrations and exit",
				Action: cmd.MigrateCommand,
				Flags: []cli.Flag{
					databaseFlag,
					&cli.StringFlag{
						Name:    "migrations-folder",
						EnvVars: []string{"MIGRATIONS_FOLDER"},
						Value:   "migrations",
					},
				},
			},
			{
				Name:   "import-entry",
				Usage:  "store a config entry from a YAML file",
				Action: cmd.ImportEntryCommand,
				Flags: []cli.Flag{
					databaseFlag,
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Required: true,
					},
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
