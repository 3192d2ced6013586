// Command ledger_server runs the banking ledger: the HTTP API, the session registry and,
// when Kafka is enabled, the consumer of queued transaction requests.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:           "ledger_server",
		Usage:          "Banking ledger with per-account balances and append-only history",
		Version:        fmt.Sprintf("%s (commit: %s)", Version, Commit),
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file name without the .env extension, looked up in ./configs and .",
				EnvVars: []string{"LEDGER_CONFIG"},
				Value:   "ledger_server",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and, when Kafka is enabled, the transaction consumer",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Apply PostgreSQL migrations and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "migrations directory, overrides POSTGRES_MIGRATIONS_PATH",
					},
				},
				Action: migrate,
			},
		},
	}
}
