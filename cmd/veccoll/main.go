package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/veccoll/internal/config"
	"github.com/kailas-cloud/veccoll/internal/metrics"
	"github.com/kailas-cloud/veccoll/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "veccoll",
		Usage:   "Keep vector collections consistent with their tabular sources",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Settings profile (config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   config.GetEnv(),
			},
			&cli.StringFlag{
				Name:  "settings",
				Usage: "Explicit settings YAML path (overrides --env lookup)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus text exposition to this path on exit",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Use an in-memory store instead of Valkey/Redis",
			},
		},
		Before: func(*cli.Context) error {
			metrics.RegisterEmbeddingMetrics()
			metrics.RegisterIngestMetrics()
			metrics.RegisterHTTPMetrics()
			return nil
		},
		After: func(c *cli.Context) error {
			if path := c.String("metrics-file"); path != "" {
				return metrics.WriteTextfile(path)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Create or refresh collections from the collections config, then print the report",
				Action: syncCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "Collections config file (JSON); defaults to collections.config_path",
					},
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Delete and recreate each collection before ingesting",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a collection by name, or all of them",
				ArgsUsage: "NAME",
				Action:    deleteCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Delete all collections",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Run a similarity query against a collection",
				ArgsUsage: "TEXT",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Collection name or 1-based index (defaults to the first configured collection)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of results to return",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "Collections config file used to pick the default collection",
					},
				},
			},
			{
				Name:   "report",
				Usage:  "List collections with live and expected counts",
				Action: reportCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the report as JSON",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve health, report, query and metrics over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (defaults to :http.port)",
					},
				},
			},
		},
	}
}
