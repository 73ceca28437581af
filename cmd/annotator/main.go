package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "annotator",
		Usage: "extract keywords, summaries, tags and entities from student project files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"ANNOTATOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "annotate",
				Usage:     "annotate local files as one project and print the metadata as JSON",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "save-sqlite", Usage: "also save the result into this SQLite database"},
					&cli.StringFlag{Name: "title", Usage: "project title used with --save-sqlite"},
				},
				Action: annotateAction,
			},
			{
				Name:   "worker",
				Usage:  "consume annotation requests from NATS JetStream",
				Action: workerAction,
			},
			{
				Name:      "submit",
				Usage:     "upload files to the object store and enqueue an annotation request",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "owner of the uploaded files", Required: true},
					&cli.Int64Flag{Name: "project", Usage: "project id in the metadata store", Required: true},
				},
				Action: submitAction,
			},
			{
				Name:      "build-tags",
				Usage:     "encode tag names (one per line) into a tag catalog file",
				ArgsUsage: "NAMES_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "catalog path (.yaml or .json); defaults to tags.catalog_path"},
					&cli.BoolFlag{Name: "seed-store", Usage: "insert the tag names into the metadata store"},
				},
				Action: buildTagsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
