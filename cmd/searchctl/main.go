package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/synapse"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "searchctl: %v\n", err)
		os.Exit(1)
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read text from `PATH` instead of the arguments or stdin",
		},
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:    "searchctl",
		Usage:   "Local text tools and ingest publishing for the search core",
		Version: synapse.Version,
		Reader:  in,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Print pattern matches (email, amount, date, person) found in text",
				ArgsUsage: "[text...]",
				Action:    extractCommand,
				Flags: append(inputFlags(),
					&cli.IntFlag{
						Name:  "max",
						Usage: "Maximum number of matches to print",
						Value: 100,
					},
				),
			},
			{
				Name:      "numbers",
				Usage:     "Print numeric quantities found in text",
				ArgsUsage: "[text...]",
				Action:    numbersCommand,
				Flags: append(inputFlags(),
					&cli.IntFlag{
						Name:  "max",
						Usage: "Maximum number of quantities to print",
						Value: 100,
					},
				),
			},
			{
				Name:      "analyze",
				Usage:     "Print text statistics, keywords and bigrams",
				ArgsUsage: "[text...]",
				Action:    analyzeCommand,
				Flags: append(inputFlags(),
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of keywords and bigrams to print",
						Value: 10,
					},
				),
			},
			{
				Name:      "hash",
				Usage:     "Print the 64-bit FNV-1a hash of text",
				ArgsUsage: "[text...]",
				Action:    hashCommand,
				Flags:     inputFlags(),
			},
			{
				Name:      "normalize",
				Usage:     "Print text lowercased with punctuation collapsed to single spaces",
				ArgsUsage: "[text...]",
				Action:    normalizeCommand,
				Flags:     inputFlags(),
			},
			{
				Name:      "similarity",
				Usage:     "Print the Jaccard similarity of the term sets of two texts",
				ArgsUsage: "<a> <b>",
				Action:    similarityCommand,
			},
			{
				Name:      "search",
				Usage:     "Index a JSON record file in memory and run one query against it",
				ArgsUsage: "<query...>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON array of records to index",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits",
						Value: 10,
					},
				},
			},
			{
				Name:      "loadtest",
				Usage:     "Drive concurrent POST /search requests against a running service and report latency",
				ArgsUsage: "[query...]",
				Action:    loadtestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Base URL of the search service",
						Value: "http://localhost:9003",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of concurrent workers",
						Value: 10,
					},
					&cli.DurationFlag{
						Name:  "duration",
						Usage: "How long to keep sending requests",
						Value: 30 * time.Second,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Result limit sent with each query",
						Value: 10,
					},
				},
			},
			{
				Name:   "publish",
				Usage:  "Publish a JSON record file to the document-ingest topic",
				Action: publishCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON array of records to publish",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the service config file for Kafka and Postgres settings",
						Value:   "configs/development.yaml",
					},
					&cli.BoolFlag{
						Name:  "persist",
						Usage: "Also upsert the records into the Postgres documents table",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	level := strings.ToLower(c.String("log-level"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}
	slog.SetDefault(logger.New(c.App.ErrWriter, level, "text"))
	return nil
}
