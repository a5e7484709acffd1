package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/textstats"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/synapse"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/textutil"
)

// readInput returns the --file contents, else the joined arguments, else
// everything on stdin.
func readInput(c *cli.Context) (string, error) {
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	}
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func extractCommand(c *cli.Context) error {
	text, err := readInput(c)
	if err != nil {
		return err
	}
	svc := synapse.New(indexer.NewEngine(), nil)
	matches, total := svc.Extract(text, c.Int("max"))
	return printJSON(c, map[string]any{
		"patterns": matches,
		"count":    len(matches),
		"total":    total,
	})
}

func numbersCommand(c *cli.Context) error {
	text, err := readInput(c)
	if err != nil {
		return err
	}
	svc := synapse.New(indexer.NewEngine(), nil)
	numbers, total := svc.Numbers(text, c.Int("max"))
	return printJSON(c, map[string]any{
		"numbers": numbers,
		"count":   len(numbers),
		"total":   total,
	})
}

func analyzeCommand(c *cli.Context) error {
	text, err := readInput(c)
	if err != nil {
		return err
	}
	top := c.Int("top")
	report := textstats.Analyze(text)
	bigrams := report.NGrams(2)
	if top > 0 && len(bigrams) > top {
		bigrams = bigrams[:top]
	}
	return printJSON(c, map[string]any{
		"stats":    report.Stats,
		"keywords": report.TopWords(top),
		"bigrams":  bigrams,
	})
}

func hashCommand(c *cli.Context) error {
	text, err := readInput(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%016x\n", textutil.Hash(text))
	return err
}

func normalizeCommand(c *cli.Context) error {
	text, err := readInput(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, textutil.Normalize(text))
	return err
}

func similarityCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("similarity needs exactly two texts")
	}
	_, err := fmt.Fprintf(c.App.Writer, "%.4f\n", textutil.Similarity(c.Args().Get(0), c.Args().Get(1)))
	return err
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("search needs a query")
	}
	engine := indexer.NewEngine()
	result, err := pipeline.New(engine).Load(c.Context, source.NewJSONFile(c.String("file")))
	if err != nil {
		return err
	}
	svc := synapse.New(engine, nil)
	hits := svc.Query(strings.Join(c.Args().Slice(), " "), c.Int("limit"))
	return printJSON(c, map[string]any{
		"hits":      hits,
		"documents": svc.Count(),
		"skipped":   result.Skipped,
	})
}

func publishCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *postgres.Client
	if c.Bool("persist") {
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()

	result, err := publisher.New(producer, db).Publish(ctx, source.NewJSONFile(c.String("file")))
	if err != nil {
		return fmt.Errorf("publishing: %w", err)
	}
	return printJSON(c, map[string]any{
		"topic":     cfg.Kafka.Topics.DocumentIngest,
		"published": result.Loaded,
		"skipped":   result.Skipped,
	})
}
