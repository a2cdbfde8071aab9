// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/conceptrag"
	"github.com/poiesic/conceptrag/config"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/ingestion"
	"github.com/poiesic/conceptrag/metrics"
	"github.com/poiesic/conceptrag/reembed"
)

const metricsKey = "metrics"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "conceptrag",
		Usage: "Concept-indexed retrieval and answering over a document store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides storage.path)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address while the command runs",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return setupMetrics(c)
		},
		After: stopMetrics,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Chunk, index and embed documents",
				ArgsUsage: "FILE... (use - for stdin)",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Document id; only valid with a single source (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category hint applied to every ingested document",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the indexed documents",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "context",
						Usage: "Print the reconstructed context segments",
					},
					&cli.BoolFlag{
						Name:  "decide-only",
						Usage: "Print the action decision without generating an answer",
					},
				},
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild the concept index from stored documents",
				Action: rebuildCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show index and storage counts",
				Action: statsCommand,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openEngine(c *cli.Context) (*conceptrag.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	opts := []conceptrag.EngineOption{conceptrag.WithConfig(cfg)}
	if m, ok := c.App.Metadata[metricsKey].(*metrics.Metrics); ok {
		opts = append(opts, conceptrag.WithMetrics(m))
	}
	engine, err := conceptrag.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

// source is one document to ingest.
type source struct {
	id   string
	text string
}

// readSources resolves ingest arguments to documents. "-" reads stdin.
func readSources(args []string, id string, stdin io.Reader) ([]source, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one file is required")
	}
	if id != "" && len(args) > 1 {
		return nil, errors.New("--id can only be used with a single file")
	}

	sources := make([]source, 0, len(args))
	for _, arg := range args {
		var (
			data []byte
			err  error
		)
		if arg == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(arg)
		}
		if err != nil {
			return nil, err
		}
		docID := id
		if docID == "" {
			docID = documentID(arg)
		}
		if docID == "" {
			return nil, errors.New("--id is required when reading stdin")
		}
		sources = append(sources, source{id: docID, text: string(data)})
	}
	return sources, nil
}

// documentID derives a document id from a file path: its base name without extension.
func documentID(path string) string {
	if path == "-" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func ingestCommand(c *cli.Context) error {
	category, err := core.ParseCategory(c.String("category"))
	if err != nil {
		return err
	}
	sources, err := readSources(c.Args().Slice(), c.String("id"), os.Stdin)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	opts := &ingestion.IngestOptions{Category: category}
	for _, src := range sources {
		doc, err := engine.IngestDocument(ctx, src.id, src.text, opts)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", src.id, err)
		}
		fmt.Fprintf(c.App.Writer, "%s: %d chunks\n", doc.Id, len(doc.Chunks))
	}
	engine.Wait()
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	w := c.App.Writer
	if c.Bool("decide-only") {
		q, out := engine.Decide(ctx, question)
		printDecision(w, out.Decision)
		fmt.Fprintf(w, "Query type: %s\n", q.Type)
		fmt.Fprintf(w, "Candidates: %d\n", len(out.Candidates))
		return nil
	}

	answer, err := engine.Answer(ctx, question)
	if err != nil {
		return err
	}
	printDecision(w, answer.Decision)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(w, "Sources: %s\n", strings.Join(answer.Sources, ", "))
	}
	if c.Bool("context") {
		for i, segment := range answer.Context {
			fmt.Fprintf(w, "--- context %d ---\n%s\n", i+1, segment)
		}
	}
	if answer.Text != "" {
		fmt.Fprintf(w, "\n%s\n", answer.Text)
	}
	return nil
}

func printDecision(w io.Writer, d core.ActionDecision) {
	fmt.Fprintf(w, "Action: %s (rule %s, confidence %.2f)\n", d.Action, d.Rule, d.Confidence)
	fmt.Fprintf(w, "Rationale: %s\n", d.Rationale)
	if d.Location != "" {
		fmt.Fprintf(w, "Location: %s\n", d.Location)
	}
}

func rebuildCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	rebuilder, err := engine.NewRebuilder(os.Stderr)
	if err != nil {
		return err
	}
	result, err := rebuilder.Run(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Rebuilt index from %d documents (%d chunks) in %s\n", result.Documents, result.Chunks, result.Elapsed.Round(time.Millisecond))
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	reembedder, err := engine.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return err
	}
	if _, err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "Stored documents: %d\n", stats.StoredDocuments)
	fmt.Fprintf(w, "Indexed documents: %d\n", stats.Documents)
	fmt.Fprintf(w, "Indexed chunks: %d\n", stats.Chunks)
	fmt.Fprintf(w, "Concept labels: %d\n", stats.Labels)
	fmt.Fprintf(w, "Postings: %d\n", stats.Postings)
	fmt.Fprintf(w, "Vectors: %d\n", stats.Vectors)
	fmt.Fprintf(w, "Disk usage: %d bytes\n", stats.DiskBytes)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// setupMetrics registers the engine metrics and, with --metrics-addr, serves them.
func setupMetrics(c *cli.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[metricsKey] = m

	addr := c.String("metrics-addr")
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	c.App.Metadata["server"] = server
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return nil
}

func stopMetrics(c *cli.Context) error {
	server, ok := c.App.Metadata["server"].(*http.Server)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
