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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/crawlsearch"
	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/core"
	"github.com/urfave/cli/v2"
)

// openEngine is replaced in tests to inject an offline embedder.
var openEngine = func(ctx context.Context, cfg *crawlsearch.Config) (*crawlsearch.Engine, error) {
	return crawlsearch.Open(ctx, cfg)
}

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "crawlsearch",
		Usage: "Hybrid lexical and semantic search over crawled web pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"CRAWLSEARCH_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
				EnvVars: []string{"CRAWLSEARCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides the config file)",
				EnvVars: []string{"CRAWLSEARCH_DB"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"CRAWLSEARCH_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"CRAWLSEARCH_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "embedding-api-key",
				Usage:   "Bearer token for the embedding service",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "qdrant-url",
				Usage:   "Store embeddings in the Qdrant server at this URL",
				EnvVars: []string{"QDRANT_URL"},
			},
			&cli.StringFlag{
				Name:    "qdrant-api-key",
				Usage:   "API key for the Qdrant server",
				EnvVars: []string{"QDRANT_API_KEY"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest crawled pages from a JSON Lines file or stdin",
				ArgsUsage: "[file]",
				Action:    ingestCommand,
			},
			{
				Name:      "search",
				Usage:     "Search the index and print results as JSON",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "method",
						Aliases: []string{"m"},
						Usage:   "Retrieval method (lexical, semantic)",
						Value:   string(core.MethodLexical),
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Rechunk and reembed every stored document",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of documents embedded concurrently (0 uses the configured pool size)",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print corpus statistics",
				Action: statsCommand,
			},
		},
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (*crawlsearch.Config, error) {
	cfg := crawlsearch.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = crawlsearch.LoadConfig(path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if c.IsSet("db") {
		cfg.Path = c.String("db")
		cfg.InMemory = false
	}
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("embedding-api-key") {
		cfg.AI.EmbeddingAPIKey = c.String("embedding-api-key")
	}
	if c.IsSet("qdrant-url") {
		ai.WithQdrant(c.String("qdrant-url"), c.String("qdrant-api-key"))(cfg.AI)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func withEngine(c *cli.Context, cfg *crawlsearch.Config, fn func(ctx context.Context, engine *crawlsearch.Engine) error) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	return fn(ctx, engine)
}

func ingestCommand(c *cli.Context) error {
	var input io.Reader = c.App.Reader
	if c.Args().Len() > 0 && c.Args().First() != "-" {
		f, err := os.Open(c.Args().First())
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return withEngine(c, cfg, func(ctx context.Context, engine *crawlsearch.Engine) error {
		pipeline, err := engine.NewIngestionPipeline()
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}
		defer pipeline.Release()

		report, err := pipeline.IngestReader(ctx, input)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		embedErr := pipeline.Wait()

		fmt.Fprintf(c.App.Writer, "run %s: %d records, %d inserted, %d updated, %d unchanged, %d skipped, %d failed\n",
			report.RunID, report.Total(), report.Inserted, report.Updated, report.Unchanged, report.Skipped, report.Failed)
		for _, err := range report.Errors {
			fmt.Fprintf(c.App.ErrWriter, "  %v\n", err)
		}

		if embedErr != nil {
			return fmt.Errorf("embedding failed: %w", embedErr)
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d records failed", report.Failed)
		}
		return nil
	})
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a query is required")
	}
	method, err := core.ParseMethod(c.String("method"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return withEngine(c, cfg, func(ctx context.Context, engine *crawlsearch.Engine) error {
		searcher, err := engine.NewSearcher()
		if err != nil {
			return fmt.Errorf("failed to create searcher: %w", err)
		}

		results, err := searcher.Search(ctx, query, c.Int("top-k"), method)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	})
}

func reembedCommand(c *cli.Context) error {
	if c.Int("workers") < 0 {
		return errors.New("workers must not be negative")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if n := c.Int("workers"); n > 0 {
		cfg.Ingestion.PoolSize = n
	}

	return withEngine(c, cfg, func(ctx context.Context, engine *crawlsearch.Engine) error {
		reembedder, err := engine.NewReembedder(c.App.ErrWriter)
		if err != nil {
			return fmt.Errorf("failed to create reembedder: %w", err)
		}

		count, err := reembedder.Run(ctx)
		if err != nil {
			return fmt.Errorf("reembedding failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "reembedded %d documents\n", count)
		return nil
	})
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return withEngine(c, cfg, func(ctx context.Context, engine *crawlsearch.Engine) error {
		stats, err := engine.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "documents: %d\ntokens:    %d\nchunks:    %d\n",
			stats.Documents, stats.Tokens, stats.Chunks)
		return nil
	})
}

func setupLogger(c *cli.Context) error {
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
