package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/MereWhiplash/semfind/internal/config"
	"github.com/MereWhiplash/semfind/internal/indexer"
	"github.com/MereWhiplash/semfind/internal/logging"
	"github.com/MereWhiplash/semfind/internal/resources"
	"github.com/MereWhiplash/semfind/internal/service"
	"github.com/MereWhiplash/semfind/internal/types"
)

// version is set by goreleaser via ldflags
var version = "dev"

// openService opens the configured resources. Tests replace it.
var openService = func(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	res, err := resources.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Service(), nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "semfind",
		Usage:   "Index text files and find them by meaning",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"SEMFIND_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to SQLite index (sqlite driver)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index files and directories",
				ArgsUsage: "PATH...",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of files indexed concurrently (default from config)",
					},
					&cli.BoolFlag{
						Name:  "print-embedding",
						Usage: "Print the stored embedding of each indexed file",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find the files most similar to a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of results; 1 prints only the best path",
						Value:   1,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List indexed files, newest first",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of files",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of files to skip",
					},
				},
			},
		},
	}
}

// loadConfig applies global flags over the layered config and sets up logging
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.SQLitePath = db
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withService(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, svc *service.Service) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := openService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer svc.Close()

	return fn(ctx, cfg, svc)
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one path is required")
	}

	return withService(c, func(ctx context.Context, cfg *config.Config, svc *service.Service) error {
		out := c.App.Writer

		// Single files get the full embedding back, as index_file does
		if c.Bool("print-embedding") {
			var failed int
			for _, f := range indexer.Expand(c.Args().Slice()) {
				if f.Err != nil {
					failed++
					fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", f.Path, f.Err)
					continue
				}
				res, err := svc.IndexFile(ctx, f.Path)
				if err != nil {
					failed++
					fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", f.Path, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", res.Record.Path, res.Embedding)
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d file(s) failed", failed), 1)
			}
			return nil
		}

		workers := c.Int("workers")
		if workers <= 0 {
			workers = cfg.Indexer.Workers
		}

		ix, err := indexer.New(svc, indexer.WithWorkers(workers))
		if err != nil {
			return err
		}
		defer ix.Release()

		results, sum := ix.Index(ctx, c.Args().Slice())
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", r.Path, r.Err)
				continue
			}
			fmt.Fprintf(out, "indexed %s (id %d)\n", r.Record.Path, r.Record.ID)
		}
		fmt.Fprintf(out, "%d indexed, %d failed in %s\n", sum.Indexed, sum.Failed, sum.Duration.Round(time.Millisecond))

		if sum.Failed > 0 {
			return cli.Exit(fmt.Sprintf("%d file(s) failed", sum.Failed), 1)
		}
		return nil
	})
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	return withService(c, func(ctx context.Context, cfg *config.Config, svc *service.Service) error {
		out := c.App.Writer

		if c.Int("limit") <= 1 {
			path, err := svc.Search(ctx, query)
			if errors.Is(err, types.ErrNotFound) {
				return cli.Exit("no files have been indexed yet", 1)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, path)
			return nil
		}

		matches, err := svc.SearchN(ctx, query, c.Int("limit"))
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return cli.Exit("no files have been indexed yet", 1)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SIMILARITY\tPATH")
		for _, m := range matches {
			fmt.Fprintf(tw, "%.4f\t%s\n", m.Similarity, m.Path)
		}
		return tw.Flush()
	})
}

func listCommand(c *cli.Context) error {
	return withService(c, func(ctx context.Context, cfg *config.Config, svc *service.Service) error {
		files, err := svc.List(ctx, c.Int("limit"), c.Int("offset"))
		if err != nil {
			return err
		}
		total, err := svc.Count(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tINDEXED\tPATH")
		for _, f := range files {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", f.ID, f.CreatedAt.Local().Format("2006-01-02 15:04:05"), f.Path)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%d of %d files\n", len(files), total)
		return nil
	})
}
