package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/unreach/internal/cache"
	"github.com/panbanda/unreach/internal/output"
)

func cacheCmd() *cli.Command {
	rootFlag := &cli.StringFlag{
		Name:  "root",
		Usage: "Project root the cache directory is relative to (default: repository root)",
	}
	return &cli.Command{
		Name:  "cache",
		Usage: "Result cache management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show the number, size and age of cached scans",
				Description: `Reports the cache directory and what it holds.

Examples:
  unreach cache stats                 # Cache of the current repository
  unreach cache stats --root ./lib    # Cache of another project`,
				Flags:  []cli.Flag{rootFlag},
				Action: runCacheStats,
			},
			{
				Name:  "clear",
				Usage: "Remove every cached scan",
				Description: `Deletes the cache directory. The next scan runs the full pipeline.

Examples:
  unreach cache clear`,
				Flags:  []cli.Flag{rootFlag},
				Action: runCacheClear,
			},
		},
	}
}

// openCacheDir opens the configured cache directory even when caching is
// disabled for scans.
func openCacheDir(c *cli.Context) (*cache.Cache, string, *output.Formatter, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, "", nil, err
	}
	root, err := projectRoot(c)
	if err != nil {
		return nil, "", nil, err
	}
	dir := cacheDir(cfg, root)
	rc, err := cache.New(dir, cfg.Cache.TTL, true)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening cache: %w", err)
	}
	return rc, dir, output.NewWriterFormatter(output.FormatText, c.App.Writer, cfg.Output.Color), nil
}

func runCacheStats(c *cli.Context) error {
	rc, dir, msg, err := openCacheDir(c)
	if err != nil {
		return err
	}
	stats, err := rc.GetStats()
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}

	msg.Info("Cache: %s", dir)
	msg.Info("Entries: %d (%d bytes)", stats.Entries, stats.TotalSize)
	if stats.Entries > 0 {
		msg.Info("Newest: %s ago, oldest: %s ago",
			stats.NewestAge.Round(time.Second), stats.OldestAge.Round(time.Second))
	}
	return nil
}

func runCacheClear(c *cli.Context) error {
	rc, dir, msg, err := openCacheDir(c)
	if err != nil {
		return err
	}
	if err := rc.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	msg.Success("Cache cleared: %s", dir)
	return nil
}
