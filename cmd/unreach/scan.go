package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/unreach/internal/cache"
	"github.com/panbanda/unreach/internal/loader"
	"github.com/panbanda/unreach/internal/output"
	"github.com/panbanda/unreach/internal/progress"
	"github.com/panbanda/unreach/internal/vcs"
	"github.com/panbanda/unreach/pkg/baseline"
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/scan"
	"github.com/panbanda/unreach/pkg/source"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Report unreachable declarations from index units",
		ArgsUsage: "[unit-file|dir...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Project root that baseline paths are relative to (default: repository root)",
			},
			&cli.StringFlag{
				Name:  "baseline",
				Usage: "Only report findings missing from this baseline file",
			},
			&cli.StringFlag{
				Name:  "write-baseline",
				Usage: "Write all findings to this baseline file instead of reporting them",
			},
			&cli.StringFlag{
				Name:  "source-rev",
				Usage: "Read source lines for baseline matching from this git revision",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Index loading workers (default: 2x CPUs)",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit with status 2 when new findings are reported",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the result cache",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("workers") {
		cfg.Loader.Workers = c.Int("workers")
	}

	root, err := projectRoot(c)
	if err != nil {
		return err
	}

	writeTo := c.String("write-baseline")
	baselinePath := c.String("baseline")
	if baselinePath == "" {
		baselinePath = cfg.Baseline.Path
	}

	msg := output.NewWriterFormatter(output.FormatText, c.App.ErrWriter, colorEnabled(c, cfg))
	files, err := loader.Discover(getPaths(c),
		cacheDir(cfg, root), c.String("output"), baselinePath, writeTo)
	if err != nil {
		return fmt.Errorf("discovering index units: %w", err)
	}
	if len(files) == 0 {
		msg.Warning("No index units found")
		return nil
	}
	logger.Debug("discovered index units", "count", len(files))

	var tracker *progress.Tracker
	if !c.Bool("quiet") {
		tracker = progress.NewTracker("Loading index units...", len(files), progress.WithWriter(c.App.ErrWriter))
	}

	resultCache, err := openCache(cfg, root, !c.Bool("no-cache"))
	if err != nil {
		return err
	}

	lines, err := lineReader(c.String("source-rev"), root)
	if err != nil {
		return err
	}

	opts := []scan.Option{
		scan.WithConfig(cfg),
		scan.WithLogger(logger),
		scan.WithRoot(root),
		scan.WithLineReader(lines),
		scan.WithCache(resultCache),
		scan.WithLoader(loader.New(
			loader.WithWorkers(cfg.Loader.Workers),
			loader.WithLogger(logger),
			loader.WithProgress(tracker),
		)),
		scan.WithPassHook(func(name string, elapsed time.Duration) {
			logger.Debug("pass finished", "pass", name, "elapsed", elapsed)
		}),
	}

	if baselinePath != "" && writeTo == "" {
		opts = append(opts, scan.WithBaselinePath(baselinePath))
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := scan.New(opts...).ScanFiles(ctx, files)
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	if res.Cached {
		tracker.FinishSkipped("cached")
	} else {
		tracker.FinishSuccess()
	}

	if writeTo != "" {
		return writeBaseline(msg, writeTo, res, lines, root)
	}

	format := cfg.Output.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	formatter, err := output.NewFormatter(output.ParseFormat(format), c.String("output"), colorEnabled(c, cfg))
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(output.NewFindingsReport(res, root)); err != nil {
		return err
	}
	if c.Bool("strict") && len(res.New) > 0 {
		return errNewFindings
	}
	return nil
}

func writeBaseline(msg *output.Formatter, path string, res *scan.Result, lines baseline.LineReader, root string) error {
	b := baseline.Build(res.Findings, lines, root)
	if err := baseline.Save(path, b); err != nil {
		return fmt.Errorf("writing baseline: %w", err)
	}
	msg.Success("Baseline with %d finding(s) written to %s", b.Len(), path)
	return nil
}

func colorEnabled(c *cli.Context, cfg *config.Config) bool {
	return cfg.Output.Color && !c.Bool("no-color")
}

// projectRoot resolves --root, or the repository containing the working
// directory.
func projectRoot(c *cli.Context) (string, error) {
	if r := c.String("root"); r != "" {
		return filepath.Abs(r)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return vcs.RepoRoot(wd), nil
}

// cacheDir resolves the configured cache directory against root.
func cacheDir(cfg *config.Config, root string) string {
	if filepath.IsAbs(cfg.Cache.Dir) {
		return cfg.Cache.Dir
	}
	return filepath.Join(root, cfg.Cache.Dir)
}

func openCache(cfg *config.Config, root string, allowed bool) (*cache.Cache, error) {
	c, err := cache.New(cacheDir(cfg, root), cfg.Cache.TTL, cfg.Cache.Enabled && allowed)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return c, nil
}

// lineReader reads from the working tree, or from rev when it is set.
func lineReader(rev, root string) (*source.LineReader, error) {
	if rev == "" {
		return source.NewLineReader(source.NewFilesystem(root)), nil
	}
	repo, err := vcs.Open(root)
	if err != nil {
		return nil, err
	}
	tree, err := repo.Tree(rev)
	if err != nil {
		return nil, err
	}
	return source.NewLineReader(source.NewTree(tree, repo.Root())), nil
}
