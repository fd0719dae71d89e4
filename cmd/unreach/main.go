package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errNewFindings makes --strict runs fail without printing an error.
var errNewFindings = errors.New("new findings reported")

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// newLogger writes structured logs to stderr, at debug level when verbose.
func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "unreach",
		Usage:   "Find unused declarations in indexed Swift projects",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `unreach loads index units produced by the indexer, builds a declaration
graph, marks everything reachable from the retained roots and reports the
rest: unused declarations, assign-only properties, redundant protocols and
redundant accessibility.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"UNREACH_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Commands: []*cli.Command{
			scanCmd(),
			configCmd(),
			cacheCmd(),
		},
	}
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		if errors.Is(err, errNewFindings) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
