package main

import (
	"fmt"

	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/unreach/internal/output"
	"github.com/panbanda/unreach/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates an unreach configuration file for syntax errors and invalid values.

Examples:
  unreach config validate                    # Validates default config locations
  unreach -c unreach.toml config validate    # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  unreach config show                    # Show effective config
  unreach -c unreach.toml config show    # Show config from specific file`,
				Action: runConfigShow,
			},
		},
	}
}

func loadOptions(c *cli.Context) []config.LoadOption {
	if path := c.String("config"); path != "" {
		return []config.LoadOption{config.WithPath(path)}
	}
	return nil
}

// loadConfig loads the configuration selected by --config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	res, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func runConfigValidate(c *cli.Context) error {
	res, err := config.LoadConfig(loadOptions(c)...)
	msg := output.NewWriterFormatter(output.FormatText, c.App.Writer, true)
	if err != nil {
		msg.Error("Configuration validation failed:")
		fmt.Fprintf(c.App.Writer, "  - %s\n", err)
		return err
	}

	if res.Source != "" {
		msg.Success("Configuration valid: %s", res.Source)
	} else {
		msg.Warning("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	res, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if res.Source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", res.Source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(*res.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(w, string(content))
	return nil
}
