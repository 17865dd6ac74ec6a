// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/rtenv/internal/config"
	"github.com/invowk/rtenv/internal/issue"
)

// newConfigCommand creates the `rtenv config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage rtenv configuration",
		Long: `Manage rtenv configuration.

Configuration is stored in:
  - Linux: ~/.config/rtenv/config.cue
  - macOS: ~/Library/Application Support/rtenv/config.cue
  - Windows: %APPDATA%\rtenv\config.cue

Every key can be overridden with an RTENV_ environment variable, for
example RTENV_HTTP_TIMEOUT=2m or RTENV_ACTIVATION=index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				if rendered, rerr := issue.Get(issue.ConfigLoadFailedId).Render("notty"); rerr == nil {
					fmt.Fprint(app.stderr, rendered)
				}
				return err
			}
			showConfig(app, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("create configuration").
					WithIssue(issue.PermissionDeniedId).
					Wrap(err).
					BuildError()
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Configuration file:"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, cfg *config.Config) {
	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	source := SubtitleStyle.Render("(defaults and environment)")
	if app.flags.configPath != "" {
		source = app.flags.configPath
	} else if path, err := config.FilePath(); err == nil && fileExists(path) {
		source = path
	}
	fmt.Fprintf(w, "%s: %s\n\n", KeyStyle.Render("config file"), source)

	row := func(key, value string) {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(key), SuccessStyle.Render(value))
	}
	row("root", cfg.Root)
	row("repositories", listOrNone(cfg.Repositories))
	row("http.timeout", cfg.HTTP.Timeout.String())
	row("http.user_agent", cfg.HTTP.UserAgent)
	row("activation", cfg.Activation.String())
	row("notice", fmt.Sprintf("%q", cfg.Notice))
	row("provides", listOrNone(cfg.Provides))
	row("verbose", fmt.Sprintf("%v", cfg.Verbose))
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
