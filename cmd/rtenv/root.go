// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the rtenv command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rtenv",
		Short: "Provision the runtime requirements of a component",
		Long: TitleStyle.Render("rtenv") + SubtitleStyle.Render(" - runtime requirement provisioning") + `

rtenv reads the assets and libraries a component declares in a manifest,
downloads whatever is missing into a local cache root, verifies every byte
against its digest and activates libraries for the running host.

` + SubtitleStyle.Render("Examples:") + `
  rtenv provision               Provision ./rtenv.cue
  rtenv provision --strict a.cue b.yaml
  rtenv status                  Show what a run would fetch
  rtenv hash font.ttf           Print the digest to put in a manifest
  rtenv config show             Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/rtenv/config.cue)")
	rootCmd.PersistentFlags().StringVar(&app.flags.root, "root", "", "provisioning root (overrides the root config key)")

	rootCmd.AddCommand(
		newProvisionCommand(app),
		newStatusCommand(app),
		newHashCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main.
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
