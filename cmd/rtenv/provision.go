// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/rtenv/internal/issue"
	"github.com/invowk/rtenv/internal/provision"
)

func newProvisionCommand(app *App) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "provision [manifest...]",
		Short: "Provision the requirements declared in manifests",
		Long: `Provision the assets and libraries declared in each manifest.

Requirements that fail are reported and skipped; the others are still
provisioned. With --strict the command exits with status 1 when any
requirement failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := app.newEngine(cfg)
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range manifestPaths(args) {
				m, err := app.loadManifest(path)
				if err != nil {
					return err
				}
				report, err := engine.Inject(cmd.Context(), m)
				if err != nil {
					return err
				}
				printReport(app.stdout, report, cfg.Verbose)
				failed += len(report.Failed())
			}

			if strict && failed > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d requirement(s) failed", failed)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 1 if any requirement failed")
	return cmd
}

// printReport writes one line per outcome, with warnings and errors indented
// below it.
func printReport(w io.Writer, r *provision.Report, verbose bool) {
	fmt.Fprintln(w, TitleStyle.Render(r.Component))
	for _, o := range r.Outcomes {
		mark, style := "✓", SuccessStyle
		switch o.Status {
		case provision.StatusFailed:
			mark, style = "✗", ErrorStyle
		case provision.StatusPending:
			mark, style = "•", WarningStyle
		case provision.StatusSkipped, provision.StatusCached:
			style = SubtitleStyle
		}

		fmt.Fprintf(w, "  %s %s%s %s\n",
			style.Render(mark),
			kindStyle.Render(string(o.Kind)),
			KeyStyle.Render(o.Key),
			style.Render(string(o.Status)))

		for _, warn := range o.Warnings {
			fmt.Fprintf(w, "      %s %s\n", WarningStyle.Render("warning:"), warn)
		}
		if o.Err != nil {
			fmt.Fprintf(w, "      %s %s\n", ErrorStyle.Render("error:"), o.Err)
			if verbose {
				printGuide(w, o.Err)
			}
		}
	}
}

// printGuide renders the catalogued remediation for a requirement failure.
func printGuide(w io.Writer, err error) {
	id := guideFor(err)
	if id == 0 {
		return
	}
	rendered, rerr := issue.Get(id).Render("notty")
	if rerr != nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
		fmt.Fprintf(w, "      %s\n", line)
	}
}

// guideFor maps requirement failures onto catalogued issues.
func guideFor(err error) issue.Id {
	switch {
	case errors.Is(err, provision.ErrIntegrity):
		return issue.IntegrityMismatchId
	case errors.Is(err, provision.ErrProbeUnresolved):
		return issue.ProbeUnresolvedId
	case errors.Is(err, provision.ErrActivation):
		return issue.ActivationFailedId
	case errors.Is(err, provision.ErrFetch):
		return issue.FetchFailedId
	default:
		return 0
	}
}
