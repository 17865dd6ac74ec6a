// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/invowk/rtenv/internal/provision"
)

const (
	formatPretty   = "pretty"
	formatMarkdown = "markdown"
)

func newStatusCommand(app *App) *cobra.Command {
	var (
		format string
		style  string
	)

	cmd := &cobra.Command{
		Use:   "status [manifest...]",
		Short: "Show which requirements are satisfied without touching the network",
		Long: `Show the offline provisioning plan for each manifest.

Nothing is downloaded or written. A requirement is "cached" when a verified
copy exists under the root, "skipped" when its probe already resolves,
"pending" when a provision run would fetch it and "failed" when its
declaration is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatPretty && format != formatMarkdown {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatPretty, formatMarkdown)
			}

			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := app.newEngine(cfg)
			if err != nil {
				return err
			}

			var md strings.Builder
			for _, path := range manifestPaths(args) {
				m, err := app.loadManifest(path)
				if err != nil {
					return err
				}
				report, err := engine.Plan(m)
				if err != nil {
					return err
				}
				writeStatusMarkdown(&md, report)
			}

			if format == formatMarkdown {
				_, err := fmt.Fprint(app.stdout, md.String())
				return err
			}

			out, err := renderMarkdown(md.String(), style)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(app.stdout, out)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", formatPretty, "output format: pretty or markdown")
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style for pretty output (auto, dark, light, notty)")
	return cmd
}

// writeStatusMarkdown appends one section with a status table per report.
func writeStatusMarkdown(sb *strings.Builder, r *provision.Report) {
	fmt.Fprintf(sb, "## %s\n\n", r.Component)
	if len(r.Outcomes) == 0 {
		sb.WriteString("No requirements declared.\n\n")
		return
	}

	sb.WriteString("| Kind | Requirement | Status | Detail |\n")
	sb.WriteString("|------|-------------|--------|--------|\n")
	for _, o := range r.Outcomes {
		detail := o.Target
		if o.Err != nil {
			detail = o.Err.Error()
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n", o.Kind, escapeCell(o.Key), o.Status, escapeCell(detail))
	}

	fmt.Fprintf(sb, "\n%d satisfied, %d pending, %d failed\n\n",
		r.Count(provision.StatusCached)+r.Count(provision.StatusSkipped),
		r.Count(provision.StatusPending),
		r.Count(provision.StatusFailed))
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

func renderMarkdown(md, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(120)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering status: %w", err)
	}
	return out, nil
}
