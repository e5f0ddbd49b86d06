package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/heathj/statetoggle/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit [PATTERN...]",
	Short: "Check trigger markup in HTML files",
	Long: `Parse every HTML file matching the glob patterns (default: **/*.html, or
audit.patterns from the config file) and check each data-target trigger: selectors
must be valid, targets should exist and focus targets should be focusable.
Files matched by .gitignore are skipped. Exits 1 on errors, or on any issue with --strict.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildAuditConfig(args)
		cfg.Logger = log
		res, err := audit.Run(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		printIssues(cmd.OutOrStdout(), res, useColors())

		strict := getBoolWithFallback("strict", "audit.strict", false)
		if res.Count(audit.SeverityError) > 0 || (strict && res.Count(audit.SeverityWarning) > 0) {
			return errFailed
		}
		return nil
	},
}

func init() {
	f := auditCmd.Flags()
	f.String("root", ".", "Directory the patterns are relative to")
	f.String("ignore-file", ".gitignore", "Gitignore file relative to --root")
	f.Bool("strict", false, "Exit 1 on warnings too")
}

func printIssues(out io.Writer, res *audit.Result, colors bool) {
	for _, is := range res.Issues {
		severity := is.Severity
		switch is.Severity {
		case audit.SeverityError:
			severity = render(StyleRed, severity, colors)
		case audit.SeverityWarning:
			severity = render(StyleYellow, severity, colors)
		default:
			severity = render(StyleGray, severity, colors)
		}
		fmt.Fprintf(out, "%s: %s %s: %s %s\n",
			render(StyleCyan, is.File, colors), is.Element, is.Attribute, severity, is.Message)
	}
	fmt.Fprintf(out, "%d files, %d triggers, %d errors, %d warnings",
		res.Files, res.Triggers, res.Count(audit.SeverityError), res.Count(audit.SeverityWarning))
	if res.Skipped > 0 {
		fmt.Fprintf(out, " (%d ignored)", res.Skipped)
	}
	fmt.Fprintln(out)
}
