package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/heathj/statetoggle/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run SCENARIO...",
	Short: "Run scenario files",
	Long: `Run each YAML scenario: load its page, click through its steps and check the
expected classes, focus and default actions. Exits 1 if any expectation fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenarios(cmd, cmd.OutOrStdout(), args)
	},
}

func runScenarios(cmd *cobra.Command, out io.Writer, paths []string) error {
	colors := useColors()
	failed := 0
	for _, path := range paths {
		s, err := scenario.LoadFile(path)
		if err != nil {
			return err
		}
		report, err := scenario.Run(cmd.Context(), s, scenario.Options{Logger: log})
		if err != nil {
			return err
		}
		printReport(out, report, colors)
		if !report.Passed() {
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintln(out, render(StyleRed, fmt.Sprintf("%d of %d failed", failed, len(paths)), colors))
		return errFailed
	}
	fmt.Fprintln(out, render(StyleGreen, fmt.Sprintf("%d passed", len(paths)), colors))
	return nil
}

func printReport(out io.Writer, r *scenario.Report, colors bool) {
	fmt.Fprintln(out, render(StyleCyan, r.Name, colors))
	for _, st := range r.Steps {
		if st.Passed() {
			fmt.Fprintf(out, "  %s %s (click %s)\n", render(StyleGreen, "ok", colors), st.Name, st.Click)
			continue
		}
		fmt.Fprintf(out, "  %s %s (click %s)\n", render(StyleRed, "FAIL", colors), st.Name, st.Click)
		for _, f := range st.Failures {
			fmt.Fprintf(out, "      %s\n", f)
		}
	}
}
