package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/heathj/statetoggle/browser"
	"github.com/heathj/statetoggle/parser"
	"github.com/heathj/statetoggle/parser/dom"
	"github.com/heathj/statetoggle/toggle"
)

var clickCmd = &cobra.Command{
	Use:   "click PAGE SELECTOR...",
	Short: "Load a page and click elements in order",
	Long: `Load PAGE, bind the state toggles, and click the first element matching each
SELECTOR in turn. Every attribute change, focus move and default action is printed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClick(cmd.OutOrStdout(), args[0], args[1:])
	},
}

func init() {
	f := clickCmd.Flags()
	f.String("url", "", "Document URL used to resolve links (default: about:blank)")
	f.Bool("render", false, "Print the final document")
}

func openPage(path, url string) (*browser.Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open page")
	}
	defer f.Close()

	opts := []browser.Option{browser.WithLogger(log)}
	if url != "" {
		opts = append(opts, browser.WithURL(url))
	}
	return browser.Open(f, opts...)
}

func runClick(out io.Writer, page string, selectors []string) error {
	colors := useColors()
	w, err := openPage(page, getStringWithFallback("url", "click.url", ""))
	if err != nil {
		return err
	}

	var records []dom.MutationRecord
	w.Document.Observe(func(r dom.MutationRecord) {
		records = append(records, r)
	})
	toggle.BindStateToggles(w, toggle.WithLogger(log))
	w.Load()

	for _, sel := range selectors {
		records = records[:0]
		focused := w.Document.FocusedElement()
		navigations, submissions := len(w.Navigations()), len(w.Submissions())

		e, err := w.ClickSelector(sel)
		if err != nil {
			return errors.Wrapf(err, "click %s", sel)
		}

		line := fmt.Sprintf("click %s → %s", sel, e.TargetNode().Describe())
		if e.DefaultPrevented() {
			line += render(StyleGray, " (default prevented)", colors)
		}
		fmt.Fprintln(out, render(StyleCyan, line, colors))

		for _, r := range records {
			fmt.Fprintf(out, "  %s %s %q → %q\n", r.Target.Describe(), r.AttributeName, r.OldValue,
				r.Target.GetAttribute(r.AttributeName))
		}
		if now := w.Document.FocusedElement(); now != focused && now != nil {
			fmt.Fprintf(out, "  focus %s\n", now.Describe())
		}
		if navs := w.Navigations(); len(navs) > navigations {
			fmt.Fprintf(out, "  navigate %s\n", navs[len(navs)-1].URL)
		}
		if subs := w.Submissions(); len(subs) > submissions {
			s := subs[len(subs)-1]
			fmt.Fprintf(out, "  submit %s %s\n", s.Method, s.Action)
		}
	}

	if getBoolWithFallback("render", "click.render", false) {
		html, err := parser.RenderString(w.Document)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, html)
	}
	return nil
}
