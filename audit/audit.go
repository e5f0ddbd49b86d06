// Package audit checks state toggle triggers in HTML files without clicking anything:
// every selector must compile, targets should exist, focus targets should be focusable.
package audit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"

	"github.com/heathj/statetoggle/parser"
	"github.com/heathj/statetoggle/parser/dom"
	"github.com/heathj/statetoggle/parser/webidl"
	"github.com/heathj/statetoggle/selector"
	"github.com/heathj/statetoggle/toggle"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Issue is one finding on one trigger element.
type Issue struct {
	File      string `json:"file"`
	Element   string `json:"element"`
	Attribute string `json:"attribute,omitempty"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

type Config struct {
	// Root is the directory patterns are relative to (default: ".").
	Root string

	// Patterns are doublestar globs such as "web/**/*.html".
	Patterns []string

	// IgnoreFile is a gitignore file relative to Root (default: ".gitignore"). A missing
	// file ignores nothing.
	IgnoreFile string

	Logger logrus.FieldLogger
}

type Result struct {
	Files    int
	Skipped  int
	Triggers int
	Issues   []Issue
}

// Count returns the number of issues with the given severity.
func (r *Result) Count(severity string) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == severity {
			n++
		}
	}
	return n
}

// Run audits every file matched by cfg.Patterns, in path order.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.IgnoreFile == "" {
		cfg.IgnoreFile = ".gitignore"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	fsys := os.DirFS(cfg.Root)

	files, skipped, err := expand(fsys, cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{Skipped: skipped}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "audit interrupted")
		}
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return res, errors.Wrapf(err, "read %s", name)
		}
		doc, err := parser.ParseString(string(b))
		if err != nil {
			return res, errors.Wrapf(err, "parse %s", name)
		}
		res.Files++
		triggers, issues := Document(name, doc)
		res.Triggers += triggers
		res.Issues = append(res.Issues, issues...)
		cfg.Logger.WithFields(logrus.Fields{"file": name, "triggers": triggers, "issues": len(issues)}).Debug("audited")
	}
	return res, nil
}

func expand(fsys fs.FS, cfg Config) ([]string, int, error) {
	var gi *ignore.GitIgnore
	if b, err := fs.ReadFile(fsys, cfg.IgnoreFile); err == nil {
		gi = ignore.CompileIgnoreLines(strings.Split(string(b), "\n")...)
	}

	seen := map[string]bool{}
	var files []string
	skipped := 0
	for _, pattern := range cfg.Patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, 0, errors.Wrapf(err, "glob %q", pattern)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			if gi != nil && gi.MatchesPath(m) {
				skipped++
				continue
			}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, skipped, nil
}

var stateKeys = []struct{ key, attr string }{
	{"addState", "data-add-state"},
	{"removeState", "data-remove-state"},
	{"focus", "data-focus"},
	{"preventDefault", "data-prevent-default"},
}

// Document checks every element of doc and returns the number of triggers found with the
// issues on them. file is only used to label issues.
func Document(file string, doc *dom.Node) (int, []Issue) {
	var issues []Issue
	triggers := 0
	doc.Walk(func(el *dom.Node) bool {
		if el.NodeType != dom.ElementNode {
			return true
		}
		report := func(attr, severity, format string, args ...interface{}) {
			issues = append(issues, Issue{
				File:      file,
				Element:   el.Describe(),
				Attribute: attr,
				Severity:  severity,
				Message:   fmt.Sprintf(format, args...),
			})
		}

		t, ok := toggle.ParseTrigger(el)
		if !ok {
			for _, k := range stateKeys {
				if el.Dataset().Has(k.key) {
					report(k.attr, SeverityWarning, "%s has no effect without data-target", k.attr)
				}
			}
			return true
		}
		triggers++
		checkTrigger(doc, t, report)
		return true
	})
	return triggers, issues
}

type reportFunc func(attr, severity, format string, args ...interface{})

func checkTrigger(doc *dom.Node, t toggle.Trigger, report reportFunc) {
	targets, err := selector.QueryAll(doc, t.Target)
	switch {
	case err != nil:
		report("data-target", SeverityError, "%v", err)
	case len(targets) == 0:
		report("data-target", SeverityWarning, "%q matches no element", t.Target)
	}

	checkStates(t.AddState, "data-add-state", report)
	checkStates(t.RemoveState, "data-remove-state", report)
	for _, c := range t.AddState {
		if contains(t.RemoveState, c) {
			report("data-add-state", SeverityWarning, "%q is also removed, so it is never left on", c)
		}
	}

	if t.HasFocus {
		el, err := selector.Query(doc, t.Focus)
		switch {
		case err != nil:
			report("data-focus", SeverityError, "%v", err)
		case el == nil:
			report("data-focus", SeverityWarning, "%q matches no element", t.Focus)
		case !el.IsFocusable():
			report("data-focus", SeverityWarning, "%s is not focusable", el.Describe())
		}
	}

	if len(t.AddState) == 0 && len(t.RemoveState) == 0 && !t.HasFocus && !t.PreventDefault {
		report("data-target", SeverityInfo, "trigger changes nothing")
	}
}

func checkStates(states []string, attr string, report reportFunc) {
	for _, c := range states {
		if webidl.ContainsASCIIWhitespace(c) {
			report(attr, SeverityError, "%q contains whitespace and will be skipped", c)
		}
	}
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
