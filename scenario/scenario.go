// Package scenario runs scripted clicks against a page and checks the state the toggles
// leave behind. Scenarios are YAML:
//
//	name: panel
//	page: |
//	  <div class="panel"><button id="open" data-target=".panel" data-add-state="panel--open">Open</button></div>
//	steps:
//	  - click: "#open"
//	    expect:
//	      has_class:
//	        .panel: [panel--open]
//	      default_prevented: false
package scenario

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/heathj/statetoggle/browser"
	"github.com/heathj/statetoggle/parser/dom"
	"github.com/heathj/statetoggle/toggle"
)

type Scenario struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url,omitempty"`
	Page     string `yaml:"page,omitempty"`
	PageFile string `yaml:"page_file,omitempty"`
	Steps    []Step `yaml:"steps"`

	// dir resolves a relative PageFile.
	dir string
}

type Step struct {
	Name   string `yaml:"name,omitempty"`
	Click  string `yaml:"click"`
	Expect Expect `yaml:"expect"`
}

// Expect is checked after a step's click. Unset fields are not checked.
type Expect struct {
	// HasClass and LacksClass map a selector to classes every match must have or lack.
	HasClass   map[string][]string `yaml:"has_class,omitempty"`
	LacksClass map[string][]string `yaml:"lacks_class,omitempty"`

	// Focused is a selector the focused element must match first. "none" means nothing
	// holds focus.
	Focused string `yaml:"focused,omitempty"`

	DefaultPrevented *bool `yaml:"default_prevented,omitempty"`
	Scrolled         *bool `yaml:"scrolled,omitempty"`
	Navigated        *bool `yaml:"navigated,omitempty"`
	Submitted        *bool `yaml:"submitted,omitempty"`
}

// Load decodes one scenario.
func Load(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile loads the scenario at path. A relative page_file is resolved against the
// scenario's directory.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open scenario")
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	s.dir = filepath.Dir(path)
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func (s *Scenario) Validate() error {
	if (s.Page == "") == (s.PageFile == "") {
		return errors.New("exactly one of page and page_file is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("no steps")
	}
	for i, st := range s.Steps {
		if st.Click == "" {
			return errors.Errorf("step %d: click is required", i+1)
		}
	}
	return nil
}

func (s *Scenario) open(opts Options) (*browser.Window, error) {
	wopts := []browser.Option{browser.WithLogger(opts.Logger)}
	if s.URL != "" {
		wopts = append(wopts, browser.WithURL(s.URL))
	}
	if s.Page != "" {
		return browser.Open(strings.NewReader(s.Page), wopts...)
	}

	path := s.PageFile
	if !filepath.IsAbs(path) && s.dir != "" {
		path = filepath.Join(s.dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open page")
	}
	defer f.Close()
	return browser.Open(f, wopts...)
}

type Options struct {
	Logger  logrus.FieldLogger
	Metrics *toggle.Metrics
}

type Report struct {
	Name  string
	Steps []StepResult
}

type StepResult struct {
	Name     string
	Click    string
	Failures []string
}

func (r StepResult) Passed() bool {
	return len(r.Failures) == 0
}

func (r *Report) Passed() bool {
	return r.Failures() == 0
}

// Failures counts failed expectations over all steps.
func (r *Report) Failures() int {
	n := 0
	for _, st := range r.Steps {
		n += len(st.Failures)
	}
	return n
}

// Run loads a fresh window for s, binds the state toggles, and plays the steps in order.
// Failed expectations are recorded in the report; the error is for scenarios that cannot
// run at all.
func Run(ctx context.Context, s *Scenario, opts Options) (*Report, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	log := opts.Logger.WithField("scenario", s.Name)

	w, err := s.open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", s.Name)
	}
	toggle.BindStateToggles(w, toggle.WithLogger(opts.Logger), toggle.WithMetrics(opts.Metrics))
	w.Load()

	report := &Report{Name: s.Name}
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "scenario interrupted")
		}
		name := st.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		result := StepResult{Name: name, Click: st.Click}
		result.Failures = runStep(w, st)
		report.Steps = append(report.Steps, result)
		log.WithFields(logrus.Fields{"step": name, "failures": len(result.Failures)}).Debug("step done")
	}
	return report, nil
}

func runStep(w *browser.Window, st Step) []string {
	scrolls, navigations, submissions := len(w.Scrolls()), len(w.Navigations()), len(w.Submissions())

	e, err := w.ClickSelector(st.Click)
	if err != nil {
		return []string{fmt.Sprintf("click %s: %v", st.Click, err)}
	}

	var failures []string
	fail := func(format string, args ...interface{}) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}
	ex := st.Expect

	checkClasses(w, ex.HasClass, true, fail)
	checkClasses(w, ex.LacksClass, false, fail)

	if ex.Focused != "" {
		checkFocus(w, ex.Focused, fail)
	}
	checkFlag("default prevented", ex.DefaultPrevented, e.DefaultPrevented(), fail)
	checkFlag("scrolled", ex.Scrolled, len(w.Scrolls()) > scrolls, fail)
	checkFlag("navigated", ex.Navigated, len(w.Navigations()) > navigations, fail)
	checkFlag("submitted", ex.Submitted, len(w.Submissions()) > submissions, fail)
	return failures
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkClasses(w *browser.Window, want map[string][]string, has bool, fail func(string, ...interface{})) {
	for _, sel := range sortedKeys(want) {
		els, err := w.QuerySelectorAll(sel)
		if err != nil {
			fail("%s: %v", sel, err)
			continue
		}
		if len(els) == 0 {
			fail("%s matches nothing", sel)
			continue
		}
		for _, el := range els {
			for _, c := range want[sel] {
				if el.ClassList().Contains(c) == has {
					continue
				}
				if has {
					fail("%s lacks class %q", el.Describe(), c)
				} else {
					fail("%s has class %q", el.Describe(), c)
				}
			}
		}
	}
}

func checkFocus(w *browser.Window, want string, fail func(string, ...interface{})) {
	focused := w.Document.FocusedElement()
	if want == "none" {
		if focused != nil {
			fail("expected nothing focused, %s is", focused.Describe())
		}
		return
	}
	el, err := w.QuerySelector(want)
	switch {
	case err != nil:
		fail("focused %s: %v", want, err)
	case el == nil:
		fail("focused %s matches nothing", want)
	case focused != el:
		fail("expected %s focused, got %s", el.Describe(), describe(focused))
	}
}

func describe(n *dom.Node) string {
	if n == nil {
		return "nothing"
	}
	return n.Describe()
}

func checkFlag(name string, want *bool, got bool, fail func(string, ...interface{})) {
	if want != nil && *want != got {
		fail("%s: expected %t, got %t", name, *want, got)
	}
}
