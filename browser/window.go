// Package browser hosts a parsed document the way a browsing context would: it owns the
// load lifecycle, dispatches user clicks, and runs the default actions a click triggers.
package browser

import (
	"io"
	"net/url"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heathj/statetoggle/parser"
	"github.com/heathj/statetoggle/parser/dom"
	"github.com/heathj/statetoggle/parser/webidl"
	"github.com/heathj/statetoggle/selector"
)

// Navigation is recorded when a hyperlink's activation behaviour runs.
// https://html.spec.whatwg.org/#following-hyperlinks-2
type Navigation struct {
	URL    string
	Source *dom.Node
}

// Submission is recorded when a submit button's activation behaviour runs.
// https://html.spec.whatwg.org/#concept-form-submit
type Submission struct {
	Form      *dom.Node
	Submitter *dom.Node
	Method    string
	Action    string
}

type Option func(*Window)

// WithURL sets the document URL used to resolve links and form actions.
func WithURL(u string) Option {
	return func(w *Window) {
		w.Document.URL = u
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Window) {
		w.log = l
	}
}

// Window is https://html.spec.whatwg.org/#window. It is not safe for concurrent use; one
// goroutine drives it, like a browser's event loop.
type Window struct {
	dom.EventTarget

	Document *dom.Node

	log         logrus.FieldLogger
	loaded      bool
	navigations []Navigation
	submissions []Submission
	scrolls     []*dom.Node
}

// Open parses r and returns a window around the resulting document, not yet loaded.
func Open(r io.Reader, opts ...Option) (*Window, error) {
	doc, err := parser.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "open window")
	}
	return NewWindow(doc, opts...), nil
}

// NewWindow makes w the default view of doc.
func NewWindow(doc *dom.Node, opts ...Option) *Window {
	w := &Window{
		Document: doc,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	doc.DefaultView = w
	doc.SetScrollHandler(func(n *dom.Node) {
		w.scrolls = append(w.scrolls, n)
	})
	return w
}

// ParentTarget is nil: the window is the end of every event path.
func (w *Window) ParentTarget(*dom.Event) dom.Target {
	return nil
}

func (w *Window) ReadyState() dom.DocumentReadyState {
	return w.Document.ReadyState
}

// Load finishes loading the document: DOMContentLoaded at the document, then load at the
// window. Only the first call does anything.
// https://html.spec.whatwg.org/#the-end
func (w *Window) Load() {
	if w.loaded {
		return
	}
	w.loaded = true

	w.Document.ReadyState = dom.Interactive
	dom.Dispatch(w.Document, dom.NewTrustedEvent("DOMContentLoaded", dom.EventInit{Bubbles: true}, w.Document.Now()))

	w.Document.ReadyState = dom.Complete
	dom.Dispatch(w, dom.NewTrustedEvent("load", dom.EventInit{}, w.Document.Now()))
	w.log.WithField("url", w.Document.URL).Debug("window loaded")
}

// OnLoad runs fn when the window loads, or right away when it already has.
func (w *Window) OnLoad(fn func()) {
	if w.loaded {
		fn()
		return
	}
	w.AddEventListener("load", func(*dom.Event) { fn() }, dom.ListenerOptions{Once: true})
}

func (w *Window) Navigations() []Navigation { return w.navigations }
func (w *Window) Submissions() []Submission { return w.submissions }

// Scrolls lists the elements the document asked to scroll into view, oldest first.
func (w *Window) Scrolls() []*dom.Node { return w.scrolls }

func (w *Window) QuerySelector(s string) (*dom.Node, error) {
	return selector.Query(w.Document, s)
}

func (w *Window) QuerySelectorAll(s string) ([]*dom.Node, error) {
	return selector.QueryAll(w.Document, s)
}

// ClickSelector clicks the first element matching s.
func (w *Window) ClickSelector(s string) (*dom.Event, error) {
	el, err := w.QuerySelector(s)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, errors.Errorf("no element matches %q", s)
	}
	return w.Click(el), nil
}

// Click fires a trusted click at el, as a user pressing the primary button would, and
// runs the activation behaviour unless a listener canceled the event.
// https://html.spec.whatwg.org/#activation-behaviour
func (w *Window) Click(el *dom.Node) *dom.Event {
	e := dom.NewTrustedEvent("click", dom.EventInit{
		Bubbles:    true,
		Cancelable: true,
		Composed:   true,
		Detail:     1,
	}, w.Document.Now())
	if isDisabledControl(el) {
		w.log.WithField("element", el.Describe()).Debug("click on disabled control ignored")
		return e
	}

	act := activationTarget(el)
	var restore func()
	if act != nil {
		restore = w.legacyPreActivation(act)
	}
	if !dom.Dispatch(el, e) {
		if restore != nil {
			restore()
		}
		return e
	}
	if act != nil {
		w.activate(act)
	}
	return e
}

// activationTarget is the nearest inclusive ancestor of el with activation behaviour.
func activationTarget(el *dom.Node) *dom.Node {
	for n := el; n != nil; n = n.ParentElement() {
		if hasActivationBehaviour(n) {
			return n
		}
	}
	return nil
}

func inputType(n *dom.Node) string {
	return webidl.ASCIILowercase(n.GetAttribute("type"))
}

func buttonType(n *dom.Node) string {
	switch t := webidl.ASCIILowercase(n.GetAttribute("type")); t {
	case "reset", "button":
		return t
	}
	return "submit"
}

func hasActivationBehaviour(n *dom.Node) bool {
	if n.NodeType != dom.ElementNode || n.NamespaceURI != dom.HTMLNamespace {
		return false
	}
	switch n.LocalName {
	case "a", "area":
		return n.HasAttribute("href")
	case "button":
		return !n.HasAttribute("disabled")
	case "input":
		if n.HasAttribute("disabled") {
			return false
		}
		switch inputType(n) {
		case "submit", "image", "checkbox", "radio", "reset":
			return true
		}
	}
	return false
}

func isDisabledControl(n *dom.Node) bool {
	if n == nil || n.NodeType != dom.ElementNode {
		return false
	}
	switch n.LocalName {
	case "button", "input", "select", "textarea":
		return n.HasAttribute("disabled")
	}
	return false
}

// legacyPreActivation flips checkboxes and radios before dispatch so listeners see the new
// state. The returned func undoes it when the click is canceled.
// https://html.spec.whatwg.org/#the-input-element:legacy-pre-activation-behavior
func (w *Window) legacyPreActivation(n *dom.Node) func() {
	if n.LocalName != "input" {
		return nil
	}
	switch inputType(n) {
	case "checkbox":
		was := n.HasAttribute("checked")
		w.setChecked(n, !was)
		return func() { w.setChecked(n, was) }
	case "radio":
		var previous *dom.Node
		for _, r := range radioGroup(n) {
			if r != n && r.HasAttribute("checked") {
				previous = r
			}
		}
		was := n.HasAttribute("checked")
		w.setChecked(n, true)
		if previous != nil {
			w.setChecked(previous, false)
		}
		return func() {
			w.setChecked(n, was)
			if previous != nil {
				w.setChecked(previous, true)
			}
		}
	}
	return nil
}

func (w *Window) setChecked(n *dom.Node, checked bool) {
	if _, err := n.ToggleAttribute("checked", checked); err != nil {
		w.log.WithError(err).Debug("set checkedness")
	}
}

// radioGroup returns the radio buttons sharing n's name and form owner.
// https://html.spec.whatwg.org/#radio-button-group
func radioGroup(n *dom.Node) []*dom.Node {
	name := n.GetAttribute("name")
	if name == "" {
		return []*dom.Node{n}
	}
	form := formOwner(n)
	root := n.GetRootNode(dom.GetRootNodeOptions{})
	var group []*dom.Node
	root.Walk(func(c *dom.Node) bool {
		if c.NodeType == dom.ElementNode && c.LocalName == "input" && inputType(c) == "radio" &&
			c.GetAttribute("name") == name && formOwner(c) == form {
			group = append(group, c)
		}
		return true
	})
	return group
}

// formOwner is https://html.spec.whatwg.org/#form-owner
func formOwner(n *dom.Node) *dom.Node {
	if id, ok := n.LookupAttribute("form"); ok {
		if od := n.OwnerDocument; od != nil {
			if f := od.GetElementByID(id); f != nil && f.LocalName == "form" {
				return f
			}
		}
		return nil
	}
	for p := n.ParentElement(); p != nil; p = p.ParentElement() {
		if p.LocalName == "form" {
			return p
		}
	}
	return nil
}

func (w *Window) activate(n *dom.Node) {
	switch n.LocalName {
	case "a", "area":
		u := w.resolve(n.GetAttribute("href"))
		w.navigations = append(w.navigations, Navigation{URL: u, Source: n})
		w.log.WithFields(logrus.Fields{"url": u, "element": n.Describe()}).Debug("navigate")
	case "button":
		if buttonType(n) == "submit" {
			w.submit(n)
		}
	case "input":
		switch inputType(n) {
		case "submit", "image":
			w.submit(n)
		case "checkbox", "radio":
			dom.Dispatch(n, dom.NewTrustedEvent("input", dom.EventInit{Bubbles: true, Composed: true}, w.Document.Now()))
			dom.Dispatch(n, dom.NewTrustedEvent("change", dom.EventInit{Bubbles: true}, w.Document.Now()))
		}
	}
}

func (w *Window) submit(submitter *dom.Node) {
	form := formOwner(submitter)
	if form == nil {
		return
	}
	method := webidl.ASCIILowercase(form.GetAttribute("method"))
	if m, ok := submitter.LookupAttribute("formmethod"); ok {
		method = webidl.ASCIILowercase(m)
	}
	if method != "post" && method != "dialog" {
		method = "get"
	}
	action := form.GetAttribute("action")
	if a, ok := submitter.LookupAttribute("formaction"); ok {
		action = a
	}

	s := Submission{Form: form, Submitter: submitter, Method: method, Action: w.resolve(action)}
	w.submissions = append(w.submissions, s)
	w.log.WithFields(logrus.Fields{"action": s.Action, "method": s.Method}).Debug("submit")
}

// resolve parses ref relative to the document URL. Unparseable input is kept verbatim.
func (w *Window) resolve(ref string) string {
	base, err := url.Parse(w.Document.URL)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
