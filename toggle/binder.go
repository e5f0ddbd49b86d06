// Package toggle adds and removes state classes on elements in response to clicks on
// triggers described by data attributes:
//
//	<div class="panel">
//	  <button data-add-state="panel--open" data-target=".panel" data-prevent-default>Open</button>
//	  <button data-remove-state="panel--open,panel--wide" data-target=".panel,.other">Close</button>
//	</div>
//
// One click listener on the document serves every trigger, current and future.
package toggle

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/heathj/statetoggle/browser"
	"github.com/heathj/statetoggle/parser/dom"
	"github.com/heathj/statetoggle/selector"
)

const logPrefix = "[PLUG/TOGGLE] "

type Option func(*Binder)

func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Binder) {
		b.log = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Binder) {
		b.metrics = m
	}
}

// Binder owns the delegated click listener of one window.
type Binder struct {
	window  *browser.Window
	log     logrus.FieldLogger
	metrics *Metrics

	once     sync.Once
	attached bool
}

// NewBinder returns an unbound Binder for w.
func NewBinder(w *browser.Window, opts ...Option) *Binder {
	b := &Binder{
		window: w,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BindStateToggles arranges for the click listener to be attached to w's document once the
// window has loaded. Clicks before that are not observed. If w has already loaded the
// listener is attached immediately.
func BindStateToggles(w *browser.Window, opts ...Option) *Binder {
	b := NewBinder(w, opts...)
	b.Bind()
	return b
}

// Bind registers the load initializer. Only the first call has any effect.
func (b *Binder) Bind() {
	b.once.Do(func() {
		b.window.OnLoad(b.attach)
	})
}

// Attached reports whether the click listener is on the document.
func (b *Binder) Attached() bool {
	return b.attached
}

func (b *Binder) attach() {
	b.window.Document.AddEventListener("click", b.handleClick, dom.ListenerOptions{Capture: false})
	b.attached = true
	b.log.Info(logPrefix + "State toggle listener attached to document")
}

func (b *Binder) handleClick(e *dom.Event) {
	el := e.TargetNode()
	trigger, ok := ParseTrigger(el)
	if !ok {
		return
	}
	b.metrics.trigger()
	b.Apply(trigger)

	if trigger.PreventDefault {
		e.PreventDefault()
		b.metrics.prevented()
	}
}

// Apply performs a trigger's class changes and focus move against the window's document.
// Nothing it does can fail: bad selectors match nothing and bad class names are skipped.
func (b *Binder) Apply(t Trigger) {
	doc := b.window.Document

	targets, err := selector.QueryAll(doc, t.Target)
	if err != nil {
		b.log.WithError(err).WithField("selector", t.Target).Debug(logPrefix + "Target selector matched nothing")
	}
	b.metrics.matched(len(targets))

	for _, target := range targets {
		classes := target.ClassList()
		for _, class := range t.AddState {
			if err := classes.Add(class); err != nil {
				b.skip(err, class, target)
				continue
			}
			b.metrics.added()
			b.log.WithFields(logrus.Fields{"class": class, "element": target.Describe()}).
				Infof(logPrefix+"Added '%s' class to", class)
		}
		for _, class := range t.RemoveState {
			if err := classes.Remove(class); err != nil {
				b.skip(err, class, target)
				continue
			}
			b.metrics.removed()
			b.log.WithFields(logrus.Fields{"class": class, "element": target.Describe()}).
				Infof(logPrefix+"Removed '%s' class from", class)
		}
	}

	if t.HasFocus {
		b.focus(doc, t.Focus)
	}
}

func (b *Binder) skip(err error, class string, target *dom.Node) {
	b.log.WithError(err).WithFields(logrus.Fields{"class": class, "element": target.Describe()}).
		Debug(logPrefix + "Skipped invalid class")
}

// focus moves focus to the first match of sel without scrolling. A selector that matches
// nothing focusable leaves focus where it is.
func (b *Binder) focus(doc *dom.Node, sel string) {
	log := b.log.WithField("selector", sel)
	el, err := selector.Query(doc, sel)
	switch {
	case err != nil:
		log.WithError(err).Debug(logPrefix + "Focus selector is invalid")
	case el == nil:
		log.Debug(logPrefix + "Focus selector matched nothing")
	case !el.IsFocusable():
		log.WithField("element", el.Describe()).Debug(logPrefix + "Focus target is not focusable")
	default:
		el.Focus(dom.FocusOptions{PreventScroll: true})
		return
	}
	b.metrics.focusMiss()
}
