package dom

import "github.com/heathj/statetoggle/parser/webidl"

type EventPhase uint

const (
	NoneEventPhase EventPhase = iota
	CapturingPhase
	AtTargetPhase
	BubblingPhase
)

// EventInit is https://dom.spec.whatwg.org/#dictdef-eventinit, plus the MouseEvent
// members the click dispatch needs.
type EventInit struct {
	Bubbles    bool
	Cancelable bool
	Composed   bool

	// https://w3c.github.io/uievents/#dictdef-mouseeventinit
	Button int
	Detail int
}

// https://dom.spec.whatwg.org/#interface-event
type Event struct {
	eventType        string
	target           Target
	currentTarget    Target
	eventPhase       EventPhase
	init             EventInit
	defaultPrevented bool
	stopPropagation  bool
	stopImmediate    bool
	isTrusted        bool
	dispatching      bool
	path             []Target
	timeStamp        webidl.DOMHighResTimeStamp
}

// NewEvent creates an untrusted event, as `new Event(type, init)` would.
func NewEvent(eventType string, init EventInit) *Event {
	return &Event{eventType: eventType, init: init}
}

// NewTrustedEvent creates an event as if the user agent had fired it.
func NewTrustedEvent(eventType string, init EventInit, ts webidl.DOMHighResTimeStamp) *Event {
	return &Event{eventType: eventType, init: init, isTrusted: true, timeStamp: ts}
}

func (e *Event) Type() string                          { return e.eventType }
func (e *Event) Target() Target                        { return e.target }
func (e *Event) CurrentTarget() Target                 { return e.currentTarget }
func (e *Event) EventPhase() EventPhase                { return e.eventPhase }
func (e *Event) Bubbles() bool                         { return e.init.Bubbles }
func (e *Event) Cancelable() bool                      { return e.init.Cancelable }
func (e *Event) DefaultPrevented() bool                { return e.defaultPrevented }
func (e *Event) IsTrusted() bool                       { return e.isTrusted }
func (e *Event) TimeStamp() webidl.DOMHighResTimeStamp { return e.timeStamp }
func (e *Event) Button() int                           { return e.init.Button }
func (e *Event) Detail() int                           { return e.init.Detail }

// TargetNode returns the target as a node, or nil when the target is not part of a tree
// (the window, for instance).
func (e *Event) TargetNode() *Node {
	n, _ := e.target.(*Node)
	return n
}

// https://dom.spec.whatwg.org/#dom-event-composedpath
func (e *Event) ComposedPath() []Target {
	if !e.dispatching {
		return nil
	}
	out := make([]Target, len(e.path))
	copy(out, e.path)
	return out
}

// https://dom.spec.whatwg.org/#dom-event-stoppropagation
func (e *Event) StopPropagation() {
	e.stopPropagation = true
}

// https://dom.spec.whatwg.org/#dom-event-stopimmediatepropagation
func (e *Event) StopImmediatePropagation() {
	e.stopPropagation = true
	e.stopImmediate = true
}

// https://dom.spec.whatwg.org/#dom-event-preventdefault
// Has no effect on events that are not cancelable.
func (e *Event) PreventDefault() {
	if e.init.Cancelable {
		e.defaultPrevented = true
	}
}
