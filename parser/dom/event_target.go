package dom

// Listener is the callback half of https://dom.spec.whatwg.org/#concept-event-listener
type Listener func(e *Event)

// ListenerID identifies a registration so it can be removed; Go funcs are not comparable.
type ListenerID int

// https://dom.spec.whatwg.org/#dictdef-addeventlisteneroptions
type ListenerOptions struct {
	Capture bool
	Once    bool
}

type eventListener struct {
	id       ListenerID
	callback Listener
	options  ListenerOptions
	removed  bool
}

// EventTarget holds the listener list of anything events can be dispatched to.
// https://dom.spec.whatwg.org/#interface-eventtarget
type EventTarget struct {
	listeners map[string][]*eventListener
	nextID    ListenerID
}

// Target is implemented by nodes and by the window. ParentTarget is
// https://dom.spec.whatwg.org/#get-the-parent
type Target interface {
	Listeners() *EventTarget
	ParentTarget(e *Event) Target
}

func (et *EventTarget) Listeners() *EventTarget {
	return et
}

// AddEventListener is https://dom.spec.whatwg.org/#dom-eventtarget-addeventlistener
func (et *EventTarget) AddEventListener(eventType string, callback Listener, opts ...ListenerOptions) ListenerID {
	if callback == nil {
		return 0
	}
	if et.listeners == nil {
		et.listeners = map[string][]*eventListener{}
	}
	var o ListenerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	et.nextID++
	et.listeners[eventType] = append(et.listeners[eventType], &eventListener{
		id:       et.nextID,
		callback: callback,
		options:  o,
	})
	return et.nextID
}

// RemoveEventListener is https://dom.spec.whatwg.org/#dom-eventtarget-removeeventlistener
func (et *EventTarget) RemoveEventListener(eventType string, id ListenerID) {
	list := et.listeners[eventType]
	for i, l := range list {
		if l.id == id {
			l.removed = true
			et.listeners[eventType] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// HasEventListeners returns true if there are any listeners for the event type.
func (et *EventTarget) HasEventListeners(eventType string) bool {
	return len(et.listeners[eventType]) > 0
}

// ParentTarget for a node is its parent, or the default view for a document.
func (n *Node) ParentTarget(e *Event) Target {
	if n.ParentNode != nil {
		return n.ParentNode
	}
	if n.NodeType == DocumentNode && n.DefaultView != nil && e.eventType != "load" {
		return n.DefaultView
	}
	return nil
}

// DispatchEvent is https://dom.spec.whatwg.org/#dom-eventtarget-dispatchevent
func (n *Node) DispatchEvent(e *Event) bool {
	return Dispatch(n, e)
}

// Dispatch runs the capture, target and bubble phases for e on target and reports
// whether the default action should run.
// https://dom.spec.whatwg.org/#concept-event-dispatch
func Dispatch(target Target, e *Event) bool {
	e.dispatching = true
	e.target = target
	e.path = e.path[:0]
	for t := target; t != nil; t = t.ParentTarget(e) {
		e.path = append(e.path, t)
	}

	for i := len(e.path) - 1; i > 0 && !e.stopPropagation; i-- {
		e.eventPhase = CapturingPhase
		invoke(e.path[i], e, CapturingPhase)
	}
	if !e.stopPropagation {
		e.eventPhase = AtTargetPhase
		invoke(target, e, CapturingPhase)
		if !e.stopPropagation {
			invoke(target, e, BubblingPhase)
		}
	}
	if e.init.Bubbles {
		for i := 1; i < len(e.path) && !e.stopPropagation; i++ {
			e.eventPhase = BubblingPhase
			invoke(e.path[i], e, BubblingPhase)
		}
	}

	e.eventPhase = NoneEventPhase
	e.currentTarget = nil
	e.dispatching = false
	e.stopPropagation, e.stopImmediate = false, false
	return !e.defaultPrevented
}

// https://dom.spec.whatwg.org/#concept-event-listener-inner-invoke
func invoke(t Target, e *Event, phase EventPhase) {
	et := t.Listeners()
	list := et.listeners[e.eventType]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*eventListener, len(list))
	copy(snapshot, list)

	e.currentTarget = t
	for _, l := range snapshot {
		if l.removed {
			continue
		}
		if phase == CapturingPhase && !l.options.Capture {
			continue
		}
		if phase == BubblingPhase && l.options.Capture {
			continue
		}
		if l.options.Once {
			et.RemoveEventListener(e.eventType, l.id)
		}
		l.callback(e)
		if e.stopImmediate {
			return
		}
	}
}
