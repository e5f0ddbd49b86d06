package toggle

import (
	"strings"

	"github.com/heathj/statetoggle/parser/dom"
)

// Dataset keys a trigger element is read from.
const (
	keyTarget         = "target"
	keyAddState       = "addState"
	keyRemoveState    = "removeState"
	keyFocus          = "focus"
	keyPreventDefault = "preventDefault"
)

// Trigger is the declarative configuration carried by a clicked element:
//
//	data-target           selector for the elements to mutate
//	data-add-state        comma separated classes to add
//	data-remove-state     comma separated classes to remove, applied after the additions
//	data-focus            selector for the element to focus
//	data-prevent-default  present to cancel the click's default action
type Trigger struct {
	Target         string
	AddState       []string
	RemoveState    []string
	Focus          string
	HasFocus       bool
	PreventDefault bool
}

// ParseTrigger reads el's data attributes. ok is false when el has no data-target, in which
// case el is not a trigger. An empty data-target is still a trigger.
func ParseTrigger(el *dom.Node) (t Trigger, ok bool) {
	if el == nil || el.NodeType != dom.ElementNode {
		return t, false
	}
	ds := el.Dataset()
	if t.Target, ok = ds.Get(keyTarget); !ok {
		return t, false
	}
	add, _ := ds.Get(keyAddState)
	remove, _ := ds.Get(keyRemoveState)
	t.AddState = SplitStates(add)
	t.RemoveState = SplitStates(remove)
	t.Focus, t.HasFocus = ds.Get(keyFocus)
	t.PreventDefault = ds.Has(keyPreventDefault)
	return t, true
}

// SplitStates splits a comma separated class list, dropping empty entries. Entries are not
// trimmed.
func SplitStates(v string) []string {
	states := []string{}
	for _, s := range strings.Split(v, ",") {
		if s != "" {
			states = append(states, s)
		}
	}
	return states
}
