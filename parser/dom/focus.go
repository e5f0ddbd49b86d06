package dom

import "github.com/heathj/statetoggle/parser/webidl"

// https://html.spec.whatwg.org/#focusoptions
type FocusOptions struct {
	PreventScroll bool
}

// IsFocusable approximates https://html.spec.whatwg.org/#focusable-area for a tree with
// no rendering: hidden inputs and disabled form controls are never focusable.
func (n *Node) IsFocusable() bool {
	if n == nil || n.NodeType != ElementNode || !n.IsConnected() {
		return false
	}
	if n.HasAttribute("hidden") {
		return false
	}
	switch n.LocalName {
	case "input":
		if webidl.ASCIILowercase(n.GetAttribute("type")) == "hidden" {
			return false
		}
		return !n.HasAttribute("disabled")
	case "button", "select", "textarea":
		return !n.HasAttribute("disabled")
	case "a", "area":
		if n.HasAttribute("href") {
			return true
		}
	case "iframe", "summary":
		return true
	}
	if n.HasAttribute("tabindex") {
		return true
	}
	if v, ok := n.LookupAttribute("contenteditable"); ok && webidl.ASCIILowercase(v) != "false" {
		return true
	}
	return false
}

// Focus is https://html.spec.whatwg.org/#dom-focus
// Non-focusable elements are ignored, as browsers do.
func (n *Node) Focus(opts FocusOptions) {
	if !n.IsFocusable() {
		return
	}
	od := n.OwnerDocument
	if od.activeElement == n {
		return
	}
	if old := od.activeElement; old != nil {
		od.activeElement = nil
		fireFocusEvent(old, "blur", false)
		fireFocusEvent(old, "focusout", true)
	}
	od.activeElement = n
	if !opts.PreventScroll && od.scrollIntoView != nil {
		od.scrollIntoView(n)
	}
	fireFocusEvent(n, "focus", false)
	fireFocusEvent(n, "focusin", true)
}

// Blur is https://html.spec.whatwg.org/#dom-blur
func (n *Node) Blur() {
	od := n.OwnerDocument
	if od == nil || od.Document == nil || od.activeElement != n {
		return
	}
	od.activeElement = nil
	fireFocusEvent(n, "blur", false)
	fireFocusEvent(n, "focusout", true)
}

func fireFocusEvent(n *Node, eventType string, bubbles bool) {
	e := NewTrustedEvent(eventType, EventInit{Bubbles: bubbles}, n.OwnerDocument.Now())
	Dispatch(n, e)
}
