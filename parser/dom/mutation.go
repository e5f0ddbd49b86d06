package dom

import "sort"

// MutationRecord describes one attribute change.
// https://dom.spec.whatwg.org/#interface-mutationrecord
//
// Records are delivered synchronously to every observer of the owning document, in the
// order the changes happen, rather than batched at a microtask checkpoint.
type MutationRecord struct {
	Type          string `json:"type"`
	Target        *Node  `json:"-"`
	AttributeName string `json:"attributeName"`
	OldValue      string `json:"oldValue,omitempty"`
	HadOldValue   bool   `json:"hadOldValue"`
}

// Observe registers fn for every attribute mutation in the document. The returned func
// stops delivery.
func (n *Node) Observe(fn func(MutationRecord)) (cancel func()) {
	id := n.nextObserver
	n.nextObserver++
	n.observers[id] = fn
	return func() {
		delete(n.observers, id)
	}
}

func (n *Node) notify(r MutationRecord) {
	if len(n.observers) == 0 {
		return
	}
	ids := make([]int, 0, len(n.observers))
	for id := range n.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := n.observers[id]; ok {
			fn(r)
		}
	}
}
