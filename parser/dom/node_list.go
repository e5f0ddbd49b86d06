package dom

// https://dom.spec.whatwg.org/#nodelist
type NodeList []*Node

// Contains returns the index of n in the list, or -1.
func (h *NodeList) Contains(n *Node) int {
	for i := range *h {
		if n == (*h)[i] {
			return i
		}
	}
	return -1
}

func (h *NodeList) Remove(i int) *Node {
	if i < 0 || i >= len(*h) {
		return nil
	}
	node := (*h)[i]
	*h = append((*h)[:i], (*h)[i+1:]...)
	return node
}

// Elements filters the list down to element nodes.
func (h NodeList) Elements() NodeList {
	var out NodeList
	for _, n := range h {
		if n.NodeType == ElementNode {
			out = append(out, n)
		}
	}
	return out
}
