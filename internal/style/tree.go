package style

import "strings"

// styleTree stores entries under dotted category paths.
// An entry set on a path cascades to every descendant path that does
// not set its own, so a lookup resolves to the nearest styled
// ancestor in one pass.
type styleTree struct {
	root styleNode
}

func (t *styleTree) set(path string, e Entry) {
	t.root.set(path, &e)
}

func (t *styleTree) lookup(path string) (Entry, bool) {
	if got := t.root.get(path, nil); got != nil {
		return *got, true
	}
	return Entry{}, false
}

type styleNode struct {
	entry    *Entry
	children map[string]*styleNode
}

func (n *styleNode) set(path string, e *Entry) {
	if path == "" {
		n.entry = e
		return
	}

	head, tail := splitPath(path)
	child, ok := n.children[head]
	if !ok {
		if n.children == nil {
			n.children = make(map[string]*styleNode)
		}
		child = new(styleNode)
		n.children[head] = child
	}
	child.set(tail, e)
}

// get walks path from n, remembering the deepest entry seen.
func (n *styleNode) get(path string, nearest *Entry) *Entry {
	if n == nil {
		return nearest
	}
	if n.entry != nil {
		nearest = n.entry
	}
	if path == "" {
		return nearest
	}

	head, tail := splitPath(path)
	return n.children[head].get(tail, nearest)
}

func splitPath(path string) (head, tail string) {
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return path, ""
}
