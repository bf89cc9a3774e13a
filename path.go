package blocktree

import (
	"fmt"

	"github.com/alexhholmes/blocktree/internal/base"
)

// step is one level of a root-to-leaf descent.
// For internal nodes child is the index descended into.
type step struct {
	node  *base.Node
	child int
}

// maxHeight bounds a descent. With at least two children per internal node
// no tree of int32 keys gets this tall, so a longer descent means a cycle.
const maxHeight = 64

// path is a descent stack: the root at the bottom, the leaf on top.
type path []step

func (p path) top() (step, bool) {
	if len(p) == 0 {
		return step{}, false
	}
	return p[len(p)-1], true
}

func (p *path) pop() (step, bool) {
	s, ok := p.top()
	if ok {
		*p = (*p)[:len(*p)-1]
	}
	return s, ok
}

// findPath descends from start to the leaf that would hold key. At each
// internal node it takes the first child whose separator is greater than
// key, or the rightmost child. An empty tree yields an empty path.
func (t *Tree) findPath(start Address, key Key) (path, error) {
	var p path
	for addr := start; addr != 0; {
		n, err := t.pager.ReadNode(addr)
		if err != nil {
			return nil, err
		}
		if n.Leaf {
			p = append(p, step{node: n})
			return p, nil
		}
		if len(p) == maxHeight {
			return nil, fmt.Errorf("%w: descent deeper than %d at %d", ErrCorruption, maxHeight, addr)
		}
		i := n.ChildIndex(key)
		p = append(p, step{node: n, child: i})
		addr = n.Children[i]
	}
	return p, nil
}

// leftmostKey returns the smallest key in the subtree rooted at addr.
func (t *Tree) leftmostKey(addr Address) (Key, error) {
	for {
		n, err := t.pager.ReadNode(addr)
		if err != nil {
			return 0, err
		}
		if n.Leaf {
			if len(n.Keys) == 0 {
				return 0, fmt.Errorf("%w: empty leaf at %d", ErrCorruption, addr)
			}
			return n.Keys[0], nil
		}
		addr = n.Children[0]
	}
}
