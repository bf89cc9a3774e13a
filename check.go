package blocktree

import (
	"fmt"
	"io"
	"strings"

	"github.com/alexhholmes/blocktree/internal/base"
)

// Verify walks the whole tree and checks its structure: keys strictly
// ascending, separators within bounds and equal to the smallest key of
// their right subtree, minimum occupancy of non-root nodes, all leaves at
// one depth, and a leaf chain that visits every leaf in key order. Any
// violation is reported as ErrCorruption.
func (t *Tree) Verify() error {
	if err := t.begin("verify"); err != nil {
		return err
	}
	defer t.end()

	root := t.pager.Root()
	if root == 0 {
		return nil
	}

	v := &verifier{tree: t, layout: t.pager.Layout(), leafDepth: -1}
	if _, err := v.walk(root, 0, nil, nil); err != nil {
		return err
	}

	for i, leaf := range v.leaves {
		var want Address
		if i+1 < len(v.leaves) {
			want = v.leaves[i+1].Addr
		}
		if leaf.Next != want {
			return fmt.Errorf("%w: leaf %d links to %d, expected %d", ErrCorruption, leaf.Addr, leaf.Next, want)
		}
	}
	return nil
}

type verifier struct {
	tree      *Tree
	layout    base.Layout
	leafDepth int
	leaves    []*base.Node
	seen      map[Address]struct{}
}

// walk checks the subtree at addr whose keys must lie in [lo, hi) and
// returns its smallest key.
func (v *verifier) walk(addr Address, depth int, lo, hi *Key) (Key, error) {
	if v.seen == nil {
		v.seen = make(map[Address]struct{})
	}
	if _, ok := v.seen[addr]; ok {
		return 0, fmt.Errorf("%w: node %d reachable twice", ErrCorruption, addr)
	}
	v.seen[addr] = struct{}{}

	n, err := v.tree.pager.ReadNode(addr)
	if err != nil {
		return 0, err
	}

	isRoot := depth == 0
	if v.layout.IsTooSmall(n, isRoot) {
		return 0, fmt.Errorf("%w: node %d holds %d keys, minimum %d", ErrCorruption, addr, len(n.Keys), v.layout.MinKeys())
	}
	for i, k := range n.Keys {
		if i > 0 && k <= n.Keys[i-1] {
			return 0, fmt.Errorf("%w: node %d keys out of order at %d", ErrCorruption, addr, i)
		}
		if (lo != nil && k < *lo) || (hi != nil && k >= *hi) {
			return 0, fmt.Errorf("%w: node %d key %d outside its subtree range", ErrCorruption, addr, k)
		}
	}

	if n.Leaf {
		if v.leafDepth < 0 {
			v.leafDepth = depth
		} else if depth != v.leafDepth {
			return 0, fmt.Errorf("%w: leaf %d at depth %d, expected %d", ErrCorruption, addr, depth, v.leafDepth)
		}
		v.leaves = append(v.leaves, n)
		return n.Keys[0], nil
	}

	var smallest Key
	for i, child := range n.Children {
		clo, chi := lo, hi
		if i > 0 {
			clo = &n.Keys[i-1]
		}
		if i < len(n.Keys) {
			chi = &n.Keys[i]
		}
		first, err := v.walk(child, depth+1, clo, chi)
		if err != nil {
			return 0, err
		}
		if i == 0 {
			smallest = first
		} else if first != n.Keys[i-1] {
			return 0, fmt.Errorf("%w: node %d separator %d, smallest key of its right subtree is %d",
				ErrCorruption, addr, n.Keys[i-1], first)
		}
	}
	return smallest, nil
}

// Dump writes the tree level by level, one line per level. Each node
// prints as [address: keys], leaves with the address of the next leaf.
func (t *Tree) Dump(w io.Writer) error {
	if err := t.begin("dump"); err != nil {
		return err
	}
	defer t.end()

	level := []Address{t.pager.Root()}
	if level[0] == 0 {
		_, err := fmt.Fprintln(w, "empty")
		return err
	}

	for depth := 0; len(level) > 0; depth++ {
		var next []Address
		var b strings.Builder
		fmt.Fprintf(&b, "%d:", depth)
		for _, addr := range level {
			n, err := t.pager.ReadNode(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(&b, " [%d:", addr)
			for _, k := range n.Keys {
				fmt.Fprintf(&b, " %d", k)
			}
			if n.Leaf {
				fmt.Fprintf(&b, " -> %d]", n.Next)
			} else {
				b.WriteString("]")
				next = append(next, n.Children...)
			}
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
		level = next
	}
	return nil
}
