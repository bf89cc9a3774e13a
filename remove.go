package blocktree

import (
	"github.com/alexhholmes/blocktree/internal/algo"
	"github.com/alexhholmes/blocktree/internal/base"
)

// Remove deletes key and returns the address it mapped to. It returns 0
// without touching the file if key is absent.
func (t *Tree) Remove(key Key) (Address, error) {
	if err := t.begin("remove"); err != nil {
		return 0, err
	}
	defer t.end()

	root := t.pager.Root()
	if root == 0 {
		return 0, nil
	}

	p, err := t.findPath(root, key)
	if err != nil {
		return 0, err
	}
	s, _ := p.pop()
	leaf := s.node
	i := leaf.FindKey(key)
	if i < 0 {
		return 0, nil
	}

	// Last key of the tree: the tree becomes empty
	if leaf.Addr == root && len(leaf.Keys) == 1 {
		if err := t.pager.Free(leaf.Addr); err != nil {
			return 0, err
		}
		t.pager.SetRoot(0)
		return leaf.Children[i], nil
	}

	value := leaf.RemoveLeafAt(i)
	if err := t.pager.WriteNode(leaf); err != nil {
		return 0, err
	}

	if parent, ok := p.top(); ok && parent.child > 0 && len(leaf.Keys) > 0 {
		if sep := &parent.node.Keys[parent.child-1]; *sep != leaf.Keys[0] {
			*sep = leaf.Keys[0]
			if err := t.pager.WriteNode(parent.node); err != nil {
				return 0, err
			}
		}
	}

	if err := t.rebalance(p, leaf); err != nil {
		return 0, err
	}
	if err := t.fixSeparators(key); err != nil {
		return 0, err
	}
	return value, nil
}

// rebalance restores minimum occupancy from n up through the ancestors in p.
// An underfull node borrows from its left sibling, else its right sibling,
// else merges with one of them, which may leave the parent underfull in
// turn. An internal root left without keys is replaced by its only child.
func (t *Tree) rebalance(p path, n *base.Node) error {
	layout := t.pager.Layout()

	for layout.IsTooSmall(n, n.Addr == t.pager.Root()) {
		s, ok := p.pop()
		if !ok {
			return t.collapseRoot(n)
		}
		parent, ci := s.node, s.child

		var left, right *base.Node
		var err error
		if ci > 0 {
			if left, err = t.pager.ReadNode(parent.Children[ci-1]); err != nil {
				return err
			}
			if layout.CanLend(left) {
				return t.borrowLeft(parent, ci, left, n)
			}
		}
		if ci < len(parent.Keys) {
			if right, err = t.pager.ReadNode(parent.Children[ci+1]); err != nil {
				return err
			}
			if layout.CanLend(right) {
				return t.borrowRight(parent, ci, n, right)
			}
		}

		if left != nil {
			err = t.merge(parent, ci-1, left, n)
		} else {
			err = t.merge(parent, ci, n, right)
		}
		if err != nil {
			return err
		}
		n = parent
	}
	return nil
}

// borrowLeft moves the last entry of left into n, the child at ci.
func (t *Tree) borrowLeft(parent *base.Node, ci int, left, n *base.Node) error {
	algo.BorrowFromLeft(n, left, parent, ci-1)
	return t.writeNodes(left, n, parent)
}

// borrowRight moves the first entry of right into n, the child at ci.
func (t *Tree) borrowRight(parent *base.Node, ci int, n, right *base.Node) error {
	algo.BorrowFromRight(n, right, parent, ci)
	return t.writeNodes(n, right, parent)
}

// merge folds from, the child at i+1 of parent, into its left neighbour.
// from is freed and its separator dropped from parent.
func (t *Tree) merge(parent *base.Node, i int, into, from *base.Node) error {
	var sep Key
	if !from.Leaf {
		// Pull down the smallest key of from's subtree
		var err error
		if sep, err = t.leftmostKey(from.Children[0]); err != nil {
			return err
		}
	}
	algo.MergeNodes(into, from, sep)

	if err := t.pager.WriteNode(into); err != nil {
		return err
	}
	if err := t.pager.Free(from.Addr); err != nil {
		return err
	}
	parent.RemoveInternalAt(i)
	return t.pager.WriteNode(parent)
}

// collapseRoot replaces an internal root that lost its last key with its
// only child.
func (t *Tree) collapseRoot(root *base.Node) error {
	if root.Leaf || len(root.Keys) > 0 {
		return nil
	}
	child := root.Children[0]
	t.pager.SetRoot(child)
	if err := t.pager.Free(root.Addr); err != nil {
		return err
	}
	t.log.Info("root collapsed", "path", t.path, "oldRoot", root.Addr, "root", child)
	return nil
}

// fixSeparators replaces any separator still equal to the removed key. Such
// a separator can only sit on the removed key's own search path, and below
// it that path runs down the leftmost spine of the separator's right
// subtree, so the leaf reached holds the replacement.
func (t *Tree) fixSeparators(removed Key) error {
	p, err := t.findPath(t.pager.Root(), removed)
	if err != nil {
		return err
	}
	s, ok := p.pop()
	if !ok || len(s.node.Keys) == 0 {
		return nil
	}
	smallest := s.node.Keys[0]

	for _, s := range p {
		if s.child > 0 && s.node.Keys[s.child-1] == removed {
			s.node.Keys[s.child-1] = smallest
			if err := t.pager.WriteNode(s.node); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tree) writeNodes(nodes ...*base.Node) error {
	for _, n := range nodes {
		if err := t.pager.WriteNode(n); err != nil {
			return err
		}
	}
	return nil
}
