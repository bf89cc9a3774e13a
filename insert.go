package blocktree

import (
	"github.com/alexhholmes/blocktree/internal/algo"
	"github.com/alexhholmes/blocktree/internal/base"
)

// Insert adds key with its row address. It returns false without touching
// the file if key is already present.
func (t *Tree) Insert(key Key, addr Address) (bool, error) {
	if err := t.begin("insert"); err != nil {
		return false, err
	}
	defer t.end()

	if addr <= 0 {
		return false, ErrInvalidAddress
	}

	if t.pager.Root() == 0 {
		root, err := t.pager.Malloc()
		if err != nil {
			return false, err
		}
		leaf := base.NewLeaf(root)
		leaf.InsertLeaf(key, addr)
		if err := t.pager.WriteNode(leaf); err != nil {
			return false, err
		}
		t.pager.SetRoot(root)
		return true, nil
	}

	p, err := t.findPath(t.pager.Root(), key)
	if err != nil {
		return false, err
	}
	s, _ := p.pop()
	leaf := s.node
	if leaf.Contains(key) {
		return false, nil
	}

	layout := t.pager.Layout()
	if layout.HasRoom(leaf) {
		leaf.InsertLeaf(key, addr)
		return true, t.pager.WriteNode(leaf)
	}

	sep, right, err := t.splitLeaf(leaf, key, addr)
	if err != nil {
		return false, err
	}

	// Push the split up until a parent has room
	for {
		s, ok := p.pop()
		if !ok {
			break
		}
		parent := s.node
		if layout.HasRoom(parent) {
			parent.InsertInternal(sep, right)
			return true, t.pager.WriteNode(parent)
		}
		if sep, right, err = t.splitInternal(parent, sep, right); err != nil {
			return false, err
		}
	}

	return true, t.growRoot(sep, right)
}

// splitLeaf inserts key into a full leaf and moves the upper half to a new
// right sibling. It returns the separator and the new sibling's address.
func (t *Tree) splitLeaf(leaf *base.Node, key Key, addr Address) (Key, Address, error) {
	leaf.InsertLeaf(key, addr)

	at, err := t.pager.Malloc()
	if err != nil {
		return 0, 0, err
	}
	right := algo.SplitLeaf(leaf, at)

	if err := t.writeNodes(leaf, right); err != nil {
		return 0, 0, err
	}
	return right.Keys[0], right.Addr, nil
}

// splitInternal inserts a separator into a full internal node and splits
// it, returning the promoted middle key and the new sibling's address.
func (t *Tree) splitInternal(n *base.Node, sep Key, child Address) (Key, Address, error) {
	n.InsertInternal(sep, child)

	at, err := t.pager.Malloc()
	if err != nil {
		return 0, 0, err
	}
	promoted, right := algo.SplitBranch(n, at)

	if err := t.writeNodes(n, right); err != nil {
		return 0, 0, err
	}
	return promoted, right.Addr, nil
}

// growRoot puts a new root with a single separator above the old root.
func (t *Tree) growRoot(sep Key, right Address) error {
	at, err := t.pager.Malloc()
	if err != nil {
		return err
	}
	old := t.pager.Root()
	if err := t.pager.WriteNode(algo.NewBranchRoot(old, right, sep, at)); err != nil {
		return err
	}
	t.pager.SetRoot(at)
	t.log.Info("root split", "path", t.path, "oldRoot", old, "root", at)
	return nil
}
