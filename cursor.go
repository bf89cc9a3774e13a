package blocktree

import (
	"iter"
	"sort"

	"github.com/alexhholmes/blocktree/internal/base"
)

// Cursor provides ordered iteration over the tree's keys by walking the
// leaf chain. It holds only the current leaf. Mutating the tree invalidates
// every cursor; position a cursor again with Seek or First afterwards.
type Cursor struct {
	tree  *Tree
	leaf  *base.Node // Current leaf, nil when not positioned
	index int        // Current key within leaf
	err   error
}

// Cursor returns an unpositioned cursor over t
func (t *Tree) Cursor() *Cursor {
	return &Cursor{tree: t}
}

// First positions the cursor at the smallest key
func (c *Cursor) First() (Key, Address) {
	c.reset()
	if err := c.tree.begin("cursor"); err != nil {
		c.err = err
		return 0, 0
	}
	defer c.tree.end()

	addr := c.tree.pager.Root()
	for addr != 0 {
		n, err := c.tree.pager.ReadNode(addr)
		if err != nil {
			c.err = err
			return 0, 0
		}
		if n.Leaf {
			c.leaf = n
			break
		}
		addr = n.Children[0]
	}
	if !c.settle() {
		return 0, 0
	}
	return c.Key(), c.Value()
}

// Seek positions the cursor at the first key >= key. It returns false when
// no such key exists or an error occurred (see Err).
func (c *Cursor) Seek(key Key) bool {
	c.reset()
	if err := c.tree.begin("cursor"); err != nil {
		c.err = err
		return false
	}
	defer c.tree.end()

	p, err := c.tree.findPath(c.tree.pager.Root(), key)
	if err != nil {
		c.err = err
		return false
	}
	s, ok := p.top()
	if !ok {
		return false
	}
	c.leaf = s.node
	c.index = sort.Search(len(c.leaf.Keys), func(i int) bool { return c.leaf.Keys[i] >= key })
	return c.settle()
}

// Next advances to the next key. It returns false at the end of the tree or
// on error (see Err).
func (c *Cursor) Next() bool {
	if !c.Valid() {
		return false
	}
	if err := c.tree.begin("cursor"); err != nil {
		c.reset()
		c.err = err
		return false
	}
	defer c.tree.end()

	c.index++
	return c.settle()
}

// settle moves past exhausted leaves along the chain.
func (c *Cursor) settle() bool {
	for c.leaf != nil && c.index >= len(c.leaf.Keys) {
		next := c.leaf.Next
		if next == 0 {
			c.leaf = nil
			return false
		}
		n, err := c.tree.pager.ReadNode(next)
		if err != nil {
			c.leaf = nil
			c.err = err
			return false
		}
		c.leaf, c.index = n, 0
	}
	return c.leaf != nil
}

func (c *Cursor) reset() {
	c.leaf, c.index, c.err = nil, 0, nil
}

// Valid reports whether the cursor is positioned on a key
func (c *Cursor) Valid() bool {
	return c.leaf != nil && c.index < len(c.leaf.Keys)
}

// Key returns the current key, or 0 if the cursor is not valid
func (c *Cursor) Key() Key {
	if !c.Valid() {
		return 0
	}
	return c.leaf.Keys[c.index]
}

// Value returns the current address, or 0 if the cursor is not valid
func (c *Cursor) Value() Address {
	if !c.Valid() {
		return 0
	}
	return c.leaf.Children[c.index]
}

// Err returns the error that stopped the cursor, if any
func (c *Cursor) Err() error {
	return c.err
}

// All returns an iterator over the keys in [low, high] and their addresses
// in ascending key order. Iteration stops early on error; use a Cursor or
// RangeSearch to observe it.
func (t *Tree) All(low, high Key) iter.Seq2[Key, Address] {
	return func(yield func(Key, Address) bool) {
		if low > high {
			return
		}
		c := t.Cursor()
		for ok := c.Seek(low); ok && c.Key() <= high; ok = c.Next() {
			if !yield(c.Key(), c.Value()) {
				return
			}
		}
	}
}
