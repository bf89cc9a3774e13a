package base

import (
	"slices"
	"sort"
)

// Key is a tree key. Keys are unique across the whole tree.
type Key int32

// Address is a byte offset into the tree file. Zero means "none": an empty
// root, the end of the leaf chain, the end of the free list, or not found.
type Address int64

// Node is a decoded tree node.
//
// Leaf nodes hold one value address per key in Children and the address of
// the next leaf in Next. Internal nodes hold len(Keys)+1 child addresses and
// Next is unused.
type Node struct {
	Addr Address // where the node lives, not persisted
	Leaf bool

	Keys     []Key
	Children []Address
	Next     Address
}

// NewLeaf returns an empty leaf at addr.
func NewLeaf(addr Address) *Node {
	return &Node{Addr: addr, Leaf: true}
}

// NumKeys returns the number of keys held by the node.
func (n *Node) NumKeys() int {
	return len(n.Keys)
}

// FindKey returns the index of key, or -1 when the node does not hold it.
func (n *Node) FindKey(key Key) int {
	i := sort.Search(len(n.Keys), func(i int) bool { return n.Keys[i] >= key })
	if i < len(n.Keys) && n.Keys[i] == key {
		return i
	}
	return -1
}

// Contains reports whether key is one of the node's keys.
func (n *Node) Contains(key Key) bool {
	return n.FindKey(key) >= 0
}

// ChildIndex returns the child to descend into for key: the first i with
// key < Keys[i], else the rightmost child.
func (n *Node) ChildIndex(key Key) int {
	return sort.Search(len(n.Keys), func(i int) bool { return key < n.Keys[i] })
}

// InsertLeaf places key and its value address in sorted position.
func (n *Node) InsertLeaf(key Key, value Address) {
	i := n.ChildIndex(key)
	n.Keys = slices.Insert(n.Keys, i, key)
	n.Children = slices.Insert(n.Children, i, value)
}

// InsertInternal places a separator key with the child to its right.
func (n *Node) InsertInternal(key Key, right Address) {
	i := n.ChildIndex(key)
	n.Keys = slices.Insert(n.Keys, i, key)
	n.Children = slices.Insert(n.Children, i+1, right)
}

// RemoveLeafAt drops the pair at i and returns its value address.
func (n *Node) RemoveLeafAt(i int) Address {
	value := n.Children[i]
	n.Keys = slices.Delete(n.Keys, i, i+1)
	n.Children = slices.Delete(n.Children, i, i+1)
	return value
}

// RemoveInternalAt drops separator i together with the child to its right.
func (n *Node) RemoveInternalAt(i int) {
	n.Keys = slices.Delete(n.Keys, i, i+1)
	n.Children = slices.Delete(n.Children, i+1, i+2)
}
