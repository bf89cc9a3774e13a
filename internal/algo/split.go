// Package algo contains algorithms used for editing b+ tree nodes in memory.
// None of them touch the file; callers allocate addresses and write back the
// nodes they change.
package algo

import (
	"slices"

	"github.com/alexhholmes/blocktree/internal/base"
)

// SplitLeaf moves the upper half of an overflowed leaf into a new leaf at
// rightAddr. The left leaf keeps floor(n/2) keys. The new leaf takes over the
// old next pointer and the old leaf links to it. The separator for the
// parent is right.Keys[0].
func SplitLeaf(leaf *base.Node, rightAddr base.Address) *base.Node {
	mid := len(leaf.Keys) / 2
	right := &base.Node{
		Addr:     rightAddr,
		Leaf:     true,
		Keys:     slices.Clone(leaf.Keys[mid:]),
		Children: slices.Clone(leaf.Children[mid:]),
		Next:     leaf.Next,
	}
	leaf.Keys = leaf.Keys[:mid]
	leaf.Children = leaf.Children[:mid]
	leaf.Next = rightAddr
	return right
}

// SplitBranch splits an overflowed branch at its middle key. Keys right of
// the middle move to a new branch at rightAddr and the middle key is
// returned for promotion.
func SplitBranch(n *base.Node, rightAddr base.Address) (base.Key, *base.Node) {
	mid := len(n.Keys) / 2
	promoted := n.Keys[mid]
	right := &base.Node{
		Addr:     rightAddr,
		Keys:     slices.Clone(n.Keys[mid+1:]),
		Children: slices.Clone(n.Children[mid+1:]),
	}
	n.Keys = n.Keys[:mid]
	n.Children = n.Children[:mid+1]
	return promoted, right
}

// NewBranchRoot creates a new branch root node from two children after split
func NewBranchRoot(left, right base.Address, sep base.Key, addr base.Address) *base.Node {
	return &base.Node{
		Addr:     addr,
		Keys:     []base.Key{sep},
		Children: []base.Address{left, right},
	}
}
