package algo

import (
	"slices"

	"github.com/alexhholmes/blocktree/internal/base"
)

// BorrowFromLeft moves last element from left sibling to beginning of node.
// parentKeyIdx is the separator between them.
func BorrowFromLeft(node, leftSibling, parent *base.Node, parentKeyIdx int) {
	last := len(leftSibling.Keys) - 1
	if node.Leaf {
		node.Keys = slices.Insert(node.Keys, 0, leftSibling.Keys[last])
		node.Children = slices.Insert(node.Children, 0, leftSibling.Children[last])
		leftSibling.Keys = leftSibling.Keys[:last]
		leftSibling.Children = leftSibling.Children[:last]

		// Update parent separator to be the first key of node
		parent.Keys[parentKeyIdx] = node.Keys[0]
		return
	}

	// Branch borrow: rotate through the parent
	node.Keys = slices.Insert(node.Keys, 0, parent.Keys[parentKeyIdx])
	node.Children = slices.Insert(node.Children, 0, leftSibling.Children[last+1])
	parent.Keys[parentKeyIdx] = leftSibling.Keys[last]
	leftSibling.Keys = leftSibling.Keys[:last]
	leftSibling.Children = leftSibling.Children[:last+1]
}

// BorrowFromRight moves first element from right sibling to end of node.
// parentKeyIdx is the separator between them.
func BorrowFromRight(node, rightSibling, parent *base.Node, parentKeyIdx int) {
	if node.Leaf {
		node.Keys = append(node.Keys, rightSibling.Keys[0])
		node.Children = append(node.Children, rightSibling.Children[0])
		rightSibling.Keys = slices.Delete(rightSibling.Keys, 0, 1)
		rightSibling.Children = slices.Delete(rightSibling.Children, 0, 1)

		// Update parent separator to be the first key of right sibling
		parent.Keys[parentKeyIdx] = rightSibling.Keys[0]
		return
	}

	// Branch borrow: rotate through the parent
	node.Keys = append(node.Keys, parent.Keys[parentKeyIdx])
	node.Children = append(node.Children, rightSibling.Children[0])
	parent.Keys[parentKeyIdx] = rightSibling.Keys[0]
	rightSibling.Keys = slices.Delete(rightSibling.Keys, 0, 1)
	rightSibling.Children = slices.Delete(rightSibling.Children, 0, 1)
}

// MergeNodes combines right node into left node. Branches pull down
// separatorKey, which must be the smallest key under right. Leaves relink
// the chain past right. Does NOT update parent: the caller removes the
// separator with RemoveInternalAt and frees right.
func MergeNodes(leftNode, rightNode *base.Node, separatorKey base.Key) {
	if leftNode.Leaf {
		leftNode.Next = rightNode.Next
	} else {
		leftNode.Keys = append(leftNode.Keys, separatorKey)
	}
	leftNode.Keys = append(leftNode.Keys, rightNode.Keys...)
	leftNode.Children = append(leftNode.Children, rightNode.Children...)
}
