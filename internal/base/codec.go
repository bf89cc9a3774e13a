package base

import (
	"encoding/binary"
	"fmt"
)

const (
	CountSize   = 4
	KeySize     = 4
	AddressSize = 8

	// SlotSize is the number of record bytes each unit of order costs: one
	// key plus one child address.
	SlotSize = KeySize + AddressSize

	// MinBlockSize yields an order of 3, the smallest order a B+Tree can
	// split and merge with.
	MinBlockSize = 3 * SlotSize

	// MaxBlockSize keeps the block size representable in the header.
	MaxBlockSize = 1 << 30
)

// Layout describes how nodes are laid out in the file for one block size.
//
// Every node record is BlockSize bytes:
//
//	count    int32             negative for leaves, abs(count) keys
//	keys     [Order-1]int32
//	children [Order]int64      leaves keep the next leaf in the last slot
//
// followed by zero padding. All integers are big-endian.
type Layout struct {
	BlockSize int
	Order     int
}

// NewLayout derives the node layout for blockSize.
func NewLayout(blockSize int) (Layout, error) {
	if blockSize < MinBlockSize || blockSize > MaxBlockSize {
		return Layout{}, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}
	return Layout{BlockSize: blockSize, Order: blockSize / SlotSize}, nil
}

// MaxKeys is the most keys any node may hold.
func (l Layout) MaxKeys() int {
	return l.Order - 1
}

// MinKeys is the fewest keys a non-root node may hold: ceil(order/2)-1.
func (l Layout) MinKeys() int {
	return (l.Order+1)/2 - 1
}

// HasRoom reports whether n can take one more key without splitting.
func (l Layout) HasRoom(n *Node) bool {
	return len(n.Keys) < l.MaxKeys()
}

// IsTooSmall reports whether n is under its minimum occupancy. The root
// only underflows once it is empty.
func (l Layout) IsTooSmall(n *Node, isRoot bool) bool {
	if isRoot {
		return len(n.Keys) < 1
	}
	return len(n.Keys) < l.MinKeys()
}

// CanLend reports whether n keeps its minimum after giving one key away.
func (l Layout) CanLend(n *Node) bool {
	return len(n.Keys) > l.MinKeys()
}

func (l Layout) childrenOffset() int {
	return CountSize + KeySize*(l.Order-1)
}

// nextSlot is the child slot a leaf uses for its next-leaf pointer.
func (l Layout) nextSlot() int {
	return l.Order - 1
}

// RecordSize is the number of meaningful bytes at the front of a record.
func (l Layout) RecordSize() int {
	return l.childrenOffset() + AddressSize*l.Order
}

// Encode serializes n into a fresh BlockSize record.
func (l Layout) Encode(n *Node) ([]byte, error) {
	if len(n.Keys) > l.MaxKeys() {
		return nil, fmt.Errorf("%w: %d keys at %d, order %d",
			ErrNodeOverflow, len(n.Keys), n.Addr, l.Order)
	}
	want := len(n.Keys) + 1
	if n.Leaf {
		want = len(n.Keys)
	}
	if len(n.Children) != want {
		return nil, fmt.Errorf("%w: %d keys with %d children at %d",
			ErrNodeOverflow, len(n.Keys), len(n.Children), n.Addr)
	}

	buf := make([]byte, l.BlockSize)
	count := int32(len(n.Keys))
	if n.Leaf {
		count = -count
	}
	binary.BigEndian.PutUint32(buf, uint32(count))

	for i, k := range n.Keys {
		binary.BigEndian.PutUint32(buf[CountSize+KeySize*i:], uint32(k))
	}

	off := l.childrenOffset()
	for i, c := range n.Children {
		binary.BigEndian.PutUint64(buf[off+AddressSize*i:], uint64(c))
	}
	if n.Leaf {
		binary.BigEndian.PutUint64(buf[off+AddressSize*l.nextSlot():], uint64(n.Next))
	}
	return buf, nil
}

// Decode parses the record stored at addr.
func (l Layout) Decode(addr Address, buf []byte) (*Node, error) {
	if len(buf) < l.RecordSize() {
		return nil, fmt.Errorf("%w: %d bytes at %d, need %d",
			ErrShortRecord, len(buf), addr, l.RecordSize())
	}

	count := int32(binary.BigEndian.Uint32(buf))
	n := &Node{Addr: addr, Leaf: count < 0}
	numKeys := int(count)
	if n.Leaf {
		numKeys = -numKeys
	}
	if numKeys > l.MaxKeys() {
		return nil, fmt.Errorf("%w: count %d at %d, order %d",
			ErrCorruptRecord, count, addr, l.Order)
	}

	n.Keys = make([]Key, numKeys)
	for i := range n.Keys {
		n.Keys[i] = Key(binary.BigEndian.Uint32(buf[CountSize+KeySize*i:]))
	}

	numChildren := numKeys + 1
	if n.Leaf {
		numChildren = numKeys
	}
	off := l.childrenOffset()
	n.Children = make([]Address, numChildren)
	for i := range n.Children {
		n.Children[i] = Address(binary.BigEndian.Uint64(buf[off+AddressSize*i:]))
	}
	if n.Leaf {
		n.Next = Address(binary.BigEndian.Uint64(buf[off+AddressSize*l.nextSlot():]))
	}
	return n, nil
}

// FreeSlotOffset is the record offset of a freed node's next-free pointer.
// It shares child slot 0 with live nodes.
func (l Layout) FreeSlotOffset() int {
	return l.childrenOffset()
}

// EncodeFree builds the stub written over a freed node: count 0 and the
// next free address in child slot 0.
func (l Layout) EncodeFree(next Address) []byte {
	buf := make([]byte, l.BlockSize)
	binary.BigEndian.PutUint64(buf[l.FreeSlotOffset():], uint64(next))
	return buf
}

// DecodeFree reads the next free address out of a free stub.
func (l Layout) DecodeFree(buf []byte) (Address, error) {
	off := l.FreeSlotOffset()
	if len(buf) < off+AddressSize {
		return 0, fmt.Errorf("%w: free stub of %d bytes", ErrShortRecord, len(buf))
	}
	return Address(binary.BigEndian.Uint64(buf[off:])), nil
}
