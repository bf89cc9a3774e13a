package base

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the header at offset 0. The first node record
// starts right after it.
const HeaderSize = 20

// Header is the tree's persistent root state.
type Header struct {
	Root      Address // 0 when the tree is empty
	Free      Address // head of the free list, 0 when empty
	BlockSize int32
}

// Encode serializes the header: root, free head and block size, big-endian.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint64(buf[0:], uint64(h.Root))
	binary.BigEndian.PutUint64(buf[8:], uint64(h.Free))
	binary.BigEndian.PutUint32(buf[16:], uint32(h.BlockSize))
	return buf
}

// DecodeHeader parses a header and validates its block size.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(buf))
	}
	h := Header{
		Root:      Address(binary.BigEndian.Uint64(buf[0:])),
		Free:      Address(binary.BigEndian.Uint64(buf[8:])),
		BlockSize: int32(binary.BigEndian.Uint32(buf[16:])),
	}
	if h.BlockSize < MinBlockSize {
		return Header{}, fmt.Errorf("%w: block size %d", ErrInvalidHeader, h.BlockSize)
	}
	if h.Root < 0 || h.Free < 0 {
		return Header{}, fmt.Errorf("%w: root %d free %d", ErrInvalidHeader, h.Root, h.Free)
	}
	return h, nil
}
