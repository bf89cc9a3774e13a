package base

import "errors"

var (
	ErrInvalidBlockSize = errors.New("invalid block size")
	ErrInvalidHeader    = errors.New("invalid tree header")
	ErrShortRecord      = errors.New("short node record")
	ErrCorruptRecord    = errors.New("corrupt node record")
	ErrNodeOverflow     = errors.New("node overflow")
)
