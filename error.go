package blocktree

import (
	"errors"

	"github.com/alexhholmes/blocktree/internal/base"
)

var (
	ErrTreeClosed     = errors.New("tree is closed")
	ErrInvalidAddress = errors.New("address must be positive")
	ErrCorruption     = errors.New("tree corruption detected")

	ErrInvalidBlockSize = base.ErrInvalidBlockSize
	ErrInvalidHeader    = base.ErrInvalidHeader
	ErrShortRecord      = base.ErrShortRecord
	ErrCorruptRecord    = base.ErrCorruptRecord
	ErrNodeOverflow     = base.ErrNodeOverflow
)
