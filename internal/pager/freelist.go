package pager

import (
	"fmt"

	"github.com/alexhholmes/blocktree/internal/base"
)

// The free list is intrusive: the header holds the head and every freed
// record stores the next free address in its child slot 0.

// Malloc returns the address for a new node: the head of the free list if
// there is one, the end of the file otherwise. Reserving the tail keeps two
// mallocs without an intervening write from colliding.
func (p *Pager) Malloc() (base.Address, error) {
	head := p.header.Free
	if head == 0 {
		return p.store.Reserve(p.layout.BlockSize), nil
	}

	rec, err := p.readRecord(head)
	if err != nil {
		return 0, err
	}
	next, err := p.layout.DecodeFree(rec)
	if err != nil {
		return 0, err
	}
	p.header.Free = next
	return head, nil
}

// Free pushes addr onto the free list
func (p *Pager) Free(addr base.Address) error {
	if err := p.writeRecord(addr, p.layout.EncodeFree(p.header.Free)); err != nil {
		return err
	}
	p.header.Free = addr
	return nil
}

// FreeList walks the free list from its head
func (p *Pager) FreeList() ([]base.Address, error) {
	var list []base.Address
	seen := make(map[base.Address]struct{})
	for addr := p.header.Free; addr != 0; {
		if _, ok := seen[addr]; ok {
			return list, fmt.Errorf("%w: free list cycles at %d", base.ErrCorruptRecord, addr)
		}
		seen[addr] = struct{}{}
		list = append(list, addr)

		rec, err := p.readRecord(addr)
		if err != nil {
			return list, err
		}
		if addr, err = p.layout.DecodeFree(rec); err != nil {
			return list, err
		}
	}
	return list, nil
}
