package pager

import (
	"errors"
	"fmt"

	"github.com/alexhholmes/blocktree/internal/base"
	"github.com/alexhholmes/blocktree/internal/cache"
	"github.com/alexhholmes/blocktree/internal/storage"
)

// Pager coordinates the file, the header and the per-operation record cache
type Pager struct {
	store  *storage.Storage // File I/O backend
	cache  *cache.Cache     // Records read during the current operation
	layout base.Layout
	header base.Header // In-memory copy, persisted by Flush
}

// Create creates a new tree file at path with an empty root and free list
func Create(path string, blockSize, cacheSize int) (*Pager, error) {
	layout, err := base.NewLayout(blockSize)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cacheSize)
	if err != nil {
		return nil, err
	}
	store, err := storage.Create(path)
	if err != nil {
		return nil, err
	}

	p := &Pager{
		store:  store,
		cache:  c,
		layout: layout,
		header: base.Header{BlockSize: int32(blockSize)},
	}
	if err := p.Flush(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return p, nil
}

// Open opens an existing tree file and loads its header
func Open(path string, cacheSize int) (*Pager, error) {
	c, err := cache.New(cacheSize)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, err
	}

	p, err := load(store, c)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return p, nil
}

func load(store *storage.Storage, c *cache.Cache) (*Pager, error) {
	buf := make([]byte, base.HeaderSize)
	if err := store.ReadAt(0, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", base.ErrInvalidHeader, err)
	}
	header, err := base.DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	layout, err := base.NewLayout(int(header.BlockSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", base.ErrInvalidHeader, err)
	}
	return &Pager{
		store:  store,
		cache:  c,
		layout: layout,
		header: header,
	}, nil
}

// Layout returns the node layout of the file
func (p *Pager) Layout() base.Layout {
	return p.layout
}

// Root returns the root address, 0 for an empty tree
func (p *Pager) Root() base.Address {
	return p.header.Root
}

// SetRoot records a new root. It reaches disk with the next Flush.
func (p *Pager) SetRoot(addr base.Address) {
	p.header.Root = addr
}

// ReadNode reads and decodes the node at addr
func (p *Pager) ReadNode(addr base.Address) (*base.Node, error) {
	rec, err := p.readRecord(addr)
	if err != nil {
		return nil, err
	}
	return p.layout.Decode(addr, rec)
}

// WriteNode encodes n and writes it at n.Addr
func (p *Pager) WriteNode(n *base.Node) error {
	rec, err := p.layout.Encode(n)
	if err != nil {
		return err
	}
	return p.writeRecord(n.Addr, rec)
}

func (p *Pager) readRecord(addr base.Address) ([]byte, error) {
	if err := p.checkAddress(addr); err != nil {
		return nil, err
	}
	if rec, ok := p.cache.Get(addr); ok {
		return rec, nil
	}
	rec := make([]byte, p.layout.BlockSize)
	if err := p.store.ReadAt(addr, rec); err != nil {
		return nil, err
	}
	p.cache.Put(addr, rec)
	return rec, nil
}

func (p *Pager) writeRecord(addr base.Address, rec []byte) error {
	if err := p.checkAddress(addr); err != nil {
		return err
	}
	if err := p.store.WriteAt(addr, rec); err != nil {
		// The record on disk is unknown now
		p.cache.Delete(addr)
		return err
	}
	p.cache.Put(addr, rec)
	return nil
}

// checkAddress rejects addresses that cannot start a record
func (p *Pager) checkAddress(addr base.Address) error {
	if addr < base.HeaderSize || int64(addr)+int64(p.layout.BlockSize) > p.store.Size() {
		return fmt.Errorf("%w: record address %d outside file of %d bytes",
			base.ErrCorruptRecord, addr, p.store.Size())
	}
	return nil
}

// EndOperation drops every record read during the current operation
func (p *Pager) EndOperation() {
	p.cache.Purge()
}

// Flush writes the header
func (p *Pager) Flush() error {
	return p.store.WriteAt(0, p.header.Encode())
}

// Close flushes the header, optionally syncs file data, and closes the file
func (p *Pager) Close(sync bool) error {
	p.cache.Purge()
	err := p.Flush()
	if err == nil && sync {
		err = p.store.Sync()
	}
	return errors.Join(err, p.store.Close())
}

// Fingerprint returns a digest of the whole file
func (p *Pager) Fingerprint() (uint64, error) {
	return p.store.Digest()
}

// Stats holds pager statistics
type Stats struct {
	Storage storage.Stats
	Cache   cache.Stats
	Size    int64
}

// Stats returns I/O and cache statistics
func (p *Pager) Stats() Stats {
	return Stats{
		Storage: p.store.Stats(),
		Cache:   p.cache.Stats(),
		Size:    p.store.Size(),
	}
}
