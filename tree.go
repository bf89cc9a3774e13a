// Package blocktree is an on-disk B+Tree mapping int32 keys to int64 file
// addresses. The whole tree lives in one file of fixed-size node records;
// every operation reads the nodes it needs from the file and writes back
// the ones it changes, so no index is held in memory between calls.
//
// A Tree is not safe for concurrent use.
package blocktree

import (
	"fmt"

	"github.com/alexhholmes/blocktree/internal/base"
	"github.com/alexhholmes/blocktree/internal/pager"
)

type (
	// Key is a tree key. Keys are unique.
	Key = base.Key

	// Address is a byte offset in the file that holds the indexed rows.
	// Zero is reserved as "not found".
	Address = base.Address
)

// Tree is an open B+Tree file
type Tree struct {
	pager   *pager.Pager
	options TreeOptions
	log     Logger
	path    string
	closed  bool
}

// Create creates a new, empty tree at path, replacing any existing file.
// The block size fixes the node record size and the order (blockSize/12)
// for the lifetime of the file.
func Create(path string, blockSize int, opts ...TreeOption) (*Tree, error) {
	options := DefaultTreeOptions()
	for _, opt := range opts {
		opt(&options)
	}

	p, err := pager.Create(path, blockSize, options.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	t := &Tree{pager: p, options: options, log: options.logger, path: path}
	t.log.Info("tree created", "path", path, "blockSize", blockSize, "order", t.Order())
	return t, nil
}

// Open opens an existing tree file. The block size is read from the file.
func Open(path string, opts ...TreeOption) (*Tree, error) {
	options := DefaultTreeOptions()
	for _, opt := range opts {
		opt(&options)
	}

	p, err := pager.Open(path, options.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	t := &Tree{pager: p, options: options, log: options.logger, path: path}
	t.log.Info("tree opened", "path", path, "blockSize", t.BlockSize(), "order", t.Order(), "root", p.Root())
	return t, nil
}

// Order is the maximum number of children of an internal node.
func (t *Tree) Order() int {
	return t.pager.Layout().Order
}

// BlockSize is the size of one node record.
func (t *Tree) BlockSize() int {
	return t.pager.Layout().BlockSize
}

// begin starts a public operation. Pair it with a deferred end.
func (t *Tree) begin(op string) error {
	if t.closed {
		t.log.Warn("operation on closed tree", "op", op, "path", t.path)
		return ErrTreeClosed
	}
	return nil
}

// end drops everything the operation cached.
func (t *Tree) end() {
	t.pager.EndOperation()
}

// Search returns the address stored for key, or 0 if key is absent.
func (t *Tree) Search(key Key) (Address, error) {
	if err := t.begin("search"); err != nil {
		return 0, err
	}
	defer t.end()

	p, err := t.findPath(t.pager.Root(), key)
	if err != nil {
		return 0, err
	}
	leaf, ok := p.top()
	if !ok {
		return 0, nil
	}
	if i := leaf.node.FindKey(key); i >= 0 {
		return leaf.node.Children[i], nil
	}
	return 0, nil
}

// RangeSearch returns the addresses of all keys in [low, high] in ascending
// key order. The result is empty when low > high.
func (t *Tree) RangeSearch(low, high Key) ([]Address, error) {
	addrs := make([]Address, 0)
	if low > high {
		return addrs, nil
	}

	c := t.Cursor()
	for ok := c.Seek(low); ok && c.Key() <= high; ok = c.Next() {
		addrs = append(addrs, c.Value())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return addrs, nil
}

// FreeList returns the addresses of the freed node records, most recently
// freed first.
func (t *Tree) FreeList() ([]Address, error) {
	if err := t.begin("freelist"); err != nil {
		return nil, err
	}
	defer t.end()

	return t.pager.FreeList()
}

// Fingerprint returns an xxhash digest of the whole file. Two equal
// fingerprints mean the file did not change.
func (t *Tree) Fingerprint() (uint64, error) {
	if err := t.begin("fingerprint"); err != nil {
		return 0, err
	}
	defer t.end()

	// Header changes only reach the file on flush
	if err := t.pager.Flush(); err != nil {
		return 0, err
	}
	return t.pager.Fingerprint()
}

// Stats holds file I/O and cache statistics
type Stats struct {
	Reads        uint64 // Record and header reads
	Writes       uint64 // Record and header writes
	BytesRead    uint64
	BytesWritten uint64
	FileSize     int64

	CacheHits      uint64
	CacheMisses    uint64
	CacheEvictions uint64
}

// Stats returns file I/O and cache statistics since the tree was opened
func (t *Tree) Stats() Stats {
	s := t.pager.Stats()
	return Stats{
		Reads:          s.Storage.Reads,
		Writes:         s.Storage.Writes,
		BytesRead:      s.Storage.Read,
		BytesWritten:   s.Storage.Written,
		FileSize:       s.Size,
		CacheHits:      s.Cache.Hits,
		CacheMisses:    s.Cache.Misses,
		CacheEvictions: s.Cache.Evictions,
	}
}

// Close writes the root and free list head to the header, syncs according
// to the sync mode, and closes the file.
func (t *Tree) Close() error {
	if err := t.begin("close"); err != nil {
		return err
	}
	t.closed = true

	if err := t.pager.Close(t.options.syncMode == SyncOnClose); err != nil {
		t.log.Error("failed to close tree", "path", t.path, "error", err)
		return err
	}
	t.log.Info("tree closed", "path", t.path)
	return nil
}
