package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/alexhholmes/blocktree/internal/base"
)

// Storage implements positioned record I/O over a single file
type Storage struct {
	file *os.File
	size int64 // logical end of file, includes reserved but unwritten records

	// Stats counters
	reads   atomic.Uint64
	writes  atomic.Uint64
	read    atomic.Uint64
	written atomic.Uint64
}

// Create creates an empty file at path, removing whatever was there
func Create(path string) (*Storage, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, err
	}
	return &Storage{file: file}, nil
}

// Open opens an existing file at path
func Open(path string) (*Storage, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Storage{file: file, size: info.Size()}, nil
}

// ReadAt fills buf from offset off
func (s *Storage) ReadAt(off base.Address, buf []byte) error {
	s.reads.Add(1)
	n, err := s.file.ReadAt(buf, int64(off))
	s.read.Add(uint64(n))
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("short read at %d: got %d bytes, expected %d: %w", off, n, len(buf), err)
}

// WriteAt writes buf at offset off
func (s *Storage) WriteAt(off base.Address, buf []byte) error {
	s.writes.Add(1)
	n, err := s.file.WriteAt(buf, int64(off))
	defer s.written.Add(uint64(n))
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("short write at %d: wrote %d bytes, expected %d", off, n, len(buf))
	}
	if end := int64(off) + int64(n); end > s.size {
		s.size = end
	}
	return nil
}

// Size returns the logical end of the file
func (s *Storage) Size() int64 {
	return s.size
}

// Reserve claims n bytes at the end of the file and returns their offset.
// The bytes exist on disk only once they are written.
func (s *Storage) Reserve(n int) base.Address {
	off := s.size
	s.size += int64(n)
	return base.Address(off)
}

// Sync flushes file data to disk
func (s *Storage) Sync() error {
	return datasync(s.file)
}

// Digest returns the xxhash of the file's current contents
func (s *Storage) Digest() (uint64, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, err
	}
	h := xxhash.New()
	if _, err := io.Copy(h, io.NewSectionReader(s.file, 0, info.Size())); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// Close closes the file
func (s *Storage) Close() error {
	return s.file.Close()
}

// Stats holds I/O statistics
type Stats struct {
	Reads   uint64
	Writes  uint64
	Read    uint64
	Written uint64
}

// Stats returns I/O statistics
func (s *Storage) Stats() Stats {
	return Stats{
		Reads:   s.reads.Load(),
		Writes:  s.writes.Load(),
		Read:    s.read.Load(),
		Written: s.written.Load(),
	}
}
