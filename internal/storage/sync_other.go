//go:build !linux

package storage

import "os"

// On platforms without fdatasync, fall back to a full fsync
func datasync(f *os.File) error {
	return f.Sync()
}
