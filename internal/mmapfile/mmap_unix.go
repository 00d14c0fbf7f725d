//go:build unix

package mmapfile

import (
	"os"
	"syscall"
)

// mapFile memory-maps a file for reading (Unix implementation).
func mapFile(f *os.File, size int64) ([]byte, bool, error) {
	data, err := syscall.Mmap(
		int(f.Fd()), //nolint:gosec // G115: file descriptor fits in int
		0,
		int(size), //nolint:gosec // G115: file size validated by caller
		syscall.PROT_READ,
		syscall.MAP_SHARED,
	)
	return data, err == nil, err
}

// unmapFile unmaps a memory-mapped file (Unix implementation).
func unmapFile(data []byte) error {
	return syscall.Munmap(data)
}
