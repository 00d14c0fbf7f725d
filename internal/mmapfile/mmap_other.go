//go:build !unix && !windows

package mmapfile

import (
	"io"
	"os"
)

// mapFile reads the file into memory where mmap is unavailable.
func mapFile(f *os.File, size int64) ([]byte, bool, error) {
	data := make([]byte, size)
	_, err := io.ReadFull(f, data)
	return data, false, err
}

func unmapFile([]byte) error { return nil }
