//go:build windows

package mmapfile

import (
	"os"
	"syscall"
	"unsafe"
)

// mapFile memory-maps a file for reading (Windows implementation).
func mapFile(f *os.File, size int64) ([]byte, bool, error) {
	handle, err := syscall.CreateFileMapping(
		syscall.Handle(f.Fd()),
		nil,
		syscall.PAGE_READONLY,
		uint32(size>>32), //nolint:gosec // G115: high half of the size
		uint32(size),     //nolint:gosec // G115: low half of the size
		nil,
	)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = syscall.CloseHandle(handle) // The view keeps the mapping alive.
	}()

	addr, err := syscall.MapViewOfFile(handle, syscall.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, false, err
	}

	//nolint:gosec // G103: addr is a valid read-only view of exactly size bytes.
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size)), true, nil
}

// unmapFile unmaps a memory-mapped file (Windows implementation).
func unmapFile(data []byte) error {
	//nolint:gosec // G103: data starts at the address returned by MapViewOfFile.
	return syscall.UnmapViewOfFile(uintptr(unsafe.Pointer(unsafe.SliceData(data))))
}
