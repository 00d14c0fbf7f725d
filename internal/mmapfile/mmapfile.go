// Package mmapfile maps model files read-only into memory.
//
// Model specs and ONNX graphs are decoded in place: the protobuf walkers
// copy only the strings they keep, so a multi-gigabyte file costs page
// cache rather than heap.
package mmapfile

import (
	"fmt"
	"os"
)

// File is a read-only mapping of a whole file.
type File struct {
	file   *os.File
	data   []byte
	mapped bool
	closed bool
}

// Open maps the file at path. Always call Close when done (use defer).
func Open(path string) (*File, error) {
	//nolint:gosec // G304: Model path is provided by user.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	f := &File{file: file}
	if stat.Size() == 0 {
		return f, nil // zero-length mappings are rejected by the OS
	}

	data, mapped, err := mapFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	f.data = data
	f.mapped = mapped
	return f, nil
}

// Data returns the file contents. The slice is invalid after Close.
func (f *File) Data() []byte {
	return f.data
}

// Len returns the file size in bytes.
func (f *File) Len() int {
	return len(f.data)
}

// Close unmaps and closes the file.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if f.mapped {
		err = unmapFile(f.data)
	}
	f.data = nil

	if closeErr := f.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// ReadFile maps path, hands the contents to fn and unmaps. fn must not
// retain the slice.
func ReadFile[T any](path string, fn func([]byte) (T, error)) (T, error) {
	f, err := Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := fn(f.Data())
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return v, err
}
