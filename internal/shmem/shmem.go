// Package shmem allocates sealed in-memory file regions used to hand
// read-only state to forked worker processes.
package shmem

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Region wraps a sealed memfd. The descriptor can be inherited by child
// processes; once sealed the contents can no longer change, so readers need
// no synchronization.
type Region struct {
	file *os.File
	size int
}

// Create allocates a memfd holding data and seals it against any further
// resize or write.
func Create(name string, data []byte) (*Region, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("memfd_create %s: %w", name, err)
	}
	file := os.NewFile(uintptr(fd), name)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return nil, fmt.Errorf("write region %s: %w", name, err)
	}

	seals := unix.F_SEAL_SHRINK | unix.F_SEAL_GROW | unix.F_SEAL_WRITE | unix.F_SEAL_SEAL
	if _, err := unix.FcntlInt(file.Fd(), unix.F_ADD_SEALS, seals); err != nil {
		file.Close()
		return nil, fmt.Errorf("seal region %s: %w", name, err)
	}

	return &Region{file: file, size: len(data)}, nil
}

// File exposes the underlying descriptor for inheritance by child processes.
func (r *Region) File() *os.File {
	return r.file
}

// Size returns the number of bytes stored in the region.
func (r *Region) Size() int {
	return r.size
}

// Close releases the region descriptor. Children holding inherited
// descriptors keep the memory alive.
func (r *Region) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadInherited reads the full contents of a region inherited on the given
// descriptor number. It reopens the descriptor through /proc so the read uses
// an independent file offset.
func ReadInherited(fd uintptr) ([]byte, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/self/fd/%d", fd))
	if err != nil {
		return nil, fmt.Errorf("read inherited region: %w", err)
	}
	return data, nil
}
