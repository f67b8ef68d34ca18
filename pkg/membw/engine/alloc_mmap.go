//go:build linux || darwin

package engine

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapAllocator maps private anonymous memory for each buffer and unmaps it
// on Free, so a tier's memory is returned to the OS before the next tier
// starts instead of waiting for the garbage collector.
type MmapAllocator struct{}

// DefaultAllocator returns the allocator used when none is configured.
func DefaultAllocator() Allocator {
	return MmapAllocator{}
}

// Alloc maps n bytes of read/write anonymous memory.
func (MmapAllocator) Alloc(n int) ([]byte, error) {
	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrAllocation, n, err)
	}
	return buf, nil
}

// Free unmaps a buffer returned by Alloc.
func (MmapAllocator) Free(buf []byte) error {
	if err := unix.Munmap(buf); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

var _ Allocator = MmapAllocator{}
