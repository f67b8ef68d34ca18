package engine

import (
	"fmt"
)

// Allocator provides the copy buffers. Every buffer returned by Alloc is
// passed to Free exactly once.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(buf []byte) error
}

// HeapAllocator allocates buffers on the Go heap. Free is a no-op; the
// garbage collector reclaims the buffer once the engine drops it.
type HeapAllocator struct{}

// Alloc returns a zeroed n-byte slice. A size the runtime refuses is
// reported as ErrAllocation instead of a panic.
func (HeapAllocator) Alloc(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: %d bytes: %v", ErrAllocation, n, r)
		}
	}()
	return make([]byte, n), nil
}

// Free is a no-op for heap buffers.
func (HeapAllocator) Free([]byte) error {
	return nil
}

var _ Allocator = HeapAllocator{}
