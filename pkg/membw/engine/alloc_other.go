//go:build !linux && !darwin

package engine

// DefaultAllocator returns the allocator used when none is configured.
func DefaultAllocator() Allocator {
	return HeapAllocator{}
}
