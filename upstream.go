package arena

import "unsafe"

// Upstream supplies the raw memory blocks an Arena bumps into. It is only
// consulted on the refill path and by Purge, always under the arena lock.
type Upstream interface {
	// Allocate returns size bytes whose first byte is aligned to alignment,
	// or nil if the memory cannot be provided.
	Allocate(size, alignment uintptr) []byte

	// Deallocate returns a slice previously obtained from Allocate.
	Deallocate(buf []byte)
}

// UpstreamFuncs adapts a pair of functions and an opaque context to the
// Upstream interface.
type UpstreamFuncs struct {
	AllocateFunc   func(size, alignment uintptr, user any) []byte
	DeallocateFunc func(buf []byte, user any)
	User           any
}

// Allocate satisfies the Upstream interface.
func (u UpstreamFuncs) Allocate(size, alignment uintptr) []byte {
	if u.AllocateFunc == nil {
		return nil
	}
	return u.AllocateFunc(size, alignment, u.User)
}

// Deallocate satisfies the Upstream interface.
func (u UpstreamFuncs) Deallocate(buf []byte) {
	if u.DeallocateFunc != nil {
		u.DeallocateFunc(buf, u.User)
	}
}

// HeapUpstream allocates blocks from the Go heap. Deallocate drops the
// reference and leaves reclamation to the garbage collector.
type HeapUpstream struct{}

// Allocate satisfies the Upstream interface. It returns nil for a
// non power-of-two alignment, an alignment below pointer size, or a size
// the runtime refuses to allocate.
func (HeapUpstream) Allocate(size, alignment uintptr) (buf []byte) {
	if !isPow2(alignment) || alignment < ptrSize || alignment > maxBlockRequest || size == 0 || size > maxBlockRequest {
		return nil
	}
	defer func() {
		if recover() != nil {
			buf = nil
		}
	}()
	raw := make([]byte, size+alignment-1)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := alignUp(base, alignment) - base
	return raw[off : off+size : off+size]
}

// Deallocate satisfies the Upstream interface.
func (HeapUpstream) Deallocate([]byte) {}
