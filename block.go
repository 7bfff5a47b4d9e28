package arena

import (
	"sync/atomic"
	"unsafe"
)

// Lease states of a block. Any other value is the ID of the lane holding it.
const (
	leaseFree  uint64 = 0          // parked: no lane holds it, any lane may adopt it
	leaseSpare uint64 = ^uint64(0) // rewound and waiting on the spare list
)

// block is one contiguous upstream allocation with its own bump cursor and
// cleanup list. Only the lane holding the lease bumps it; the cursor is
// atomic so that metrics can read it while lanes allocate.
type block struct {
	buf      []byte         // backing memory, [begin, end)
	cursor   atomic.Uintptr // next free offset within buf
	lease    atomic.Uint64  // leaseFree, leaseSpare or the holder's lane ID
	size     uintptr        // bytes requested from the upstream
	next     *block         // arena block list
	cleanups *cleanup       // LIFO, run before rewind or release
}

// blockHeaderSize is the bookkeeping cost charged to every block when sizing
// upstream requests.
const blockHeaderSize = unsafe.Sizeof(block{})

func newBlock(buf []byte, size uintptr) *block {
	return &block{buf: buf, size: size}
}

func (b *block) begin() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b.buf)))
}

func (b *block) capacity() uintptr {
	return uintptr(len(b.buf))
}

// used returns the number of bytes consumed, alignment padding included.
func (b *block) used() uintptr {
	return b.cursor.Load()
}

// fits reports whether a fresh bump of n bytes at align would succeed.
func (b *block) fits(n, align uintptr) bool {
	base := b.begin()
	off := alignUp(base+b.cursor.Load(), align) - base
	return off <= b.capacity() && n <= b.capacity()-off
}

// tryBump carves n bytes at align out of the block. It never allocates; a
// false result means the caller must refill. For n == 0 the cursor is only
// aligned and the returned pointer is nil.
func (b *block) tryBump(n, align uintptr) (unsafe.Pointer, bool) {
	base := b.begin()
	off := alignUp(base+b.cursor.Load(), align) - base
	if off > b.capacity() || n > b.capacity()-off {
		return nil, false
	}
	b.cursor.Store(off + n)
	if n == 0 {
		return nil, true
	}
	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(b.buf)), off), true
}

// rewind makes the whole block available again. Callbacks must already have
// been run.
func (b *block) rewind() {
	b.cursor.Store(0)
	b.cleanups = nil
	b.lease.Store(leaseSpare)
}

// contains reports whether [p, p+n) lies inside the block.
func (b *block) contains(p unsafe.Pointer, n uintptr) bool {
	addr := uintptr(p)
	return addr >= b.begin() && addr-b.begin() <= b.capacity() && n <= b.capacity()-(addr-b.begin())
}
