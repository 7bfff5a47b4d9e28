package arena

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

var nextArenaID atomic.Uint64

// Arena is a bump allocator safe for concurrent use. Allocation takes no
// lock unless the calling lane's block is exhausted.
type Arena struct {
	id       uint64
	opts     Options
	state    epochState
	gen      atomic.Uint64 // bumped by every Reset and Purge
	reserved atomic.Uintptr
	lanes    sync.Pool

	resetMu sync.Mutex // serializes Reset, Purge and ResetSafely

	mu       sync.Mutex
	head     *block   // newest first
	spare    []*block // rewound blocks not yet handed to a lane, oldest first
	nblocks  int
	detached *cleanup
}

// New creates an empty Arena. No memory is reserved until the first
// allocation.
func New(opts Options) *Arena {
	a := &Arena{
		id:   nextArenaID.Add(1),
		opts: opts.normalize(),
	}
	a.lanes.New = func() any { return NewLane() }
	return a
}

// NewArena creates an Arena whose blocks start at initialBlockBytes.
// If initialBlockBytes <= 0, DefaultInitialBlockBytes is used.
func NewArena(initialBlockBytes int) *Arena {
	opts := DefaultOptions()
	if initialBlockBytes > 0 {
		opts.InitialBlockBytes = uintptr(initialBlockBytes)
	}
	return New(opts)
}

// ID returns the arena's identity, unique within the process.
func (a *Arena) ID() uint64 { return a.id }

// Options returns the normalized options the arena was built with.
func (a *Arena) Options() Options { return a.opts }

// Allocate returns size bytes aligned to at least alignment, or nil when the
// upstream cannot supply a block. alignment is raised to the arena minimum
// and must be a power of two. A zero size is served as one byte.
//
// The memory is not zeroed and stays valid until the next Reset or Purge.
func (a *Arena) Allocate(size, alignment uintptr) unsafe.Pointer {
	l := a.acquire()
	p := a.allocate(l, size, alignment)
	a.release(l)
	return p
}

// AllocBytes returns a []byte slice pointing into the arena.
// Returns nil if n <= 0 or the arena is out of memory.
func (a *Arena) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	p := a.Allocate(uintptr(n), 0)
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

// acquire enters an epoch and binds a pooled lane to the arena.
func (a *Arena) acquire() *Lane {
	a.state.enter()
	l := a.lanes.Get().(*Lane)
	l.claim(a)
	return l
}

func (a *Arena) release(l *Lane) {
	l.park()
	a.lanes.Put(l)
	a.state.leave()
}

// allocate is the hot path. The caller holds an epoch and l is resolved.
func (a *Arena) allocate(l *Lane, size, align uintptr) unsafe.Pointer {
	if align < a.opts.Alignment {
		align = a.opts.Alignment
	}
	if !isPow2(align) {
		return nil
	}
	if size == 0 {
		size = 1
	}
	if b := l.block; b != nil {
		if p, ok := b.tryBump(size, align); ok {
			return p
		}
	}
	return a.refill(l, size, align)
}

// refill hands l a block able to hold need bytes at align and performs the
// pending bump. The lane's current block is parked first. Parked blocks with
// room are adopted before rewound spares, and both before new upstream
// memory.
func (a *Arena) refill(l *Lane, need, align uintptr) unsafe.Pointer {
	a.mu.Lock()
	defer a.mu.Unlock()

	l.park()
	l.block = nil
	id := l.leaseID()

	b := a.adopt(need, align, id)
	if b == nil {
		b = a.takeSpare(need, align, id)
	}
	if b == nil {
		size := a.opts.blockSize(need, align)
		if size == 0 {
			return nil
		}
		buf := a.opts.Upstream.Allocate(size, a.opts.Alignment)
		if buf == nil {
			return nil
		}
		b = newBlock(buf, size)
		b.lease.Store(id)
		b.next = a.head
		a.head = b
		a.nblocks++
		a.reserved.Add(size)
		a.opts.Telemetry.refill(a, size)
	}
	l.block = b
	p, _ := b.tryBump(need, align)
	return p
}

// adopt leases a parked block that can hold need bytes at align. Caller
// holds a.mu.
func (a *Arena) adopt(need, align uintptr, id uint64) *block {
	for b := a.head; b != nil; b = b.next {
		if !b.lease.CompareAndSwap(leaseFree, id) {
			continue
		}
		if b.fits(need, align) {
			return b
		}
		b.lease.Store(leaseFree)
	}
	return nil
}

// takeSpare removes and returns the oldest spare block that fits, leased to
// id. Caller holds a.mu.
func (a *Arena) takeSpare(need, align uintptr, id uint64) *block {
	for i, b := range a.spare {
		if b.fits(need, align) {
			a.spare = append(a.spare[:i], a.spare[i+1:]...)
			b.lease.Store(id)
			return b
		}
	}
	return nil
}

// Reset runs every registered cleanup and rewinds all blocks, keeping their
// capacity for reuse. No epoch may be active; prefer ResetSafely when other
// goroutines might still be allocating.
//
// Cleanups run before the rewind, so memory a cleanup allocates is
// reclaimed by the same Reset and must not be kept past it.
func (a *Arena) Reset() {
	a.resetMu.Lock()
	defer a.resetMu.Unlock()
	a.reset()
}

// Purge runs every registered cleanup and returns all blocks to the
// upstream. The arena stays usable. No epoch may be active.
func (a *Arena) Purge() {
	a.resetMu.Lock()
	defer a.resetMu.Unlock()
	a.purge()
}

func (a *Arena) reset() {
	a.assertIdle("Reset")
	a.opts.Telemetry.resetBegin(a)
	a.drainCleanups()

	a.mu.Lock()
	var blocks []*block
	for b := a.head; b != nil; b = b.next {
		b.rewind()
		blocks = append(blocks, b)
	}
	a.spare = a.spare[:0]
	for i := len(blocks) - 1; i >= 0; i-- {
		a.spare = append(a.spare, blocks[i])
	}
	a.gen.Add(1)
	a.mu.Unlock()

	a.opts.Telemetry.resetEnd(a)
}

func (a *Arena) purge() {
	a.assertIdle("Purge")
	a.opts.Telemetry.resetBegin(a)
	a.drainCleanups()

	a.mu.Lock()
	for b := a.head; b != nil; {
		next := b.next
		a.opts.Upstream.Deallocate(b.buf)
		b.buf, b.next, b.cleanups = nil, nil, nil
		b = next
	}
	a.head = nil
	a.spare = nil
	a.nblocks = 0
	a.reserved.Store(0)
	a.gen.Add(1)
	a.mu.Unlock()

	a.opts.Telemetry.resetEnd(a)
}

// drainCleanups runs cleanups outside the lock until none are left. Under a
// direct Reset callbacks may allocate or register more cleanups; under
// ResetSafely new epochs are frozen and callbacks must not touch the arena.
func (a *Arena) drainCleanups() {
	for {
		a.mu.Lock()
		lists := a.takeCleanups()
		a.mu.Unlock()
		if len(lists) == 0 {
			return
		}
		runCleanups(lists)
	}
}

func (a *Arena) assertIdle(op string) {
	if !checkEpochs {
		return
	}
	if n := a.state.count(); n != 0 {
		panic(fmt.Sprintf("arena: %s with %d active epoch(s)", op, n))
	}
}

// ResetSafely freezes new epochs, waits up to timeout for active ones to
// drain and then resets. The freeze is always lifted before returning. On
// timeout nothing is modified and false is returned; the caller may retry.
func (a *Arena) ResetSafely(timeout time.Duration) bool {
	return a.safely(timeout, a.reset)
}

// PurgeSafely is ResetSafely for Purge.
func (a *Arena) PurgeSafely(timeout time.Duration) bool {
	return a.safely(timeout, a.purge)
}

func (a *Arena) safely(timeout time.Duration, fn func()) bool {
	a.resetMu.Lock()
	defer a.resetMu.Unlock()

	a.state.freeze()
	defer a.state.thaw()
	if !a.WaitForEpochZero(timeout) {
		return false
	}
	fn()
	return true
}

// IsIdle reports whether no epoch is active.
func (a *Arena) IsIdle() bool {
	return a.state.count() == 0
}

// ActiveEpochs returns the number of epochs currently in flight.
func (a *Arena) ActiveEpochs() int {
	return int(a.state.count())
}

// TotalReserved returns the bytes obtained from the upstream and not yet
// returned by Purge.
func (a *Arena) TotalReserved() uintptr {
	return a.reserved.Load()
}
