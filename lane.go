package arena

import "sync/atomic"

var nextLaneID atomic.Uint64

// Lane caches the block a goroutine is currently bumping into. A Lane is
// bound to one arena at a time: whenever it is used with a different arena,
// or with the same arena after a Reset or Purge, its cached block is dropped
// before use. A Lane must not be used by two goroutines at once.
//
// A lane leases its block only while an epoch is open. Between epochs the
// block is parked, and a refill on any other lane may adopt it, so blocks
// of lanes that are dropped or left idle keep being filled.
//
// Most callers never see a Lane; Allocate draws one from a per-arena pool.
// Worker goroutines that want a stable block across many allocations keep
// their own and pass it to EnterWith.
type Lane struct {
	id    uint64 // lease token, assigned on first use
	owner uint64 // arena ID
	gen   uint64 // arena generation at bind time
	block *block
}

// NewLane returns an unbound Lane.
func NewLane() *Lane {
	return &Lane{id: nextLaneID.Add(1)}
}

func (l *Lane) leaseID() uint64 {
	if l.id == 0 {
		l.id = nextLaneID.Add(1)
	}
	return l.id
}

// resolve rebinds l to a, invalidating a block that belongs to another arena
// or to a reclaimed generation of a.
func (l *Lane) resolve(a *Arena) {
	gen := a.gen.Load()
	if l.owner != a.id || l.gen != gen {
		l.park()
		l.owner = a.id
		l.gen = gen
		l.block = nil
	}
}

// claim binds l to a at epoch entry and re-leases the cached block. A block
// adopted by another lane in the meantime is dropped.
func (l *Lane) claim(a *Arena) {
	l.resolve(a)
	if l.block != nil && !l.block.lease.CompareAndSwap(leaseFree, l.leaseID()) {
		l.block = nil
	}
}

// park releases the lease on the cached block. It has no effect when the
// block was rewound or is held by another lane.
func (l *Lane) park() {
	if l.block != nil {
		l.block.lease.CompareAndSwap(l.leaseID(), leaseFree)
	}
}

// Owner returns the ID of the arena the lane was last used with, or 0.
func (l *Lane) Owner() uint64 {
	return l.owner
}
