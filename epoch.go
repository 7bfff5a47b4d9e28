package arena

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Bit layout of epochState:
//
//	[31]    freeze: new epochs wait until it clears
//	[30:0]  number of active epochs
const (
	freezeBit uint32 = 1 << 31
	countMask uint32 = freezeBit - 1
)

// epochState packs the active epoch count and the freeze flag into one word
// so that "not frozen" and "count++" are decided by a single CAS.
type epochState struct {
	v atomic.Uint32
}

// enter increments the count, yielding while a freeze is in progress.
func (s *epochState) enter() {
	for {
		cur := s.v.Load()
		if cur&freezeBit != 0 {
			runtime.Gosched()
			continue
		}
		if s.v.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

// leave decrements the count. It is never blocked by a freeze.
func (s *epochState) leave() {
	s.v.Add(^uint32(0))
}

func (s *epochState) freeze() {
	for {
		cur := s.v.Load()
		if s.v.CompareAndSwap(cur, cur|freezeBit) {
			return
		}
	}
}

func (s *epochState) thaw() {
	for {
		cur := s.v.Load()
		if s.v.CompareAndSwap(cur, cur&countMask) {
			return
		}
	}
}

func (s *epochState) count() uint32 {
	return s.v.Load() & countMask
}

func (s *epochState) frozen() bool {
	return s.v.Load()&freezeBit != 0
}

// Epoch is an explicitly held epoch. While any Epoch is open, Reset and
// Purge must not run and ResetSafely waits. Allocations made through an
// Epoch do not enter a nested epoch, so a goroutine holding one cannot be
// stalled by a concurrent freeze.
//
//	ep := a.Enter()
//	defer ep.Leave()
//	node := arena.Alloc[Node](ep)
type Epoch struct {
	a      *Arena
	lane   *Lane
	pooled bool
}

// Enter opens an epoch on a pooled lane.
func (a *Arena) Enter() *Epoch {
	a.state.enter()
	l := a.lanes.Get().(*Lane)
	l.claim(a)
	return &Epoch{a: a, lane: l, pooled: true}
}

// EnterWith opens an epoch that allocates through the caller's lane.
func (a *Arena) EnterWith(l *Lane) *Epoch {
	if l == nil {
		return a.Enter()
	}
	a.state.enter()
	l.claim(a)
	return &Epoch{a: a, lane: l}
}

// Leave closes the epoch. Calling Leave more than once has no effect.
func (e *Epoch) Leave() {
	a := e.a
	if a == nil {
		return
	}
	e.a = nil
	e.lane.park()
	if e.pooled {
		a.lanes.Put(e.lane)
	}
	e.lane = nil
	a.state.leave()
}

// Arena returns the arena the epoch is open on, or nil after Leave.
func (e *Epoch) Arena() *Arena {
	return e.a
}

// Allocate is Arena.Allocate inside the open epoch. It returns nil after
// Leave.
func (e *Epoch) Allocate(size, alignment uintptr) unsafe.Pointer {
	if e.a == nil {
		return nil
	}
	e.lane.resolve(e.a)
	return e.a.allocate(e.lane, size, alignment)
}

// AllocBytes is Arena.AllocBytes inside the open epoch.
func (e *Epoch) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	p := e.Allocate(uintptr(n), 0)
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

// Own is Arena.Own inside the open epoch.
func (e *Epoch) Own(ptr unsafe.Pointer, deleter func(unsafe.Pointer)) {
	if e.a == nil || ptr == nil || deleter == nil {
		return
	}
	e.lane.resolve(e.a)
	e.a.own(e.lane, ptr, deleter)
}
