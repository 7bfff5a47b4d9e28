package arena

import "unsafe"

// Destructor is implemented by values whose teardown has observable side
// effects. Alloc, Create and MakeSpan register Destroy to run at the next
// Reset or Purge when *T implements it.
type Destructor interface {
	Destroy()
}

// cleanup is one registered (fn, arg) pair. Nodes live on the Go heap so the
// collector keeps the closures they reference alive.
type cleanup struct {
	fn   func(unsafe.Pointer)
	arg  unsafe.Pointer
	next *cleanup
}

// runCleanups invokes every node of every list in order.
func runCleanups(lists []*cleanup) int {
	n := 0
	for _, head := range lists {
		for c := head; c != nil; c = c.next {
			c.fn(c.arg)
			n++
		}
	}
	return n
}

// Own registers deleter to be called with ptr at the next Reset or Purge.
// Registrations on the same block run last-in first-out. A nil ptr or
// deleter is ignored.
func (a *Arena) Own(ptr unsafe.Pointer, deleter func(unsafe.Pointer)) {
	if ptr == nil || deleter == nil {
		return
	}
	l := a.acquire()
	a.own(l, ptr, deleter)
	a.release(l)
}

// OnReset registers fn to run at the next Reset or Purge.
func (a *Arena) OnReset(fn func()) {
	if fn == nil {
		return
	}
	l := a.acquire()
	a.own(l, nil, func(unsafe.Pointer) { fn() })
	a.release(l)
}

// own prepends a node to the lane's block. The caller holds an epoch. When no
// block can be obtained the node is parked on the arena so it still runs.
func (a *Arena) own(l *Lane, ptr unsafe.Pointer, fn func(unsafe.Pointer)) {
	if l.block == nil {
		a.refill(l, 0, a.opts.Alignment)
	}
	if b := l.block; b != nil {
		b.cleanups = &cleanup{fn: fn, arg: ptr, next: b.cleanups}
		return
	}
	a.mu.Lock()
	a.detached = &cleanup{fn: fn, arg: ptr, next: a.detached}
	a.mu.Unlock()
}

// takeCleanups detaches every cleanup list. Caller holds a.mu.
func (a *Arena) takeCleanups() []*cleanup {
	var lists []*cleanup
	for b := a.head; b != nil; b = b.next {
		if b.cleanups != nil {
			lists = append(lists, b.cleanups)
			b.cleanups = nil
		}
	}
	if a.detached != nil {
		lists = append(lists, a.detached)
		a.detached = nil
	}
	return lists
}
