package arena

import "unsafe"

// Allocator is implemented by *Arena and *Epoch. Arena calls each enter
// their own epoch; Epoch calls allocate inside the one already open.
//
// Values placed in arena memory are not scanned by the garbage collector:
// they must not hold the only reference to Go heap objects.
type Allocator interface {
	Allocate(size, alignment uintptr) unsafe.Pointer
	Own(ptr unsafe.Pointer, deleter func(unsafe.Pointer))

	begin() (*Arena, *Lane)
	end(*Lane)
}

func (a *Arena) begin() (*Arena, *Lane) { return a, a.acquire() }
func (a *Arena) end(l *Lane)            { a.release(l) }

func (e *Epoch) begin() (*Arena, *Lane) {
	if e.a == nil {
		return nil, nil
	}
	e.lane.resolve(e.a)
	return e.a, e.lane
}

func (e *Epoch) end(*Lane) {}

// Alloc returns a pointer to a zeroed T stored inside the arena, or nil when
// the arena is out of memory. If *T implements Destructor, Destroy runs at
// the next Reset or Purge.
func Alloc[T any](al Allocator) *T {
	a, l := al.begin()
	if a == nil {
		return nil
	}
	p := place[T](a, l, 1, true)
	if p != nil {
		registerDestroy(a, l, p)
	}
	al.end(l)
	return p
}

// AllocZeroed is identical to Alloc - provided for API consistency.
func AllocZeroed[T any](al Allocator) *T {
	return Alloc[T](al)
}

// Create copies v into the arena and returns its address. If *T implements
// Destructor, Destroy runs at the next Reset or Purge.
func Create[T any](al Allocator, v T) *T {
	a, l := al.begin()
	if a == nil {
		return nil
	}
	p := place[T](a, l, 1, false)
	if p != nil {
		*p = v
		registerDestroy(a, l, p)
	}
	al.end(l)
	return p
}

// AllocUninitialized returns a *T located in the arena without zeroing memory.
// No destructor is registered. Use with caution - ensure proper
// initialization before use.
func AllocUninitialized[T any](al Allocator) *T {
	a, l := al.begin()
	if a == nil {
		return nil
	}
	p := place[T](a, l, 1, false)
	al.end(l)
	return p
}

// AllocSlice allocates a slice of n elements of type T inside the arena.
// The slice elements are not initialized (contain garbage data) and no
// destructors are registered. Returns nil if n <= 0 or on exhaustion.
func AllocSlice[T any](al Allocator, n int) []T {
	return allocSlice[T](al, n, false)
}

// AllocSliceZeroed allocates a slice of n elements of type T with zeroed
// memory. No destructors are registered; use MakeSpan for element types
// that need them.
func AllocSliceZeroed[T any](al Allocator, n int) []T {
	return allocSlice[T](al, n, true)
}

func allocSlice[T any](al Allocator, n int, zero bool) []T {
	if n <= 0 {
		return nil
	}
	a, l := al.begin()
	if a == nil {
		return nil
	}
	p := place[T](a, l, n, zero)
	al.end(l)
	if p == nil {
		return nil
	}
	return unsafe.Slice(p, n)
}

// MakeSpan allocates n zeroed elements of type T. If *T implements
// Destructor, a single cleanup destroys all n elements at the next Reset or
// Purge.
func MakeSpan[T any](al Allocator, n int) []T {
	if n <= 0 {
		return nil
	}
	a, l := al.begin()
	if a == nil {
		return nil
	}
	p := place[T](a, l, n, true)
	if p == nil {
		al.end(l)
		return nil
	}
	s := unsafe.Slice(p, n)
	if _, ok := any(p).(Destructor); ok {
		a.own(l, unsafe.Pointer(p), func(unsafe.Pointer) {
			for i := range s {
				any(&s[i]).(Destructor).Destroy()
			}
		})
	}
	al.end(l)
	return s
}

// Own registers fn to be called with p at the next Reset or Purge.
func Own[T any](al Allocator, p *T, fn func(*T)) {
	if p == nil || fn == nil {
		return
	}
	al.Own(unsafe.Pointer(p), func(ptr unsafe.Pointer) { fn((*T)(ptr)) })
}

// place bumps room for n values of T. The caller holds an epoch.
func place[T any](a *Arena, l *Lane, n int, zero bool) *T {
	var t T
	size, align := unsafe.Sizeof(t), unsafe.Alignof(t)
	if size != 0 && uintptr(n) > maxBlockRequest/size {
		return nil
	}
	total := size * uintptr(n)
	p := a.allocate(l, total, align)
	if p == nil {
		return nil
	}
	if zero && total > 0 {
		clear(unsafe.Slice((*byte)(p), total))
	}
	return (*T)(p)
}

func registerDestroy[T any](a *Arena, l *Lane, p *T) {
	if d, ok := any(p).(Destructor); ok {
		a.own(l, unsafe.Pointer(p), func(unsafe.Pointer) { d.Destroy() })
	}
}
