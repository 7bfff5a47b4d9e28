package arena

import "time"

// Batch scopes a unit of work (typically a frame) on an arena and performs
// a best-effort safe reset when the scope ends.
//
//	b := arena.NewBatch(frame, 2*time.Millisecond)
//	defer b.End()
type Batch struct {
	a       *Arena
	timeout time.Duration
	done    bool
}

// NewBatch starts a batch on a. It does not open an epoch; allocations
// inside the batch enter their own.
func NewBatch(a *Arena, timeout time.Duration) *Batch {
	return &Batch{a: a, timeout: timeout}
}

// End resets the arena via ResetSafely and reports whether the reset ran.
// Only the first call has an effect; later calls return false.
func (b *Batch) End() bool {
	if b.done {
		return false
	}
	b.done = true
	return b.a.ResetSafely(b.timeout)
}
