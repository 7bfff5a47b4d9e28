package arena

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochStateTransitions(t *testing.T) {
	var s epochState

	// Idle -> Active -> Idle
	s.enter()
	s.enter()
	assert.Equal(t, uint32(2), s.count())
	s.leave()
	s.leave()
	assert.Zero(t, s.count())

	// Freeze keeps the count and blocks only entry.
	s.enter()
	s.freeze()
	assert.True(t, s.frozen())
	assert.Equal(t, uint32(1), s.count())
	s.leave()
	assert.Zero(t, s.count())
	assert.True(t, s.frozen(), "leave never clears the freeze")

	entered := make(chan struct{})
	go func() {
		s.enter()
		close(entered)
	}()
	select {
	case <-entered:
		t.Fatal("enter succeeded while frozen")
	case <-time.After(20 * time.Millisecond):
	}
	s.thaw()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("enter did not resume after thaw")
	}
	assert.Equal(t, uint32(1), s.count())
	assert.False(t, s.frozen())
	s.leave()
}

func TestEpochGuard(t *testing.T) {
	a := New(Options{})
	ep := a.Enter()
	assert.False(t, a.IsIdle())
	assert.Equal(t, 1, a.ActiveEpochs())
	assert.Same(t, a, ep.Arena())

	p := ep.Allocate(32, 0)
	require.NotNil(t, p)
	assert.Equal(t, 1, a.ActiveEpochs(), "allocating inside an epoch does not nest")

	ep.Leave()
	ep.Leave()
	assert.True(t, a.IsIdle())
	assert.Nil(t, ep.Allocate(8, 0))
	assert.Nil(t, ep.Arena())
}

func TestResetSafelyTimesOutWhileEpochHeld(t *testing.T) {
	var resets atomic.Int64
	a := New(Options{
		InitialBlockBytes: 1024,
		Telemetry: Telemetry{
			OnResetBegin: func(*Arena) { resets.Add(1) },
		},
	})
	for i := 0; i < 20; i++ {
		Alloc[trackedObject](a)
		a.AllocBytes(100)
	}
	before := snapshotBlocks(a)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ep := a.Enter()
		close(held)
		<-release
		ep.Leave()
	}()
	<-held

	const timeout = 5 * time.Millisecond
	start := time.Now()
	ok := a.ResetSafely(timeout)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+200*time.Millisecond)
	assert.False(t, a.IsIdle())
	assert.Zero(t, resets.Load(), "no reset on timeout")
	assert.Equal(t, before, snapshotBlocks(a), "timeout must not touch any block")
	assert.False(t, a.state.frozen(), "freeze is lifted after a timeout")

	// The arena keeps serving allocations while the holder is still inside.
	assert.NotNil(t, a.Allocate(8, 0))

	close(release)
	<-done
	assert.True(t, a.ResetSafely(5*time.Millisecond))
	assert.Equal(t, int64(1), resets.Load())
	assert.Zero(t, a.SizeInUse())
}

func TestResetSafelyWaitsForSleepingHolder(t *testing.T) {
	a := New(Options{})
	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ep := a.Enter()
		close(held)
		time.Sleep(30 * time.Millisecond)
		ep.Leave()
	}()
	<-held

	assert.False(t, a.ResetSafely(time.Millisecond))
	assert.False(t, a.IsIdle())
	<-done
	assert.True(t, a.ResetSafely(5*time.Millisecond))
}

func TestFreezeHoldsBackNewEpochs(t *testing.T) {
	a := New(Options{WaitPolicy: WaitPolicy{Sleep: time.Millisecond}})
	held := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ep := a.Enter()
		close(held)
		<-release
		ep.Leave()
	}()
	<-held

	var late atomic.Bool
	resetDone := make(chan bool)
	go func() { resetDone <- a.ResetSafely(time.Second) }()

	// Wait for the freeze to be visible, then start a newcomer.
	require.Eventually(t, a.state.frozen, time.Second, time.Millisecond)
	wg.Add(1)
	go func() {
		defer wg.Done()
		p := a.Allocate(8, 0)
		late.Store(p != nil)
	}()

	time.Sleep(10 * time.Millisecond)
	assert.False(t, late.Load(), "newcomer must wait for the freeze")
	close(release)

	assert.True(t, <-resetDone)
	wg.Wait()
	assert.True(t, late.Load())
}

func TestConcurrentAllocations(t *testing.T) {
	a := New(Options{InitialBlockBytes: 4096})
	const workers, perWorker = 8, 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ep := a.Enter()
			defer ep.Leave()
			ptrs := make([]*uint64, perWorker)
			for i := range ptrs {
				ptrs[i] = Create(ep, uint64(id<<32|i))
			}
			for i, p := range ptrs {
				if p == nil || *p != uint64(id<<32|i) {
					t.Errorf("worker %d: allocation %d corrupted", id, i)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	assert.True(t, a.IsIdle())
	assert.GreaterOrEqual(t, a.SizeInUse(), workers*perWorker*8)
	assert.True(t, a.ResetSafely(5*time.Millisecond))
}

func TestConcurrentResetSafelyStress(t *testing.T) {
	a := New(Options{InitialBlockBytes: 2048, WaitPolicy: ServerWaitPolicy})
	stop := make(chan struct{})
	var corrupt atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			lane := NewLane()
			for {
				select {
				case <-stop:
					return
				default:
				}
				ep := a.EnterWith(lane)
				buf := ep.AllocBytes(48)
				if buf != nil {
					for i := range buf {
						buf[i] = id
					}
					for i := range buf {
						if buf[i] != id {
							corrupt.Add(1)
							break
						}
					}
				}
				ep.Leave()
			}
		}(byte(w + 1))
	}

	succeeded := 0
	for i := 0; i < 50; i++ {
		if a.ResetSafely(20 * time.Millisecond) {
			succeeded++
		}
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, corrupt.Load(), "a reset overlapped an open epoch")
	assert.Positive(t, succeeded)
	assert.True(t, a.IsIdle())
}

// snapshotBlocks captures every block's cursor and cleanup head.
func snapshotBlocks(a *Arena) []blockState {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []blockState
	for b := a.head; b != nil; b = b.next {
		out = append(out, blockState{b.begin(), b.used(), unsafe.Pointer(b.cleanups)})
	}
	return out
}

type blockState struct {
	begin, used uintptr
	cleanups    unsafe.Pointer
}
