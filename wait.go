package arena

import (
	"runtime"
	"time"
)

// progressEvery throttles OnWaitProgress in the spin and yield phases.
const progressEvery = 256

// WaitForEpochZero blocks until no epoch is active or timeout elapses,
// using the arena's WaitPolicy: spin, then yield, then sleep. It returns true
// as soon as the count is observed at zero; every write made inside the
// drained epochs is then visible to the caller.
//
// WaitForEpochZero does not stop new epochs from starting; ResetSafely
// freezes them first.
func (a *Arena) WaitForEpochZero(timeout time.Duration) bool {
	var (
		deadline = time.Now().Add(timeout)
		policy   = a.opts.WaitPolicy
		tel      = &a.opts.Telemetry
	)
	tel.waitBegin(a)

	for i := uint32(0); i < policy.SpinIters; i++ {
		c := a.state.count()
		if c == 0 {
			tel.waitEnd(a, false)
			return true
		}
		if i%progressEvery == 0 {
			tel.waitProgress(a, c)
		}
		if !time.Now().Before(deadline) {
			tel.waitEnd(a, true)
			return false
		}
	}

	for i := uint32(0); i < policy.YieldIters; i++ {
		c := a.state.count()
		if c == 0 {
			tel.waitEnd(a, false)
			return true
		}
		if i%progressEvery == 0 {
			tel.waitProgress(a, c)
		}
		runtime.Gosched()
		if !time.Now().Before(deadline) {
			tel.waitEnd(a, true)
			return false
		}
	}

	sleep := max(policy.Sleep, time.Millisecond)
	for {
		c := a.state.count()
		if c == 0 {
			tel.waitEnd(a, false)
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			tel.waitEnd(a, true)
			return false
		}
		tel.waitProgress(a, c)
		time.Sleep(min(sleep, remaining))
	}
}
