package arena

// Telemetry is a set of optional observation hooks. Nil hooks are skipped.
//
// OnRefill runs while the arena lock is held: it must not call Metrics,
// SizeInUse, Capacity or NumBlocks on the same arena. The other hooks run
// without the lock.
type Telemetry struct {
	OnRefill       func(a *Arena, bytes uintptr)
	OnResetBegin   func(a *Arena)
	OnResetEnd     func(a *Arena)
	OnWaitBegin    func(a *Arena)
	OnWaitProgress func(a *Arena, active uint32)
	OnWaitEnd      func(a *Arena, timedOut bool)
}

func (t *Telemetry) refill(a *Arena, bytes uintptr) {
	if t.OnRefill != nil {
		t.OnRefill(a, bytes)
	}
}

func (t *Telemetry) resetBegin(a *Arena) {
	if t.OnResetBegin != nil {
		t.OnResetBegin(a)
	}
}

func (t *Telemetry) resetEnd(a *Arena) {
	if t.OnResetEnd != nil {
		t.OnResetEnd(a)
	}
}

func (t *Telemetry) waitBegin(a *Arena) {
	if t.OnWaitBegin != nil {
		t.OnWaitBegin(a)
	}
}

func (t *Telemetry) waitProgress(a *Arena, active uint32) {
	if t.OnWaitProgress != nil {
		t.OnWaitProgress(a, active)
	}
}

func (t *Telemetry) waitEnd(a *Arena, timedOut bool) {
	if t.OnWaitEnd != nil {
		t.OnWaitEnd(a, timedOut)
	}
}
