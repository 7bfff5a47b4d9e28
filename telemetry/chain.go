package telemetry

import arena "github.com/pavanmanishd/framearena"

// Chain combines several hook sets. Each event is delivered to every
// non-nil hook in argument order.
func Chain(sets ...arena.Telemetry) arena.Telemetry {
	var (
		refill       []func(*arena.Arena, uintptr)
		resetBegin   []func(*arena.Arena)
		resetEnd     []func(*arena.Arena)
		waitBegin    []func(*arena.Arena)
		waitProgress []func(*arena.Arena, uint32)
		waitEnd      []func(*arena.Arena, bool)
	)
	for _, t := range sets {
		if t.OnRefill != nil {
			refill = append(refill, t.OnRefill)
		}
		if t.OnResetBegin != nil {
			resetBegin = append(resetBegin, t.OnResetBegin)
		}
		if t.OnResetEnd != nil {
			resetEnd = append(resetEnd, t.OnResetEnd)
		}
		if t.OnWaitBegin != nil {
			waitBegin = append(waitBegin, t.OnWaitBegin)
		}
		if t.OnWaitProgress != nil {
			waitProgress = append(waitProgress, t.OnWaitProgress)
		}
		if t.OnWaitEnd != nil {
			waitEnd = append(waitEnd, t.OnWaitEnd)
		}
	}

	var out arena.Telemetry
	if len(refill) > 0 {
		out.OnRefill = func(a *arena.Arena, bytes uintptr) {
			for _, fn := range refill {
				fn(a, bytes)
			}
		}
	}
	if len(resetBegin) > 0 {
		out.OnResetBegin = each(resetBegin)
	}
	if len(resetEnd) > 0 {
		out.OnResetEnd = each(resetEnd)
	}
	if len(waitBegin) > 0 {
		out.OnWaitBegin = each(waitBegin)
	}
	if len(waitProgress) > 0 {
		out.OnWaitProgress = func(a *arena.Arena, active uint32) {
			for _, fn := range waitProgress {
				fn(a, active)
			}
		}
	}
	if len(waitEnd) > 0 {
		out.OnWaitEnd = func(a *arena.Arena, timedOut bool) {
			for _, fn := range waitEnd {
				fn(a, timedOut)
			}
		}
	}
	return out
}

func each(fns []func(*arena.Arena)) func(*arena.Arena) {
	return func(a *arena.Arena) {
		for _, fn := range fns {
			fn(a)
		}
	}
}
