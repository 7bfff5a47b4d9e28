// Package arena implements an epoch-guarded bump allocator (memory arena) for Go.
//
// # Overview
//
// An arena hands out memory by bumping a cursor through large blocks and
// releases everything at once. This package targets per-frame scratch data
// in latency-sensitive, multi-goroutine programs:
//
//   - Scene graphs and draw-command lists rebuilt every frame
//   - Pose blending and other aligned math scratch buffers
//   - Pathfinding and network-decode scratch space
//   - Any batch of short-lived values reclaimed together
//
// # Basic Usage
//
//	a := arena.New(arena.DefaultOptions())
//	defer a.Purge()
//
//	// Allocate raw bytes
//	buf := a.AllocBytes(1024)
//
//	// Allocate typed values
//	ptr := arena.Alloc[MyStruct](a)
//	slice := arena.AllocSlice[int](a, 100)
//
//	// Rewind at the frame boundary
//	if !a.ResetSafely(2 * time.Millisecond) {
//		// someone still holds an epoch; try again next frame
//	}
//
// # Concurrency
//
// Every allocation runs inside an epoch: a shared counter incremented on
// entry and decremented on exit. Each goroutine bumps its own lane's block,
// so the hot path takes no lock; only refilling an exhausted block locks the
// arena. ResetSafely sets a freeze flag that holds back new epochs, waits
// (spin, then yield, then sleep) for the counter to drain, resets, and lifts
// the freeze. On timeout it changes nothing.
//
// Reset and Purge may be called directly only when no epoch is active;
// otherwise they panic (build with -tags arenanocheck to remove the check).
//
// A goroutine doing many allocations can hold one epoch explicitly:
//
//	ep := a.Enter()
//	for _, n := range nodes {
//		arena.Create(ep, n)
//	}
//	ep.Leave()
//
// # Cleanups
//
// Values whose pointer type implements Destructor get Destroy called at the
// next Reset or Purge. Arbitrary callbacks can be attached with Own and
// OnReset. Callbacks registered on the same block run last-in first-out.
//
// # Memory Layout
//
// Blocks come from an Upstream: the Go heap by default, or anonymous mmap
// (MmapUpstream) on unix. A new block is InitialBlockBytes large, grown to
// fit the pending request and capped at MaxBlockBytes unless a single request
// needs more. Reset keeps every block for reuse; Purge returns them.
//
// # Important Notes
//
//   - Memory is only valid until the next Reset or Purge
//   - No individual deallocation
//   - Arena memory is not scanned by the garbage collector: stored values must
//     not hold the only reference to Go heap objects
//   - Allocation never panics on exhaustion; it returns nil
//
// # Metrics and Monitoring
//
//	m := a.Metrics()
//	fmt.Printf("Utilization: %.2f%%\n", m.Utilization*100)
//	fmt.Printf("Reserved: %d bytes\n", a.TotalReserved())
//
// Telemetry hooks in Options observe refills, resets and waits; the
// telemetry subpackage adapts them to log/slog and Prometheus.
package arena
