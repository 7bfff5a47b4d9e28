// Package scenario holds engine-style frame workloads that exercise an arena
// end to end: allocate a frame's worth of data, use it, verify it, and reset.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	arena "github.com/pavanmanishd/framearena"
)

var (
	// ErrOutOfMemory is returned when the arena cannot satisfy a request.
	ErrOutOfMemory = errors.New("arena out of memory")

	// ErrResetTimeout is returned when the end-of-frame reset times out.
	ErrResetTimeout = errors.New("end-of-frame reset timed out")

	// ErrUnknown is returned by Select for names that are not registered.
	ErrUnknown = errors.New("unknown scenario")
)

// DefaultResetTimeout is used when a Frame leaves ResetTimeout at zero.
const DefaultResetTimeout = 10 * time.Millisecond

// Frame is the input to one scenario run.
type Frame struct {
	Arena        *arena.Arena
	Workers      int           // goroutines for multi-worker scenarios; 0 means 6
	ResetTimeout time.Duration // bound for the end-of-frame ResetSafely
}

// Result summarizes one frame.
type Result struct {
	Objects  int   // values placed in the arena
	Bytes    int   // arena bytes in use when the frame ended
	Cleanups int64 // cleanups observed during the end-of-frame reset
}

// Scenario is a named frame workload.
type Scenario struct {
	Name        string
	Description string
	Run         func(f *Frame) (Result, error)
}

var registry = []Scenario{
	{"scene-graph", "build, traverse and reset a 156-node scene graph", runSceneGraph},
	{"pose-blend", "blend skeletal poses in 16-byte aligned buffers", runPoseBlend},
	{"draw-commands", "emit a render command buffer with per-draw constants", runDrawCommands},
	{"pathfinding", "BFS over a 16x16 grid using arena scratch", runPathfinding},
	{"net-decode", "decode a message burst, copy the minimum out, reset", runNetDecode},
	{"gpu-release", "release GPU buffer handles through Own at reset", runGPURelease},
	{"frame-barrier", "workers build render lists, then the frame resets", runFrameBarrier},
	{"uniform-blobs", "32- and 64-byte aligned uniform and storage blobs", runUniformBlobs},
	{"tiny-allocs", "10000 eight-byte allocations, then a safe reset", runTinyAllocs},
}

// All returns every registered scenario in registration order.
func All() []Scenario {
	return append([]Scenario(nil), registry...)
}

// Names returns the registered names, sorted.
func Names() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.Name
	}
	sort.Strings(names)
	return names
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range registry {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Select resolves names in order. No names selects every scenario.
func Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]Scenario, 0, len(names))
	var unknown []string
	for _, name := range names {
		s, ok := Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, s)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, strings.Join(unknown, ", "))
	}
	return out, nil
}

func (f *Frame) workers() int {
	if f.Workers <= 0 {
		return 6
	}
	return f.Workers
}

func (f *Frame) timeout() time.Duration {
	if f.ResetTimeout <= 0 {
		return DefaultResetTimeout
	}
	return f.ResetTimeout
}

// reset ends the frame with a safe reset.
func (f *Frame) reset() error {
	if !f.Arena.ResetSafely(f.timeout()) {
		return fmt.Errorf("%w after %s (%d active epochs)", ErrResetTimeout, f.timeout(), f.Arena.ActiveEpochs())
	}
	return nil
}

// run holds one epoch around body, then records usage and resets. A body
// error takes precedence over a reset error.
func (f *Frame) run(body func(ep *arena.Epoch) (Result, error)) (Result, error) {
	ep := f.Arena.Enter()
	res, err := body(ep)
	ep.Leave()
	res.Bytes = f.Arena.SizeInUse()
	if rerr := f.reset(); err == nil {
		err = rerr
	}
	return res, err
}

func oom(what string) error {
	return fmt.Errorf("%w: %s", ErrOutOfMemory, what)
}

// arenaString copies s into the arena.
func arenaString(al arena.Allocator, s string) []byte {
	if s == "" {
		return nil
	}
	b := arena.AllocSlice[byte](al, len(s))
	copy(b, s)
	return b
}
