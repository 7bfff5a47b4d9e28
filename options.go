package arena

import (
	"math/bits"
	"time"
	"unsafe"
)

const (
	// DefaultInitialBlockBytes is the size of the first block an arena requests (64 KiB).
	DefaultInitialBlockBytes = 64 << 10

	// DefaultMaxBlockBytes caps the size of regular blocks (1 MiB). Single
	// requests larger than this still get a block that fits them.
	DefaultMaxBlockBytes = 1 << 20

	// DefaultAlignment is the minimum alignment of every allocation.
	DefaultAlignment = 16
)

// WaitPolicy tunes WaitForEpochZero. The three phases run in order: a tight
// spin, a cooperative yield loop, then coarse sleeps until the deadline.
type WaitPolicy struct {
	SpinIters  uint32
	YieldIters uint32
	Sleep      time.Duration // clamped to at least 1ms
}

// Presets for common workloads.
var (
	DesktopWaitPolicy = WaitPolicy{SpinIters: 2000, YieldIters: 20000, Sleep: time.Millisecond}
	EditorWaitPolicy  = WaitPolicy{SpinIters: 1000, YieldIters: 10000, Sleep: 2 * time.Millisecond}
	ServerWaitPolicy  = WaitPolicy{SpinIters: 4000, YieldIters: 10000, Sleep: time.Millisecond}
)

// Options configures an Arena. Zero fields take their defaults.
type Options struct {
	InitialBlockBytes uintptr
	MaxBlockBytes     uintptr
	Alignment         uintptr // power of two, at least pointer size
	Upstream          Upstream
	WaitPolicy        WaitPolicy
	Telemetry         Telemetry
}

// DefaultOptions returns the options New uses for a zero Options value.
func DefaultOptions() Options {
	return Options{
		InitialBlockBytes: DefaultInitialBlockBytes,
		MaxBlockBytes:     DefaultMaxBlockBytes,
		Alignment:         DefaultAlignment,
		Upstream:          HeapUpstream{},
		WaitPolicy:        DesktopWaitPolicy,
	}
}

// normalize fills defaults and repairs inconsistent values.
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.InitialBlockBytes == 0 {
		o.InitialBlockBytes = def.InitialBlockBytes
	}
	if o.MaxBlockBytes == 0 {
		o.MaxBlockBytes = def.MaxBlockBytes
	}
	if o.MaxBlockBytes < o.InitialBlockBytes {
		o.MaxBlockBytes = o.InitialBlockBytes
	}
	if o.Alignment == 0 {
		o.Alignment = def.Alignment
	}
	if o.Alignment < ptrSize {
		o.Alignment = ptrSize
	}
	if !isPow2(o.Alignment) {
		o.Alignment = 1 << bits.Len(uint(o.Alignment))
	}
	if o.Upstream == nil {
		o.Upstream = def.Upstream
	}
	if o.WaitPolicy == (WaitPolicy{}) {
		o.WaitPolicy = def.WaitPolicy
	}
	if o.WaitPolicy.Sleep < time.Millisecond {
		o.WaitPolicy.Sleep = time.Millisecond
	}
	return o
}

// blockSize returns how many bytes to request from the upstream so that a
// request of need bytes at align fits in a fresh block. The result is 0 when
// the arithmetic overflows.
func (o *Options) blockSize(need, align uintptr) uintptr {
	sum, c1 := bits.Add(uint(need), uint(align), 0)
	sum, c2 := bits.Add(sum, uint(blockHeaderSize), 0)
	fit := uintptr(sum)
	if c1|c2 != 0 || fit > maxBlockRequest {
		return 0
	}
	size := max(o.InitialBlockBytes, fit)
	if size > o.MaxBlockBytes && fit <= o.MaxBlockBytes {
		size = o.MaxBlockBytes
	}
	return size
}

const ptrSize = unsafe.Sizeof(uintptr(0))

// maxBlockRequest bounds a single upstream request (1 TiB on 64-bit).
const maxBlockRequest = uintptr(1) << (20 + 10*(ptrSize/4))

func isPow2(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}

// alignUp rounds off up to a multiple of align (a power of two).
func alignUp(off, align uintptr) uintptr {
	return (off + align - 1) &^ (align - 1)
}
