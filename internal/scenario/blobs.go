package scenario

import (
	"fmt"

	arena "github.com/pavanmanishd/framearena"
)

func runUniformBlobs(f *Frame) (Result, error) {
	blobs := []struct {
		size, align uintptr
	}{
		{4096, 32}, // uniform buffer
		{1024, 64}, // storage buffer
		{256, 256}, // dynamic offset slot
	}
	return f.run(func(ep *arena.Epoch) (Result, error) {
		for _, b := range blobs {
			p := ep.Allocate(b.size, b.align)
			if p == nil {
				return Result{}, oom("blob")
			}
			if uintptr(p)%b.align != 0 {
				return Result{}, fmt.Errorf("blobs: %d-byte blob at %#x not %d-byte aligned", b.size, uintptr(p), b.align)
			}
		}
		return Result{Objects: len(blobs)}, nil
	})
}

func runTinyAllocs(f *Frame) (Result, error) {
	const n = 10000
	return f.run(func(ep *arena.Epoch) (Result, error) {
		for i := 0; i < n; i++ {
			p := ep.Allocate(8, 8)
			if p == nil {
				return Result{}, oom("tiny allocation")
			}
			*(*byte)(p) = byte(i)
		}
		return Result{Objects: n}, nil
	})
}
