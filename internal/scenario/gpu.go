package scenario

import (
	"fmt"
	"sync/atomic"

	arena "github.com/pavanmanishd/framearena"
)

// gpuDevice stands in for a driver that frees buffers by handle.
type gpuDevice struct {
	freed    atomic.Int64
	freedSum atomic.Uint64
}

func (d *gpuDevice) free(id *uint32) {
	d.freed.Add(1)
	d.freedSum.Add(uint64(*id))
}

func runGPURelease(f *Frame) (Result, error) {
	const buffers, firstID = 50, 1000
	var dev gpuDevice

	res, err := f.run(func(ep *arena.Epoch) (Result, error) {
		for i := 0; i < buffers; i++ {
			id := arena.Create(ep, uint32(firstID+i))
			if id == nil {
				return Result{}, oom("buffer handle")
			}
			arena.Own(ep, id, dev.free)
		}
		if n := dev.freed.Load(); n != 0 {
			return Result{}, fmt.Errorf("gpu: %d buffers freed before reset", n)
		}
		return Result{Objects: buffers}, nil
	})
	if err != nil {
		return res, err
	}

	res.Cleanups = dev.freed.Load()
	if res.Cleanups != buffers {
		return res, fmt.Errorf("gpu: %d buffers freed, want %d", res.Cleanups, buffers)
	}
	// Handles are still readable while their cleanup runs.
	if want := uint64(buffers*firstID + buffers*(buffers-1)/2); dev.freedSum.Load() != want {
		return res, fmt.Errorf("gpu: freed handle sum %d, want %d", dev.freedSum.Load(), want)
	}
	return res, nil
}
