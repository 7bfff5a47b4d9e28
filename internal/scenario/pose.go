package scenario

import (
	"fmt"
	"unsafe"

	arena "github.com/pavanmanishd/framearena"
)

const poseAlign = 16

// allocPose returns bones identity matrices in a 16-byte aligned buffer.
func allocPose(ep *arena.Epoch, bones int) []mat4 {
	p := ep.Allocate(uintptr(bones)*unsafe.Sizeof(mat4{}), poseAlign)
	if p == nil {
		return nil
	}
	pose := unsafe.Slice((*mat4)(p), bones)
	for i := range pose {
		pose[i] = identity()
	}
	return pose
}

func blend(a, b, out []mat4, t float32) {
	for i := range out {
		for k := range out[i] {
			out[i][k] = a[i][k]*(1-t) + b[i][k]*t
		}
	}
}

func runPoseBlend(f *Frame) (Result, error) {
	const bones = 64
	return f.run(func(ep *arena.Epoch) (Result, error) {
		var poses [4][]mat4
		for i := range poses {
			if poses[i] = allocPose(ep, bones); poses[i] == nil {
				return Result{}, oom("pose")
			}
			if addr := uintptr(unsafe.Pointer(&poses[i][0])); addr%poseAlign != 0 {
				return Result{}, fmt.Errorf("pose: buffer %#x not %d-byte aligned", addr, poseAlign)
			}
		}
		a, b, out := poses[1], poses[2], poses[3]
		for i := 0; i < bones; i++ {
			a[i][12] = float32(i)
			b[i][13] = float32(i) * 2
		}

		blend(a, b, out, 0.25)
		if !near(out[10][12], 7.5) || !near(out[10][13], 5) {
			return Result{}, fmt.Errorf("pose: blended bone 10 translation (%g, %g), want (7.5, 5)", out[10][12], out[10][13])
		}
		return Result{Objects: len(poses) * bones}, nil
	})
}
