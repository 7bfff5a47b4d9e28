package arena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Options
		want func(t *testing.T, o Options)
	}{
		{
			name: "zero value takes defaults",
			in:   Options{},
			want: func(t *testing.T, o Options) {
				assert.Equal(t, uintptr(DefaultInitialBlockBytes), o.InitialBlockBytes)
				assert.Equal(t, uintptr(DefaultMaxBlockBytes), o.MaxBlockBytes)
				assert.Equal(t, uintptr(DefaultAlignment), o.Alignment)
				assert.Equal(t, DesktopWaitPolicy, o.WaitPolicy)
				assert.IsType(t, HeapUpstream{}, o.Upstream)
			},
		},
		{
			name: "max raised to initial",
			in:   Options{InitialBlockBytes: 8192, MaxBlockBytes: 1024},
			want: func(t *testing.T, o Options) {
				assert.Equal(t, uintptr(8192), o.MaxBlockBytes)
			},
		},
		{
			name: "alignment raised to pointer size",
			in:   Options{Alignment: 1},
			want: func(t *testing.T, o Options) {
				assert.Equal(t, ptrSize, o.Alignment)
			},
		},
		{
			name: "alignment rounded to power of two",
			in:   Options{Alignment: 48},
			want: func(t *testing.T, o Options) {
				assert.Equal(t, uintptr(64), o.Alignment)
			},
		},
		{
			name: "sleep clamped to a millisecond",
			in:   Options{WaitPolicy: WaitPolicy{SpinIters: 5}},
			want: func(t *testing.T, o Options) {
				assert.Equal(t, uint32(5), o.WaitPolicy.SpinIters)
				assert.Equal(t, time.Millisecond, o.WaitPolicy.Sleep)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, tt.in.normalize())
		})
	}
}

func TestBlockSize(t *testing.T) {
	o := Options{InitialBlockBytes: 1024, MaxBlockBytes: 4096}.normalize()

	assert.Equal(t, uintptr(1024), o.blockSize(16, 16), "small requests get the initial size")
	assert.Equal(t, 2000+64+blockHeaderSize, o.blockSize(2000, 64), "grown to fit")
	assert.Equal(t, uintptr(4096), o.blockSize(4096-64-blockHeaderSize, 64))
	assert.Equal(t, 10000+16+blockHeaderSize, o.blockSize(10000, 16), "oversize requests exceed the cap")

	assert.Zero(t, o.blockSize(^uintptr(0), 16), "overflow")
	assert.Zero(t, o.blockSize(^uintptr(0)-blockHeaderSize, 16), "overflow in the second add")
	assert.Zero(t, o.blockSize(maxBlockRequest, 16), "above the request limit")
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uintptr(0), alignUp(0, 16))
	assert.Equal(t, uintptr(16), alignUp(1, 16))
	assert.Equal(t, uintptr(16), alignUp(16, 16))
	assert.Equal(t, uintptr(7), alignUp(7, 1))
	assert.True(t, isPow2(1))
	assert.True(t, isPow2(4096))
	assert.False(t, isPow2(0))
	assert.False(t, isPow2(24))
}

func TestWaitPolicyPresets(t *testing.T) {
	for name, p := range map[string]WaitPolicy{
		"desktop": DesktopWaitPolicy,
		"editor":  EditorWaitPolicy,
		"server":  ServerWaitPolicy,
	} {
		assert.Positive(t, p.SpinIters, name)
		assert.Positive(t, p.YieldIters, name)
		assert.GreaterOrEqual(t, p.Sleep, time.Millisecond, name)
	}
}
