package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapUpstreamAlignment(t *testing.T) {
	for _, align := range []uintptr{8, 16, 64, 256, 4096} {
		buf := HeapUpstream{}.Allocate(1000, align)
		require.Len(t, buf, 1000, "align=%d", align)
		assert.Equal(t, 1000, cap(buf), "callers cannot grow into the padding")
		assert.Zero(t, uintptr(unsafe.Pointer(unsafe.SliceData(buf)))%align)
	}
}

func TestHeapUpstreamRejects(t *testing.T) {
	tests := []struct {
		name        string
		size, align uintptr
	}{
		{"zero size", 0, 16},
		{"alignment not power of two", 64, 24},
		{"alignment below pointer size", 64, 1},
		{"zero alignment", 64, 0},
		{"size above request limit", maxBlockRequest + 1, 16},
		{"alignment above request limit", 64, maxBlockRequest << 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, HeapUpstream{}.Allocate(tt.size, tt.align))
		})
	}
}

func TestUpstreamFuncs(t *testing.T) {
	type pool struct {
		allocs, frees int
	}
	ctx := &pool{}
	up := UpstreamFuncs{
		AllocateFunc: func(size, alignment uintptr, user any) []byte {
			user.(*pool).allocs++
			return HeapUpstream{}.Allocate(size, alignment)
		},
		DeallocateFunc: func(buf []byte, user any) {
			user.(*pool).frees++
		},
		User: ctx,
	}

	a := New(Options{InitialBlockBytes: 512, Upstream: up})
	for i := 0; i < 20; i++ {
		require.NotNil(t, a.AllocBytes(100))
	}
	a.Purge()
	assert.Positive(t, ctx.allocs)
	assert.Equal(t, ctx.allocs, ctx.frees)
}

func TestUpstreamFuncsNil(t *testing.T) {
	var up UpstreamFuncs
	assert.Nil(t, up.Allocate(64, 16))
	assert.NotPanics(t, func() { up.Deallocate(make([]byte, 1)) })

	a := New(Options{Upstream: up})
	assert.Nil(t, a.Allocate(8, 0))
}

func TestArenaAsksUpstreamForItsAlignment(t *testing.T) {
	var got []uintptr
	up := UpstreamFuncs{
		AllocateFunc: func(size, alignment uintptr, _ any) []byte {
			got = append(got, alignment)
			return HeapUpstream{}.Allocate(size, alignment)
		},
	}
	a := New(Options{Alignment: 64, Upstream: up})
	p := a.Allocate(8, 0)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%64)
	assert.Equal(t, []uintptr{64}, got)
}
