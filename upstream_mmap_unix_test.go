//go:build unix

package arena

import (
	"os"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmapUpstream(t *testing.T) {
	page := uintptr(os.Getpagesize())
	buf := MmapUpstream{}.Allocate(3*page, 64)
	require.Len(t, buf, int(3*page))
	assert.Zero(t, uintptr(unsafe.Pointer(unsafe.SliceData(buf)))%page)

	for i := range buf {
		buf[i] = 0xAB
	}
	MmapUpstream{}.Deallocate(buf)
	MmapUpstream{}.Deallocate(nil)
}

func TestMmapUpstreamRejects(t *testing.T) {
	page := uintptr(os.Getpagesize())
	assert.Nil(t, MmapUpstream{}.Allocate(page, 2*page))
	assert.Nil(t, MmapUpstream{}.Allocate(0, 16))
	assert.Nil(t, MmapUpstream{}.Allocate(page, 3))
}

func TestArenaOnMmap(t *testing.T) {
	var destroyed int
	a := New(Options{InitialBlockBytes: 16 << 10, Upstream: MmapUpstream{}})

	ep := a.Enter()
	for i := 0; i < 100; i++ {
		o := Alloc[trackedObject](ep)
		require.NotNil(t, o)
		o.counter = &destroyed
	}
	s := AllocSliceZeroed[uint32](ep, 10000)
	require.Len(t, s, 10000)
	s[9999] = 1
	ep.Leave()

	require.True(t, a.PurgeSafely(5*time.Millisecond))
	assert.Equal(t, 100, destroyed)
	assert.Zero(t, a.TotalReserved())
}
