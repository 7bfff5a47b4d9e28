package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlock(t *testing.T, size uintptr) *block {
	t.Helper()
	buf := HeapUpstream{}.Allocate(size, 1024)
	require.NotNil(t, buf)
	return newBlock(buf, size)
}

func TestBlockBump(t *testing.T) {
	b := newTestBlock(t, 256)

	p, ok := b.tryBump(10, 1)
	require.True(t, ok)
	assert.Equal(t, b.begin(), uintptr(p))
	assert.Equal(t, uintptr(10), b.used())

	p, ok = b.tryBump(8, 16)
	require.True(t, ok)
	assert.Equal(t, b.begin()+16, uintptr(p))
	assert.Equal(t, uintptr(24), b.used())

	// Exact fit up to the end.
	p, ok = b.tryBump(256-24, 1)
	require.True(t, ok)
	assert.NotNil(t, p)
	assert.Equal(t, uintptr(256), b.used())

	_, ok = b.tryBump(1, 1)
	assert.False(t, ok)
}

func TestBlockBumpFailureLeavesCursor(t *testing.T) {
	b := newTestBlock(t, 128)
	_, ok := b.tryBump(100, 1)
	require.True(t, ok)

	assert.False(t, b.fits(64, 1))
	_, ok = b.tryBump(64, 1)
	assert.False(t, ok)
	assert.Equal(t, uintptr(100), b.used())

	// Padding alone past the end must fail too.
	_, ok = b.tryBump(0, 2048)
	assert.False(t, ok)
	assert.Equal(t, uintptr(100), b.used())
}

func TestBlockZeroBump(t *testing.T) {
	b := newTestBlock(t, 64)
	b.tryBump(3, 1)
	p, ok := b.tryBump(0, 16)
	assert.True(t, ok)
	assert.Nil(t, p)
	assert.Equal(t, uintptr(16), b.used(), "zero bump only aligns")
}

func TestBlockRewind(t *testing.T) {
	b := newTestBlock(t, 64)
	b.tryBump(40, 1)
	b.cleanups = &cleanup{fn: func(unsafe.Pointer) {}}

	b.rewind()
	assert.Zero(t, b.used())
	assert.Nil(t, b.cleanups)
	assert.True(t, b.fits(64, 1))
}

func TestBlockContains(t *testing.T) {
	b := newTestBlock(t, 64)
	base := unsafe.Pointer(unsafe.SliceData(b.buf))

	assert.True(t, b.contains(base, 64))
	assert.True(t, b.contains(unsafe.Add(base, 60), 4))
	assert.False(t, b.contains(unsafe.Add(base, 60), 5))

	other := make([]byte, 8)
	assert.False(t, b.contains(unsafe.Pointer(&other[0]), 1))
}
