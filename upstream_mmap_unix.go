//go:build unix

package arena

import (
	"os"

	"golang.org/x/sys/unix"
)

// MmapUpstream maps blocks as anonymous private memory outside the Go heap.
// Blocks are page aligned and returned to the kernel on Deallocate, so Purge
// releases memory immediately instead of waiting for a GC cycle.
type MmapUpstream struct{}

// Allocate satisfies the Upstream interface. Alignments larger than the page
// size are not supported and yield nil.
func (MmapUpstream) Allocate(size, alignment uintptr) []byte {
	if !isPow2(alignment) || alignment > uintptr(os.Getpagesize()) || size == 0 || size > maxBlockRequest {
		return nil
	}
	buf, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil
	}
	return buf
}

// Deallocate satisfies the Upstream interface.
func (MmapUpstream) Deallocate(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_ = unix.Munmap(buf)
}
