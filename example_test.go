package arena

import (
	"fmt"
	"sync"
	"time"
	"unsafe"
)

// Example demonstrates basic arena usage
func Example() {
	a := New(DefaultOptions())
	defer a.Purge()

	// Hold one epoch for a run of allocations.
	ep := a.Enter()

	// Allocate raw bytes
	buf := ep.AllocBytes(1024)
	fmt.Printf("Allocated buffer of size: %d\n", len(buf))

	// Allocate a typed value (zeroed)
	ptr := Alloc[int](ep)
	*ptr = 42
	fmt.Printf("Allocated int with value: %d\n", *ptr)

	// Allocate a slice
	slice := AllocSlice[int](ep, 5)
	for i := range slice {
		slice[i] = i * 2
	}
	fmt.Printf("Allocated slice: %v\n", slice)

	fmt.Printf("Memory in use: %d bytes\n", a.SizeInUse())
	fmt.Printf("Utilization: %.2f%%\n", a.Utilization()*100)
	ep.Leave()

	// Rewind at the frame boundary
	ok := a.ResetSafely(2 * time.Millisecond)
	fmt.Printf("Reset: %v, memory in use: %d bytes\n", ok, a.SizeInUse())

	// Output:
	// Allocated buffer of size: 1024
	// Allocated int with value: 42
	// Allocated slice: [0 2 4 6 8]
	// Memory in use: 1080 bytes
	// Utilization: 1.65%
	// Reset: true, memory in use: 0 bytes
}

// ExampleArena_Enter demonstrates many goroutines allocating concurrently
func ExampleArena_Enter() {
	a := New(Options{InitialBlockBytes: 4096})
	defer a.Purge()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ep := a.Enter()
			defer ep.Leave()

			sum := 0
			for i := 0; i < 100; i++ {
				sum += *Create(ep, 1)
			}
			mu.Lock()
			total += sum
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	fmt.Printf("Values allocated: %d\n", total)
	fmt.Printf("Idle: %v\n", a.IsIdle())

	// Output:
	// Values allocated: 300
	// Idle: true
}

type frameTexture struct {
	id int
}

func (t *frameTexture) Destroy() {
	fmt.Printf("release texture %d\n", t.id)
}

// ExampleDestructor demonstrates destructors running at reset
func ExampleDestructor() {
	a := New(Options{InitialBlockBytes: 4096})

	ep := a.Enter()
	for i := 0; i < 3; i++ {
		Create(ep, frameTexture{id: i})
	}
	ep.Leave()

	fmt.Println("frame done")
	a.ResetSafely(time.Millisecond)

	// Output:
	// frame done
	// release texture 2
	// release texture 1
	// release texture 0
}

// ExampleArena_Reset demonstrates arena reuse with Reset
func ExampleArena_Reset() {
	a := NewArena(1024)
	defer a.Purge()

	for round := 1; round <= 3; round++ {
		ep := a.Enter()
		for i := 0; i < 5; i++ {
			Alloc[int64](ep)
		}
		ep.Leave()

		fmt.Printf("Round %d - Memory in use: %d bytes, blocks: %d\n", round, a.SizeInUse(), a.NumBlocks())

		// Reset arena for next round, keeping its blocks
		a.Reset()
	}

	// Output:
	// Round 1 - Memory in use: 72 bytes, blocks: 1
	// Round 2 - Memory in use: 72 bytes, blocks: 1
	// Round 3 - Memory in use: 72 bytes, blocks: 1
}

// ExampleArenaMetrics demonstrates monitoring arena performance
func ExampleArenaMetrics() {
	a := NewArena(1024)
	defer a.Purge()

	ep := a.Enter()
	ep.AllocBytes(100)
	Alloc[int64](ep)
	AllocSlice[int32](ep, 50)
	ep.Leave()

	metrics := a.Metrics()
	fmt.Printf("Metrics:\n")
	fmt.Printf("  Size in use: %d bytes\n", metrics.SizeInUse)
	fmt.Printf("  Capacity: %d bytes\n", metrics.Capacity)
	fmt.Printf("  Blocks: %d\n", metrics.NumBlocks)
	fmt.Printf("  Initial block size: %d bytes\n", metrics.InitialBlockBytes)
	fmt.Printf("  Utilization: %.1f%%\n", metrics.Utilization*100)

	// Output:
	// Metrics:
	//   Size in use: 328 bytes
	//   Capacity: 1024 bytes
	//   Blocks: 1
	//   Initial block size: 1024 bytes
	//   Utilization: 32.0%
}

// ExampleArena_alignment demonstrates that allocations are properly aligned
func ExampleArena_alignment() {
	a := NewArena(1024)
	defer a.Purge()

	ptr1 := Alloc[int8](a)
	ptr2 := Alloc[int64](a)
	ptr3 := Alloc[int32](a)
	ptr4 := a.Allocate(64, 64)

	fmt.Printf("int8 address alignment: %d\n", uintptr(unsafe.Pointer(ptr1))%DefaultAlignment)
	fmt.Printf("int64 address alignment: %d\n", uintptr(unsafe.Pointer(ptr2))%DefaultAlignment)
	fmt.Printf("int32 address alignment: %d\n", uintptr(unsafe.Pointer(ptr3))%DefaultAlignment)
	fmt.Printf("64-byte request alignment: %d\n", uintptr(ptr4)%64)

	// Output:
	// int8 address alignment: 0
	// int64 address alignment: 0
	// int32 address alignment: 0
	// 64-byte request alignment: 0
}

// ExampleBatch demonstrates scoping a frame with a Batch
func ExampleBatch() {
	frame := New(Options{InitialBlockBytes: 4096})
	defer frame.Purge()

	for i := 1; i <= 2; i++ {
		b := NewBatch(frame, 2*time.Millisecond)
		AllocSlice[float32](frame, 64)
		fmt.Printf("frame %d reset: %v\n", i, b.End())
		fmt.Printf("frame %d second End: %v\n", i, b.End())
	}

	// Output:
	// frame 1 reset: true
	// frame 1 second End: false
	// frame 2 reset: true
	// frame 2 second End: false
}
