package arena

// SizeInUse returns the total number of bytes currently allocated in the arena.
// This includes internal fragmentation due to alignment.
func (a *Arena) SizeInUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.sizeInUseLocked())
}

func (a *Arena) sizeInUseLocked() uintptr {
	var sum uintptr
	for b := a.head; b != nil; b = b.next {
		sum += b.used()
	}
	return sum
}

// NumBlocks returns the number of blocks currently owned by the arena.
func (a *Arena) NumBlocks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nblocks
}

// Capacity returns the total usable capacity (in bytes) of all blocks.
func (a *Arena) Capacity() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.capacityLocked())
}

func (a *Arena) capacityLocked() uintptr {
	var sum uintptr
	for b := a.head; b != nil; b = b.next {
		sum += b.capacity()
	}
	return sum
}

// Utilization returns the ratio of bytes in use to total capacity (0.0 to 1.0).
// Returns 0.0 if the arena has no capacity.
func (a *Arena) Utilization() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return utilization(a.sizeInUseLocked(), a.capacityLocked())
}

func utilization(used, capacity uintptr) float64 {
	if capacity == 0 {
		return 0
	}
	return float64(used) / float64(capacity)
}

// Metrics returns a snapshot of arena statistics. Blocks may be bumped by
// other goroutines while the snapshot is taken; each cursor is read once.
func (a *Arena) Metrics() ArenaMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	used, capacity := a.sizeInUseLocked(), a.capacityLocked()
	return ArenaMetrics{
		SizeInUse:         int(used),
		Capacity:          int(capacity),
		Reserved:          int(a.reserved.Load()),
		NumBlocks:         a.nblocks,
		SpareBlocks:       len(a.spare),
		InitialBlockBytes: int(a.opts.InitialBlockBytes),
		ActiveEpochs:      int(a.state.count()),
		Frozen:            a.state.frozen(),
		Utilization:       utilization(used, capacity),
	}
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	SizeInUse         int     // Bytes currently allocated
	Capacity          int     // Usable bytes across all blocks
	Reserved          int     // Bytes obtained from the upstream
	NumBlocks         int     // Number of blocks
	SpareBlocks       int     // Rewound blocks waiting for a lane
	InitialBlockBytes int     // Configured first block size
	ActiveEpochs      int     // Epochs in flight
	Frozen            bool    // A safe reset is draining epochs
	Utilization       float64 // Ratio of used to total capacity (0.0-1.0)
}
