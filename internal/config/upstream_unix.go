//go:build unix

package config

import (
	"fmt"

	arena "github.com/pavanmanishd/framearena"
)

func upstream(name string) (arena.Upstream, error) {
	switch name {
	case "", "heap":
		return arena.HeapUpstream{}, nil
	case "mmap":
		return arena.MmapUpstream{}, nil
	}
	return nil, fmt.Errorf("%w: upstream %q", ErrInvalid, name)
}
