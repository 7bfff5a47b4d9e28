//go:build !unix

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
		return nil, fmt.Errorf("%w: mmap upstream is only available on unix", ErrInvalid)
	}
	return nil, fmt.Errorf("%w: upstream %q", ErrInvalid, name)
}
