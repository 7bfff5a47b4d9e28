package scenario

import (
	"fmt"

	arena "github.com/pavanmanishd/framearena"
)

type pathNode struct {
	id        uint16
	neighbors []*pathNode
}

// makeGrid builds a w*h 4-connected grid.
func makeGrid(ep *arena.Epoch, w, h int) ([]pathNode, error) {
	nodes := arena.MakeSpan[pathNode](ep, w*h)
	if nodes == nil {
		return nil, oom("grid nodes")
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			n := &nodes[idx]
			n.id = uint16(idx)

			deg := 0
			if x > 0 {
				deg++
			}
			if x < w-1 {
				deg++
			}
			if y > 0 {
				deg++
			}
			if y < h-1 {
				deg++
			}
			n.neighbors = arena.AllocSlice[*pathNode](ep, deg)
			if n.neighbors == nil {
				return nil, oom("grid edges")
			}
			k := 0
			if x > 0 {
				n.neighbors[k] = &nodes[idx-1]
				k++
			}
			if x < w-1 {
				n.neighbors[k] = &nodes[idx+1]
				k++
			}
			if y > 0 {
				n.neighbors[k] = &nodes[idx-w]
				k++
			}
			if y < h-1 {
				n.neighbors[k] = &nodes[idx+w]
			}
		}
	}
	return nodes, nil
}

// minHops returns the BFS distance from start to goal, or -1. The queue and
// visited set live in the arena.
func minHops(ep *arena.Epoch, start, goal *pathNode, maxNodes int) (int, error) {
	queue := arena.AllocSlice[*pathNode](ep, maxNodes)
	seen := arena.AllocSliceZeroed[bool](ep, maxNodes)
	if queue == nil || seen == nil {
		return 0, oom("bfs scratch")
	}

	head, tail := 0, 0
	queue[tail] = start
	tail++
	seen[start.id] = true

	hops, levelLeft, nextLevel := 0, 1, 0
	for head < tail {
		n := queue[head]
		head++
		if n == goal {
			return hops, nil
		}
		for _, nb := range n.neighbors {
			if !seen[nb.id] {
				seen[nb.id] = true
				queue[tail] = nb
				tail++
				nextLevel++
			}
		}
		if levelLeft--; levelLeft == 0 {
			hops++
			levelLeft, nextLevel = nextLevel, 0
		}
	}
	return -1, nil
}

func runPathfinding(f *Frame) (Result, error) {
	const w, h = 16, 16
	return f.run(func(ep *arena.Epoch) (Result, error) {
		nodes, err := makeGrid(ep, w, h)
		if err != nil {
			return Result{}, err
		}
		hops, err := minHops(ep, &nodes[0], &nodes[w*h-1], w*h)
		if err != nil {
			return Result{}, err
		}
		if want := (w - 1) + (h - 1); hops != want {
			return Result{}, fmt.Errorf("pathfinding: %d hops, want %d", hops, want)
		}
		return Result{Objects: w * h}, nil
	})
}
