package scenario

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	arena "github.com/pavanmanishd/framearena"
)

type drawCmd struct {
	material  []byte
	constants []float32
	meshID    uint32
	released  *atomic.Int64
}

func (d *drawCmd) Destroy() {
	if d.released != nil {
		d.released.Add(1)
	}
}

var materials = [...]string{"mat_0", "mat_1", "mat_2"}

// emitDraws fills a command buffer. MakeSpan registers one cleanup that
// destroys every command.
func emitDraws(ep *arena.Epoch, n int, released *atomic.Int64) ([]drawCmd, error) {
	cmds := arena.MakeSpan[drawCmd](ep, n)
	if cmds == nil {
		return nil, oom("draw commands")
	}
	for i := range cmds {
		c := &cmds[i]
		c.released = released
		c.material = arenaString(ep, materials[i%len(materials)])
		c.constants = arena.AllocSlice[float32](ep, 16)
		if c.material == nil || c.constants == nil {
			return nil, oom("draw constants")
		}
		for k := range c.constants {
			c.constants[k] = float32(i*16 + k)
		}
		c.meshID = uint32(i % 7)
	}
	return cmds, nil
}

func runDrawCommands(f *Frame) (Result, error) {
	const count = 128
	var released atomic.Int64

	res, err := f.run(func(ep *arena.Epoch) (Result, error) {
		cmds, err := emitDraws(ep, count, &released)
		if err != nil {
			return Result{}, err
		}
		if got := string(cmds[5].material); got != "mat_2" {
			return Result{}, fmt.Errorf("draw: command 5 material %q, want mat_2", got)
		}
		if got := cmds[5].constants[0]; got != 80 {
			return Result{}, fmt.Errorf("draw: command 5 constant %g, want 80", got)
		}
		return Result{Objects: count}, nil
	})
	if err != nil {
		return res, err
	}
	res.Cleanups = released.Load()
	if res.Cleanups != count {
		return res, fmt.Errorf("draw: %d commands destroyed, want %d", res.Cleanups, count)
	}
	return res, nil
}

// runFrameBarrier has every worker build its own render list on a private
// lane, joins them, and resets once all epochs are closed.
func runFrameBarrier(f *Frame) (Result, error) {
	const perWorker = 200
	var (
		released atomic.Int64
		g        errgroup.Group
		workers  = f.workers()
	)
	for w := 0; w < workers; w++ {
		seed := int64(1337 + w)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			ep := f.Arena.EnterWith(arena.NewLane())
			defer ep.Leave()

			cmds := arena.MakeSpan[drawCmd](ep, perWorker)
			if cmds == nil {
				return oom("worker command list")
			}
			for i := range cmds {
				c := &cmds[i]
				c.released = &released
				c.material = arenaString(ep, "m"+strconv.Itoa(rng.Intn(8)))
				c.constants = arena.AllocSlice[float32](ep, 8)
				if c.material == nil || c.constants == nil {
					return oom("worker constants")
				}
				for k := range c.constants {
					c.constants[k] = float32(k + i)
				}
				c.meshID = uint32(rng.Intn(32))
			}
			for i := range cmds {
				if cmds[i].constants[7] != float32(7+i) {
					return fmt.Errorf("frame: worker %d command %d overwritten", seed-1337, i)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	res := Result{Objects: workers * perWorker, Bytes: f.Arena.SizeInUse()}
	if rerr := f.reset(); err == nil {
		err = rerr
	}
	if err != nil {
		return res, err
	}
	res.Cleanups = released.Load()
	if res.Cleanups != int64(res.Objects) {
		return res, fmt.Errorf("frame: %d commands destroyed, want %d", res.Cleanups, res.Objects)
	}
	return res, nil
}
