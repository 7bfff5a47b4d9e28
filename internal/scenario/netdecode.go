package scenario

import (
	"fmt"
	"hash/fnv"

	arena "github.com/pavanmanishd/framearena"
)

// netEntityMsg is a decoded message; it lives only in the arena.
type netEntityMsg struct {
	id         uint32
	px, py, pz float32
	tag        []byte
}

// entityLite is the persistent subset kept after the frame.
type entityLite struct {
	id         uint32
	px, py, pz float32
	tagHash    uint32
}

func fnv32a(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}

func decodeBurst(ep *arena.Epoch, n int) ([]netEntityMsg, error) {
	msgs := arena.MakeSpan[netEntityMsg](ep, n)
	if msgs == nil {
		return nil, oom("net messages")
	}
	for i := range msgs {
		m := &msgs[i]
		m.id = uint32(i + 1)
		m.px, m.py = float32(i), float32(i*2)
		tag := "npc"
		if i%2 == 0 {
			tag = "enemy"
		}
		if m.tag = arenaString(ep, tag); m.tag == nil {
			return nil, oom("net tag")
		}
	}
	return msgs, nil
}

func runNetDecode(f *Frame) (Result, error) {
	const burst = 200
	var persistent []entityLite

	res, err := f.run(func(ep *arena.Epoch) (Result, error) {
		msgs, err := decodeBurst(ep, burst)
		if err != nil {
			return Result{}, err
		}
		persistent = make([]entityLite, 0, len(msgs))
		for i := range msgs {
			m := &msgs[i]
			persistent = append(persistent, entityLite{
				id: m.id, px: m.px, py: m.py, pz: m.pz,
				tagHash: fnv32a(m.tag),
			})
		}
		return Result{Objects: burst}, nil
	})
	if err != nil {
		return res, err
	}

	// The arena has been reset; only the copies remain.
	if len(persistent) != burst {
		return res, fmt.Errorf("net: %d entities persisted, want %d", len(persistent), burst)
	}
	if persistent[0].tagHash != fnv32a([]byte("enemy")) || persistent[1].tagHash != fnv32a([]byte("npc")) {
		return res, fmt.Errorf("net: persisted tag hashes do not match")
	}
	if persistent[199].id != 200 || persistent[199].py != 398 {
		return res, fmt.Errorf("net: last entity %+v", persistent[199])
	}
	return res, nil
}
