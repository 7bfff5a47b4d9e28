package scenario

import (
	"bytes"
	"fmt"
	"strconv"
	"sync/atomic"

	arena "github.com/pavanmanishd/framearena"
)

type transform struct {
	local, world mat4
}

type sceneNode struct {
	name     []byte
	xform    *transform
	children []*sceneNode
	released *atomic.Int64
}

func (n *sceneNode) Destroy() {
	if n.released != nil {
		n.released.Add(1)
	}
}

func newSceneNode(ep *arena.Epoch, name string, local mat4, released *atomic.Int64) *sceneNode {
	n := arena.Alloc[sceneNode](ep)
	if n == nil {
		return nil
	}
	n.released = released
	n.name = arenaString(ep, name)
	n.xform = arena.Create(ep, transform{local: local, world: identity()})
	if n.name == nil || n.xform == nil {
		return nil
	}
	return n
}

func buildSubtree(ep *arena.Epoch, parent *sceneNode, depth, fanout int, counter *int, released *atomic.Int64) error {
	if depth == 0 {
		return nil
	}
	parent.children = arena.AllocSliceZeroed[*sceneNode](ep, fanout)
	if parent.children == nil {
		return oom("scene children")
	}
	for i := range parent.children {
		node := newSceneNode(ep, "entity_"+strconv.Itoa(*counter), translate(float32(i), float32(depth), 0), released)
		if node == nil {
			return oom("scene node")
		}
		*counter++
		parent.children[i] = node
		if err := buildSubtree(ep, node, depth-1, fanout, counter, released); err != nil {
			return err
		}
	}
	return nil
}

func updateWorld(n *sceneNode, parent *mat4) {
	n.xform.world = mul(parent, &n.xform.local)
	for _, c := range n.children {
		updateWorld(c, &n.xform.world)
	}
}

func runSceneGraph(f *Frame) (Result, error) {
	const depth, fanout = 3, 5
	var released atomic.Int64

	res, err := f.run(func(ep *arena.Epoch) (Result, error) {
		root := newSceneNode(ep, "root", identity(), &released)
		if root == nil {
			return Result{}, oom("scene root")
		}
		count := 0
		if err := buildSubtree(ep, root, depth, fanout, &count, &released); err != nil {
			return Result{}, err
		}
		id := identity()
		updateWorld(root, &id)

		if len(root.children) != fanout {
			return Result{}, fmt.Errorf("scene: root has %d children, want %d", len(root.children), fanout)
		}
		if !bytes.HasPrefix(root.children[0].name, []byte("entity_")) {
			return Result{}, fmt.Errorf("scene: unexpected node name %q", root.children[0].name)
		}
		// Translations add along the path: x = 4+4+4, y = 3+2+1.
		leaf := root.children[4].children[4].children[4]
		if w := leaf.xform.world; !near(w[12], 12) || !near(w[13], 6) {
			return Result{}, fmt.Errorf("scene: leaf world translation (%g, %g), want (12, 6)", w[12], w[13])
		}
		return Result{Objects: count + 1}, nil
	})
	if err != nil {
		return res, err
	}
	res.Cleanups = released.Load()
	if res.Cleanups != int64(res.Objects) {
		return res, fmt.Errorf("scene: %d nodes destroyed, want %d", res.Cleanups, res.Objects)
	}
	return res, nil
}
