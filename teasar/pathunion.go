package teasar

import (
	"fmt"

	"github.com/janelia-flyem/skeletonize/skel"
)

// packBits is the per-axis width of packed coordinate keys.  Components are
// chunk-local, so coordinates are non-negative and well under 2^21.
const packBits = 21

func packPoint(p skel.Point3d) uint64 {
	return uint64(p[0]) | uint64(p[1])<<packBits | uint64(p[2])<<(2*packBits)
}

// PathUnion folds a set of paths sharing a common root into one
// deduplicated tree.  Vertices are numbered first-seen-wins in path order;
// edges are emitted by an explicit-stack traversal from the root (the first
// coordinate of the first path) following children in insertion order, so
// paths sharing sub-paths become one branching tree rather than duplicated
// chains.  Coordinates unreachable from the root mean the inputs did not
// actually share a root, which is a contract violation and an error.
func PathUnion(paths [][]skel.Point3d) (vertices []skel.Point3d, edges [][2]uint32, err error) {
	if len(paths) == 0 || len(paths[0]) == 0 {
		return nil, nil, nil
	}

	ids := make(map[uint64]uint32)
	var children [][]uint32
	register := func(p skel.Point3d) uint32 {
		key := packPoint(p)
		if id, found := ids[key]; found {
			return id
		}
		id := uint32(len(vertices))
		ids[key] = id
		vertices = append(vertices, p)
		children = append(children, nil)
		return id
	}

	// A single-voxel path still registers its root.
	rootID := register(paths[0][0])

	edgeSeen := make(map[uint64]struct{})
	for _, path := range paths {
		for i := 0; i+1 < len(path); i++ {
			parent := register(path[i])
			child := register(path[i+1])
			key := uint64(parent)<<32 | uint64(child)
			if _, found := edgeSeen[key]; found {
				continue
			}
			edgeSeen[key] = struct{}{}
			children[parent] = append(children[parent], child)
		}
	}

	// Depth-first traversal with an explicit stack; recursion would blow
	// the stack on skeletons with thousands of vertices.
	type frame struct {
		parent, child uint32
	}
	visited := make([]bool, len(vertices))
	visited[rootID] = true
	reached := 1
	stack := make([]frame, 0, len(vertices))
	pushChildren := func(parent uint32) {
		kids := children[parent]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{parent, kids[i]})
		}
	}
	pushChildren(rootID)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.child] {
			// A voxel approached along two paths keeps the parent from
			// its first traversal.
			continue
		}
		visited[f.child] = true
		reached++
		edges = append(edges, [2]uint32{f.parent, f.child})
		pushChildren(f.child)
	}

	if reached != len(vertices) {
		return nil, nil, fmt.Errorf("path union: %d of %d vertices unreachable from root %s; paths do not share a root",
			len(vertices)-reached, len(vertices), vertices[rootID])
	}
	return vertices, edges, nil
}
