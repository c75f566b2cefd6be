package skel

// SkeletonGraph is a 1-d centerline tree: a vertex list with per-vertex
// radii and an edge list of vertex index pairs.  Vertex positions start in
// chunk-local voxel units at extraction and are translated to chunk-global
// coordinates and then scaled to physical units by the stage 1 pipeline.
// A radius is the boundary distance sampled at the vertex's voxel at
// extraction time; it is immutable afterwards except during consolidation.
type SkeletonGraph struct {
	Vertices [][3]float32
	Edges    [][2]uint32
	Radii    []float32
}

// Empty returns true if the skeleton has no vertices.
func (g *SkeletonGraph) Empty() bool {
	return g == nil || len(g.Vertices) == 0
}

// NumVertices returns the number of vertices.
func (g *SkeletonGraph) NumVertices() int {
	if g == nil {
		return 0
	}
	return len(g.Vertices)
}

// NumEdges returns the number of edges.
func (g *SkeletonGraph) NumEdges() int {
	if g == nil {
		return 0
	}
	return len(g.Edges)
}

// Clone returns a deep copy of the skeleton.
func (g *SkeletonGraph) Clone() *SkeletonGraph {
	dup := &SkeletonGraph{
		Vertices: make([][3]float32, len(g.Vertices)),
		Edges:    make([][2]uint32, len(g.Edges)),
		Radii:    make([]float32, len(g.Radii)),
	}
	copy(dup.Vertices, g.Vertices)
	copy(dup.Edges, g.Edges)
	copy(dup.Radii, g.Radii)
	return dup
}

// Append concatenates another skeleton onto this one, offsetting the
// appended edge indices by the current vertex count.
func (g *SkeletonGraph) Append(other *SkeletonGraph) {
	if other.Empty() {
		return
	}
	offset := uint32(len(g.Vertices))
	g.Vertices = append(g.Vertices, other.Vertices...)
	g.Radii = append(g.Radii, other.Radii...)
	for _, e := range other.Edges {
		g.Edges = append(g.Edges, [2]uint32{e[0] + offset, e[1] + offset})
	}
}

// Translate moves every vertex by the given voxel offset.
func (g *SkeletonGraph) Translate(offset Point3d) {
	for i := range g.Vertices {
		g.Vertices[i][0] += float32(offset[0])
		g.Vertices[i][1] += float32(offset[1])
		g.Vertices[i][2] += float32(offset[2])
	}
}

// Scale converts vertex positions from voxel units to physical units given
// per-axis resolution.  Radii are untouched since boundary distances are
// already physical.
func (g *SkeletonGraph) Scale(res NdFloat32) {
	for i := range g.Vertices {
		g.Vertices[i][0] *= res[0]
		g.Vertices[i][1] *= res[1]
		g.Vertices[i][2] *= res[2]
	}
}

// Crop returns a skeleton holding only vertices inside the given voxel
// bounds, dropping edges that lose an endpoint and remapping the rest.
// Vertex order is preserved.
func (g *SkeletonGraph) Crop(bounds Bbox) *SkeletonGraph {
	remap := make([]uint32, len(g.Vertices))
	cropped := &SkeletonGraph{}
	for i, v := range g.Vertices {
		remap[i] = uint32(len(cropped.Vertices))
		if containsF(bounds, v) {
			cropped.Vertices = append(cropped.Vertices, v)
			cropped.Radii = append(cropped.Radii, g.Radii[i])
		} else {
			remap[i] = ^uint32(0)
		}
	}
	for _, e := range g.Edges {
		v0, v1 := remap[e[0]], remap[e[1]]
		if v0 != ^uint32(0) && v1 != ^uint32(0) {
			cropped.Edges = append(cropped.Edges, [2]uint32{v0, v1})
		}
	}
	return cropped
}

func containsF(b Bbox, v [3]float32) bool {
	for dim := 0; dim < 3; dim++ {
		if v[dim] < float32(b.MinPt[dim]) || v[dim] >= float32(b.MaxPt[dim]) {
			return false
		}
	}
	return true
}

// Serialize encodes the skeleton for persistence using the standard
// gob + snappy + CRC32 envelope.
func (g *SkeletonGraph) Serialize() ([]byte, error) {
	return Serialize(g, DefaultCompression, DefaultChecksum)
}

// DeserializeSkeleton decodes a skeleton persisted by Serialize.
func DeserializeSkeleton(b []byte) (*SkeletonGraph, error) {
	g := new(SkeletonGraph)
	if err := Deserialize(b, g); err != nil {
		return nil, err
	}
	return g, nil
}
