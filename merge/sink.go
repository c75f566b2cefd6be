package merge

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/janelia-flyem/skeletonize/skel"
)

// Sink receives final merged skeletons with physical-unit vertices and
// radii.
type Sink interface {
	Upload(objectID uint64, g *skel.SkeletonGraph) error
}

// PrecomputedSink persists skeletons in the neuroglancer precomputed binary
// layout under "skeletons/{object_id}".
type PrecomputedSink struct {
	Store interface {
		Put(key string, value []byte) error
	}
}

// SkeletonKey returns the sink key for an object's merged skeleton.
func SkeletonKey(objectID uint64) string {
	return fmt.Sprintf("skeletons/%d", objectID)
}

func (s PrecomputedSink) Upload(objectID uint64, g *skel.SkeletonGraph) error {
	encoded, err := EncodePrecomputed(g)
	if err != nil {
		return err
	}
	return s.Store.Put(SkeletonKey(objectID), encoded)
}

// EncodePrecomputed serializes a skeleton as a precomputed skeleton record:
// little-endian uint32 vertex and edge counts, float32 vertex positions,
// uint32 edge index pairs, then the float32 vertex radii attribute.
func EncodePrecomputed(g *skel.SkeletonGraph) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(g.NumVertices())); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(g.NumEdges())); err != nil {
		return nil, err
	}
	for _, w := range []interface{}{g.Vertices, g.Edges, g.Radii} {
		if err := binary.Write(&buf, binary.LittleEndian, w); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodePrecomputed recovers a skeleton from its precomputed record.
func DecodePrecomputed(b []byte) (*skel.SkeletonGraph, error) {
	buf := bytes.NewReader(b)
	var numVertices, numEdges uint32
	if err := binary.Read(buf, binary.LittleEndian, &numVertices); err != nil {
		return nil, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &numEdges); err != nil {
		return nil, err
	}
	expected := int64(4 + 4 + 12*int64(numVertices) + 8*int64(numEdges) + 4*int64(numVertices))
	if int64(len(b)) != expected {
		return nil, fmt.Errorf("precomputed skeleton is %d bytes, expected %d for %d vertices / %d edges",
			len(b), expected, numVertices, numEdges)
	}
	g := &skel.SkeletonGraph{
		Vertices: make([][3]float32, numVertices),
		Edges:    make([][2]uint32, numEdges),
		Radii:    make([]float32, numVertices),
	}
	for _, w := range []interface{}{g.Vertices, g.Edges, g.Radii} {
		if err := binary.Read(buf, binary.LittleEndian, w); err != nil {
			return nil, err
		}
	}
	return g, nil
}
