package chunk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/skeletonize/skel"
	"github.com/janelia-flyem/skeletonize/volume"
)

// Task skeletonizes every object present in chunks of a labeled volume.
type Task struct {
	Volume volume.Accessor
	Skel   *Skeletonizer
}

// Execute runs stage 1 for one chunk: fetch labels, renumber them into a
// compact working range, compute the chunk's boundary-distance field, and
// skeletonize each object.  Per-object failures are collected and joined so
// one bad object doesn't abort the rest of the chunk.
func (t *Task) Execute(bounds skel.Bbox) error {
	tlog := skel.NewTimeLog()

	labels, err := t.Volume.GetLabels(bounds)
	if err != nil {
		return fmt.Errorf("reading labels for chunk %s: %v", bounds, err)
	}
	dense, inverse := volume.Renumber(labels)
	dbf := ChunkDBF(dense, t.Volume.Resolution())

	var errs []error
	var numVertices int64
	for denseID := uint64(1); denseID <= uint64(len(inverse)); denseID++ {
		objectID := inverse[denseID]
		g, err := t.Skel.Process(labels, dbf, objectID)
		if err != nil {
			skel.Errorf("Error skeletonizing object %d in chunk %s: %v\n", objectID, labels.Bounds, err)
			errs = append(errs, err)
			continue
		}
		numVertices += int64(g.NumVertices())
	}

	tlog.Infof("Skeletonized chunk %s: %d objects, %s vertices", labels.Bounds,
		len(inverse), humanize.Comma(numVertices))
	return errors.Join(errs...)
}

// GridChunks partitions bounds into chunks of the given size, each extended
// by overlap voxels past its high faces and clamped to bounds.  The overlap
// guarantees contiguous objects produce bbox-intersecting fragments for the
// merge stage.
func GridChunks(bounds skel.Bbox, chunkSize skel.Point3d, overlap int32) []skel.Bbox {
	var chunks []skel.Bbox
	for z := bounds.MinPt[2]; z < bounds.MaxPt[2]; z += chunkSize[2] {
		for y := bounds.MinPt[1]; y < bounds.MaxPt[1]; y += chunkSize[1] {
			for x := bounds.MinPt[0]; x < bounds.MaxPt[0]; x += chunkSize[0] {
				chunk := skel.NewBbox(skel.Point3d{x, y, z}, chunkSize.AddScalar(overlap))
				chunks = append(chunks, chunk.Clamp(bounds))
			}
		}
	}
	return chunks
}

// RunGrid executes the task over every chunk of the grid with at most
// workers chunks in flight.  Chunk errors are collected rather than
// canceling sibling chunks; the joined errors are returned after all chunks
// finish.  Canceling ctx stops unstarted chunks.
func (t *Task) RunGrid(ctx context.Context, bounds skel.Bbox, chunkSize skel.Point3d,
	overlap int32, workers int) error {

	chunks := GridChunks(bounds, chunkSize, overlap)
	skel.Infof("Skeletonizing %s across %d chunks with %d workers...\n",
		bounds, len(chunks), workers)

	var mu sync.Mutex
	var errs []error
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		chunk := chunk
		g.Go(func() error {
			if err := t.Execute(chunk); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			// Always nil: a chunk failure must not cancel siblings.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
