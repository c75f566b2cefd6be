package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/skeletonize/skel"
	"github.com/janelia-flyem/skeletonize/volume"
)

// Config is the TOML-configured pipeline setup.
type Config struct {
	Volume   VolumeConfig
	Storage  StorageConfig
	Teasar   TeasarConfig
	Chunking ChunkingConfig
	Logging  skel.LogConfig
}

type VolumeConfig struct {
	// Path to a raw little-endian uint64 label file in x-fastest order.
	Path string

	Offset     string // "x,y,z" voxel offset of the volume origin
	Size       string // "x,y,z" voxel extents
	Resolution string // "x,y,z" physical units per voxel

	// CacheMB caches label chunks in memory so stage 2's point-cloud reads
	// don't reload what stage 1 already fetched.
	CacheMB int `toml:"cache_mb"`
}

type StorageConfig struct {
	Engine string // a registered storage engine name, e.g. "badger"
	Path   string
}

type TeasarConfig struct {
	Scale               float64
	Const               float64
	MaxBoundaryDistance float64 `toml:"max_boundary_distance"`
}

type ChunkingConfig struct {
	ChunkSize  string `toml:"chunk_size"` // "x,y,z" voxels per chunk
	Overlap    int32  // voxels added past each chunk's high faces
	CropMargin int32  `toml:"crop_margin"`
	Workers    int    // max concurrent chunks or merge shards; 0 = NumCPU
}

func (c ChunkingConfig) chunkSize() (skel.Point3d, error) {
	size, err := skel.StringToPoint3d(c.ChunkSize, ",")
	if err != nil {
		return size, fmt.Errorf("bad chunk_size: %v", err)
	}
	return size, nil
}

func (c ChunkingConfig) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// LoadConfig reads and decodes the TOML config at path.
func LoadConfig(path string) (*Config, error) {
	config := new(Config)
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("decoding config %q: %v", path, err)
	}
	return config, nil
}

// cachedVolume couples the caching accessor with the volume's known extents
// so both pipeline stages can iterate its chunks.
type cachedVolume struct {
	*volume.CachingAccessor
	bounds skel.Bbox
}

func (v *cachedVolume) Bounds() skel.Bbox {
	return v.bounds
}

// OpenVolume loads the raw label file into an in-memory volume wrapped with
// a chunk cache.
func (c *Config) OpenVolume() (*cachedVolume, error) {
	offset, err := skel.StringToPoint3d(c.Volume.Offset, ",")
	if err != nil {
		return nil, fmt.Errorf("bad volume offset: %v", err)
	}
	size, err := skel.StringToPoint3d(c.Volume.Size, ",")
	if err != nil {
		return nil, fmt.Errorf("bad volume size: %v", err)
	}
	res, err := skel.StringToNdFloat32(c.Volume.Resolution, ",")
	if err != nil {
		return nil, fmt.Errorf("bad volume resolution: %v", err)
	}
	bounds := skel.NewBbox(offset, size)

	raw, err := os.ReadFile(c.Volume.Path)
	if err != nil {
		return nil, fmt.Errorf("reading label volume: %v", err)
	}
	numVoxels := bounds.Volume()
	if int64(len(raw)) != 8*numVoxels {
		return nil, fmt.Errorf("label volume %q is %s but %s of uint64 labels needs %s",
			c.Volume.Path, humanize.Bytes(uint64(len(raw))), bounds,
			humanize.Bytes(uint64(8*numVoxels)))
	}
	data := make([]uint64, numVoxels)
	for i := range data {
		data[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	vol, err := volume.NewInMemoryVolume(bounds, data, res)
	if err != nil {
		return nil, err
	}

	cacheMB := c.Volume.CacheMB
	if cacheMB <= 0 {
		cacheMB = 256
	}
	skel.Infof("Loaded %s label volume %s with %d MB chunk cache\n",
		humanize.Bytes(uint64(len(raw))), bounds, cacheMB)
	return &cachedVolume{
		CachingAccessor: volume.NewCachingAccessor(vol, cacheMB<<20),
		bounds:          bounds,
	}, nil
}
