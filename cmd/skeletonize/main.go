// Command-line driver for the two-stage skeletonization pipeline:
// stage 1 skeletonizes each chunk of a labeled volume into fragments,
// stage 2 merges each object's fragments into one skeleton.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/skeletonize/chunk"
	"github.com/janelia-flyem/skeletonize/merge"
	"github.com/janelia-flyem/skeletonize/skel"
	"github.com/janelia-flyem/skeletonize/solver"
	"github.com/janelia-flyem/skeletonize/storage"
	"github.com/janelia-flyem/skeletonize/teasar"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")
)

const helpMessage = `
skeletonize extracts centerline skeletons from a labeled segmentation volume

Usage: skeletonize [options] <command> <config.toml>

      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	chunks <config.toml>   Run stage 1: skeletonize each chunk into fragments.
	merge  <config.toml>   Run stage 2: merge fragments per object and upload.
	all    <config.toml>   Run both stages.

Storage engines available: %s
`

var usage = func() {
	fmt.Printf(helpMessage, storage.EnginesAvailable())
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *runVerbose {
		skel.Verbose = true
		skel.SetLogMode(skel.DebugMode)
	}
	if *showHelp || flag.NArg() != 2 {
		flag.Usage()
		os.Exit(0)
	}

	command := strings.ToLower(flag.Args()[0])
	config, err := LoadConfig(flag.Args()[1])
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Logging.SetLogger()

	if err := run(command, config); err != nil {
		skel.Criticalf("Error running %q: %v\n", command, err)
		os.Exit(1)
	}
}

func run(command string, config *Config) error {
	vol, err := config.OpenVolume()
	if err != nil {
		return err
	}
	store, err := storage.NewStore(config.Storage.Engine, config.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	switch command {
	case "chunks":
		return runChunks(config, vol, store)
	case "merge":
		return runMerge(config, vol, store)
	case "all":
		if err := runChunks(config, vol, store); err != nil {
			return err
		}
		return runMerge(config, vol, store)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runChunks(config *Config, vol *cachedVolume, store storage.KeyValueStore) error {
	chunkSize, err := config.Chunking.chunkSize()
	if err != nil {
		return err
	}
	task := &chunk.Task{
		Volume: vol,
		Skel: &chunk.Skeletonizer{
			Solver: solver.NewGridDijkstra(),
			Store:  store,
			Params: teasar.Params{
				Scale:               config.Teasar.Scale,
				Const:               config.Teasar.Const,
				MaxBoundaryDistance: config.Teasar.MaxBoundaryDistance,
			},
			CropMargin: config.Chunking.CropMargin,
			Resolution: vol.Resolution(),
		},
	}
	return task.RunGrid(context.Background(), vol.Bounds(), chunkSize,
		config.Chunking.Overlap, config.Chunking.workers())
}

func runMerge(config *Config, vol *cachedVolume, store storage.KeyValueStore) error {
	m := &merge.Merger{
		Store:      store,
		Volume:     vol,
		Sink:       merge.PrecomputedSink{Store: store},
		Reconciler: merge.SeamReconciler{},
	}

	// Ids are decimal, so the nine leading-digit prefixes partition the id
	// space into shards that merge concurrently without coordination.
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(config.Chunking.workers())
	errs := make([]error, 9)
	for digit := 1; digit <= 9; digit++ {
		digit := digit
		g.Go(func() error {
			errs[digit-1] = m.MergeAll(fmt.Sprintf("%d", digit))
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}
