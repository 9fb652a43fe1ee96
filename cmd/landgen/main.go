// Command landgen generates a terrain, scatters objects over it and walks a
// reference point across the pooling grid, writing images and CSV logs.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/config"
	"github.com/pthm-cable/landgen/telemetry"
	"github.com/pthm-cable/landgen/terrain"
	"github.com/pthm-cable/landgen/world"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for images, CSV logs and config snapshot (empty = use config)")
	seed := flag.Int64("seed", 0, "Terrain seed (0 = use config)")
	randomSeed := flag.Bool("random-seed", false, "Draw the terrain seed from the clock")
	noErode := flag.Bool("no-erode", false, "Skip hydraulic erosion")
	ticks := flag.Int("ticks", 0, "Pooling ticks to run along the terrain diagonal")
	chunks := flag.Int("chunks", 0, "Generate the ring of neighbouring chunks up to this distance")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Terrain.Seed = *seed
	}
	if *randomSeed {
		cfg.Terrain.GenerateSeed = true
	}
	if *noErode {
		cfg.Terrain.Erode = false
	}
	dir := cfg.Telemetry.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}

	if err := run(cfg, dir, *ticks, *chunks); err != nil {
		slog.Error("landgen failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, dir string, ticks, chunks int) error {
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	var sink terrain.Sink = &terrain.MemorySink{}
	var images *terrain.ImageSink
	if dir != "" {
		images, err = terrain.NewImageSink(filepath.Join(dir, "terrain"))
		if err != nil {
			return err
		}
		sink = images
	}

	w, err := world.New(cfg, sink, out)
	if err != nil {
		return err
	}
	if err := w.Generate(); err != nil {
		return err
	}
	w.FlushPerf("generate")

	for cz := -chunks; cz <= chunks; cz++ {
		for cx := -chunks; cx <= chunks; cx++ {
			f, err := w.GenerateChunk(cx, cz)
			if err != nil {
				return err
			}
			if err := out.WriteFields(telemetry.ComputeFieldStats(chunkName(cx, cz), f)); err != nil {
				return err
			}
		}
	}

	cands, err := w.Scatter()
	if err != nil {
		return err
	}
	w.FlushPerf("scatter")

	counts := w.Scene().Counts()
	slog.Info("scatter complete",
		"placements", len(cands),
		"emitted", counts.Placements,
		"static", counts.Static,
		"children", counts.Children,
		"batches", len(w.Batches()),
		"pooled_records", w.Grid().Len(),
	)

	if ticks > 0 {
		size := float64(cfg.Terrain.Size)
		var spawned int
		for i := range ticks {
			t := (float64(i) + 0.5) / float64(ticks)
			spawned += w.Tick(r3.Vec{X: t * size, Z: t * size})
		}
		w.FlushPerf("pool")
		slog.Info("pooling complete", "ticks", ticks, "spawned", spawned, "active", w.Scene().Counts().Active)
	}

	if images != nil && images.Err != nil {
		return images.Err
	}
	return nil
}

func chunkName(cx, cz int) string {
	return fmt.Sprintf("chunk_%d_%d", cx, cz)
}
