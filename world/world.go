// Package world wires generation, scattering, batching and pooling into one
// pipeline driven by configuration.
package world

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/batch"
	"github.com/pthm-cable/landgen/config"
	"github.com/pthm-cable/landgen/erosion"
	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/pool"
	"github.com/pthm-cable/landgen/scatter"
	"github.com/pthm-cable/landgen/scene"
	"github.com/pthm-cable/landgen/telemetry"
	"github.com/pthm-cable/landgen/terrain"
)

// ErrNoTerrain is returned when scattering before generating.
var ErrNoTerrain = errors.New("world: no terrain generated")

// terrainSource synthesizes terrains and hands them to a sink.
type terrainSource interface {
	Generate() (terrain.Result, error)
	GenerateChunk(base terrain.Result, cx, cz int) (terrain.Result, error)
	Apply(sink terrain.Sink, r terrain.Result)
}

// World owns every stage of one landscape.
type World struct {
	cfg *config.Config

	gen     terrainSource
	sink    terrain.Sink
	scene   *scene.World
	planner *scatter.Planner
	batcher *batch.Batcher
	grid    *pool.Grid
	pooler  *pool.Pooler

	perf *telemetry.PerfCollector
	out  *telemetry.OutputManager

	terrain    terrain.Result
	hasTerrain bool
	candidates []scatter.Candidate
	chunks     map[[2]int]*grid.Field
}

// New builds a world from cfg. sink receives terrain data; out may be nil.
func New(cfg *config.Config, sink terrain.Sink, out *telemetry.OutputManager) (*World, error) {
	ep, err := cfg.ErosionParams()
	if err != nil && cfg.Terrain.Erode {
		return nil, err
	}
	gen, err := terrain.NewGenerator(terrain.Config{
		Size:         cfg.Terrain.Size,
		Height:       cfg.Terrain.Height,
		Seed:         cfg.Terrain.Seed,
		GenerateSeed: cfg.Terrain.GenerateSeed,
		Erode:        cfg.Terrain.Erode,
		Noise:        cfg.NoiseConfig(),
		Erosion:      ep,
	})
	if err != nil {
		return nil, fmt.Errorf("creating terrain generator: %w", err)
	}

	g, err := pool.NewGrid(float64(cfg.Terrain.Size), cfg.Pooling.CellSize)
	if err != nil {
		return nil, err
	}

	sc := scene.New()
	pooler, err := pool.NewPooler(sc, cfg.Pooling.Pools)
	if err != nil {
		return nil, err
	}

	w := &World{
		cfg:     cfg,
		gen:     gen,
		sink:    sink,
		scene:   sc,
		batcher: &batch.Batcher{Cap: cfg.Batching.Cap},
		grid:    g,
		pooler:  pooler,
		perf:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		out:     out,
		chunks:  make(map[[2]int]*grid.Field),
	}

	opts := scatter.Options{
		Emitter:     sc,
		Instances:   timedConsumer{perf: w.perf, next: w.batcher},
		TerrainSize: r3.Vec{X: float64(cfg.Terrain.Size), Y: cfg.Terrain.Height, Z: float64(cfg.Terrain.Size)},
	}
	if sink != nil {
		opts.Vegetation = sink
	}
	if cfg.Terrain.Anchor {
		opts.Anchor = sc
	}
	w.planner = scatter.NewPlanner(opts)
	return w, nil
}

// Generate synthesizes, optionally erodes and applies a new terrain.
// Previously planned placements are retracted.
func (w *World) Generate() error {
	w.perf.StartTick()
	w.perf.StartPhase(telemetry.PhaseNoise)
	res, err := w.gen.Generate()
	if err != nil {
		w.perf.EndTick()
		return err
	}
	w.perf.Attribute(telemetry.PhaseErosion, res.Eroding)

	w.perf.StartPhase(telemetry.PhaseApply)
	if w.sink != nil {
		w.gen.Apply(w.sink, res)
	}
	w.perf.EndTick()

	w.terrain, w.hasTerrain = res, true
	clear(w.chunks)
	w.planner.Retract()
	w.candidates = nil
	w.grid.Clear()
	w.batcher.Reset()

	if err := w.out.WriteFields(telemetry.ComputeFieldStats("heights", res.Heights)); err != nil {
		slog.Error("writing field stats", "error", err)
	}
	if res.Erosion != nil {
		s := res.Erosion.Stats
		slog.Info("eroded terrain",
			"droplets", s.Droplets,
			"steps", s.Steps,
			"eroded", s.Eroded,
			"deposited", s.Deposited,
			"out_of_bounds", s.Terminated(erosion.OutOfBounds),
		)
		if err := w.out.WriteErosion(telemetry.ErosionRowFrom(res.Seed, s)); err != nil {
			slog.Error("writing erosion stats", "error", err)
		}
		if err := w.out.WriteFields(
			telemetry.ComputeFieldStats("erosion_mask", res.Erosion.ErosionMask),
			telemetry.ComputeFieldStats("deposition_mask", res.Erosion.DepositionMask),
		); err != nil {
			slog.Error("writing field stats", "error", err)
		}
	}
	return nil
}

// GenerateChunk returns the neighbouring tile (cx, cz) of the current
// terrain. Tiles are cached until the next Generate.
func (w *World) GenerateChunk(cx, cz int) (*grid.Field, error) {
	if !w.hasTerrain {
		return nil, ErrNoTerrain
	}
	if cx == 0 && cz == 0 {
		return w.terrain.Heights, nil
	}
	key := [2]int{cx, cz}
	if f, ok := w.chunks[key]; ok {
		return f, nil
	}
	res, err := w.gen.GenerateChunk(w.terrain, cx, cz)
	if err != nil {
		return nil, err
	}
	w.chunks[key] = res.Heights
	return res.Heights, nil
}

// Surface returns the probe target for the current terrain, including the
// water plane when enabled.
func (w *World) Surface() (scatter.SurfaceQuery, scatter.Bounds, error) {
	if !w.hasTerrain {
		return nil, scatter.Bounds{}, ErrNoTerrain
	}
	size := float64(w.cfg.Terrain.Size)
	ground := scatter.NewHeightfieldSurface(w.terrain.Heights, size, w.cfg.Terrain.Height, w.cfg.Terrain.SurfaceTag)
	if !w.cfg.Water.Enabled {
		return ground, ground.Bounds(), nil
	}
	water := &scatter.Plane{
		Y:     w.cfg.Water.Level * w.cfg.Terrain.Height,
		Max:   r3.Vec{X: size, Z: size},
		Tag:   w.cfg.Water.Tag,
		Layer: ground.Layer,
	}
	return scatter.Surfaces{ground, water}, ground.Bounds(), nil
}

// Scatter plans every configured spec over the current terrain. Pooled
// placements are assigned to the pooling grid.
func (w *World) Scatter() ([]scatter.Candidate, error) {
	q, bounds, err := w.Surface()
	if err != nil {
		return nil, err
	}

	w.perf.StartTick()
	w.perf.StartPhase(telemetry.PhaseScatter)
	w.batcher.Reset()
	cands := w.planner.Plan(bounds, q, w.cfg.Derived.Specs)

	w.perf.StartPhase(telemetry.PhasePoolTick)
	w.grid.Clear()
	dropped := w.grid.Assign(pool.RecordsFrom(cands))
	w.perf.EndTick()

	w.candidates = cands
	slog.Info("pooled placements assigned", "records", w.grid.Len(), "dropped", dropped, "batches", len(w.batcher.Batches()))

	if err := w.out.WritePlacements(telemetry.PlacementRows(cands), telemetry.Summarize(cands)); err != nil {
		slog.Error("writing placements", "error", err)
	}
	return cands, nil
}

// Tick refreshes the active pooling cell around ref and respawns its
// records. It returns the number of objects placed.
func (w *World) Tick(ref r3.Vec) int {
	w.perf.StartTick()
	w.perf.StartPhase(telemetry.PhasePoolTick)
	records := w.grid.Tick(ref)
	w.perf.StartPhase(telemetry.PhaseSpawn)
	n := w.pooler.SpawnAll(records)
	w.perf.EndTick()
	return n
}

// FlushPerf logs the current timing window and writes it under label.
func (w *World) FlushPerf(label string) {
	stats := w.perf.Stats()
	slog.Info("perf", "label", label, "stats", stats)
	if err := w.out.WritePerf(stats, label); err != nil {
		slog.Error("writing perf", "error", err)
	}
}

// Terrain returns the current terrain, if any.
func (w *World) Terrain() (terrain.Result, bool) { return w.terrain, w.hasTerrain }

// Candidates returns the placements of the last Scatter.
func (w *World) Candidates() []scatter.Candidate { return w.candidates }

// Batches returns the instance batches of the last Scatter.
func (w *World) Batches() []batch.Batch { return w.batcher.Batches() }

// Batcher returns the instance batcher.
func (w *World) Batcher() *batch.Batcher { return w.batcher }

// Scene returns the entity scene.
func (w *World) Scene() *scene.World { return w.scene }

// Grid returns the pooling grid.
func (w *World) Grid() *pool.Grid { return w.grid }

// Pooler returns the pool consumer.
func (w *World) Pooler() *pool.Pooler { return w.pooler }

// Perf returns the timing collector.
func (w *World) Perf() *telemetry.PerfCollector { return w.perf }

// Config returns the world configuration.
func (w *World) Config() *config.Config { return w.cfg }

// timedConsumer attributes instance batching to its own phase while a
// scatter tick is running.
type timedConsumer struct {
	perf *telemetry.PerfCollector
	next scatter.InstanceConsumer
}

func (c timedConsumer) ConsumeInstances(inst []scatter.Instance) {
	c.perf.StartPhase(telemetry.PhaseBatch)
	c.next.ConsumeInstances(inst)
	c.perf.StartPhase(telemetry.PhaseScatter)
}
